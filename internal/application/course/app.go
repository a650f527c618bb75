package courseapp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/course"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/role"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/otelx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/sanitizex"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxImageSize    = 5 << 20
)

var (
	tracer = otel.Tracer("sellcourse/internal/application/course")
	logger = otelslog.NewLogger("sellcourse/internal/application/course")
)

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type Repo interface {
	SaveCourse(ctx context.Context, c *course.Course) error
	UpdateCourse(ctx context.Context, id course.ID, fn func(ctx context.Context, c *course.Course) error) error
	DeleteCourse(ctx context.Context, id course.ID) error
	GetCourse(ctx context.Context, id course.ID) (*course.Course, error)
	ListCourses(ctx context.Context, limit, offset int) ([]*course.Course, int, error)
}

type ImageStorage interface {
	UploadFile(ctx context.Context, key string, file io.Reader, contentType string) error
	DeleteFile(ctx context.Context, key string) error
}

// Actor is the authenticated caller of a mutating command.
type Actor struct {
	ID   user.ID
	Role role.Role
}

func (a Actor) canManage(c *course.Course) bool {
	return a.Role == role.Admin || (a.Role == role.Instructor && c.InstructorID() == a.ID)
}

type App struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	repo    Repo
	storage ImageStorage
}

type Args struct {
	Tracer  trace.Tracer
	Logger  *slog.Logger
	Repo    Repo
	Storage ImageStorage
}

func NewApp(args Args) *App {
	if args.Repo == nil || args.Storage == nil {
		panic("course app dependencies cannot be nil")
	}
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	return &App{
		tracer:  args.Tracer,
		logger:  args.Logger,
		repo:    args.Repo,
		storage: args.Storage,
	}
}

type ListCourses struct {
	Limit  int
	Offset int
}

type ListCoursesResponse struct {
	Courses []*course.Course
	Total   int
	Limit   int
	Offset  int
}

func (a *App) ListCourses(ctx context.Context, q ListCourses) (ListCoursesResponse, error) {
	const op = "courseapp.App.ListCourses"
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	q.Limit = min(q.Limit, MaxPageSize)
	q.Offset = max(q.Offset, 0)

	ctx, span := a.tracer.Start(ctx, "App.ListCourses", trace.WithAttributes(
		attribute.Int("page.limit", q.Limit),
		attribute.Int("page.offset", q.Offset),
	))
	defer span.End()

	courses, total, err := a.repo.ListCourses(ctx, q.Limit, q.Offset)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to list courses")
		return ListCoursesResponse{}, errorx.Wrap(err, op)
	}

	return ListCoursesResponse{Courses: courses, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

func (a *App) GetCourse(ctx context.Context, id course.ID) (*course.Course, error) {
	const op = "courseapp.App.GetCourse"
	ctx, span := a.tracer.Start(ctx, "App.GetCourse", trace.WithAttributes(attribute.String("course.id", id.String())))
	defer span.End()

	c, err := a.repo.GetCourse(ctx, id)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get course")
		return nil, errorx.Wrap(err, op)
	}
	return c, nil
}

type CreateCourse struct {
	Actor       Actor
	Title       string
	Description string
	Price       int64
	VideoInfo   string
}

func (a *App) CreateCourse(ctx context.Context, cmd CreateCourse) (*course.Course, error) {
	const op = "courseapp.App.CreateCourse"
	ctx, span := a.tracer.Start(ctx, "App.CreateCourse", trace.WithAttributes(
		attribute.String("actor.id", cmd.Actor.ID.String()),
		attribute.String("actor.role", cmd.Actor.Role.String()),
	))
	defer span.End()

	if !cmd.Actor.Role.In(role.Admin, role.Instructor) {
		otelx.RecordSpanError(span, course.ErrNotInstructor, "actor cannot create courses")
		return nil, errorx.Wrap(course.ErrNotInstructor, op)
	}

	c, err := course.New(course.CreateArgs{
		ID:           course.NewID(),
		InstructorID: cmd.Actor.ID,
		Title:        sanitizex.CleanSingleLine(cmd.Title),
		Description:  sanitizex.CleanMultiline(cmd.Description),
		Price:        cmd.Price,
		VideoInfo:    sanitizex.CleanSingleLine(cmd.VideoInfo),
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "invalid course")
		return nil, errorx.Wrap(err, op)
	}

	if err := a.repo.SaveCourse(ctx, c); err != nil {
		otelx.RecordSpanError(span, err, "failed to save course")
		return nil, errorx.Wrap(err, op)
	}

	a.logger.InfoContext(ctx, "course created", slog.String("course_id", c.ID().String()))
	return c, nil
}

type UpdateCourse struct {
	Actor       Actor
	ID          course.ID
	Title       *string
	Description *string
	Price       *int64
	VideoInfo   *string
}

func (a *App) UpdateCourse(ctx context.Context, cmd UpdateCourse) (*course.Course, error) {
	const op = "courseapp.App.UpdateCourse"
	ctx, span := a.tracer.Start(ctx, "App.UpdateCourse", trace.WithAttributes(
		attribute.String("course.id", cmd.ID.String()),
		attribute.String("actor.id", cmd.Actor.ID.String()),
	))
	defer span.End()

	if cmd.Title != nil {
		title := sanitizex.CleanSingleLine(*cmd.Title)
		cmd.Title = &title
	}
	if cmd.Description != nil {
		description := sanitizex.CleanMultiline(*cmd.Description)
		cmd.Description = &description
	}

	var updated *course.Course
	err := a.repo.UpdateCourse(ctx, cmd.ID, func(_ context.Context, c *course.Course) error {
		if !cmd.Actor.canManage(c) {
			return course.ErrNotInstructor
		}
		if err := c.Update(course.UpdateArgs{
			Title:       cmd.Title,
			Description: cmd.Description,
			Price:       cmd.Price,
			VideoInfo:   cmd.VideoInfo,
		}); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to update course")
		return nil, errorx.Wrap(err, op)
	}

	return updated, nil
}

type DeleteCourse struct {
	Actor Actor
	ID    course.ID
}

func (a *App) DeleteCourse(ctx context.Context, cmd DeleteCourse) error {
	const op = "courseapp.App.DeleteCourse"
	ctx, span := a.tracer.Start(ctx, "App.DeleteCourse", trace.WithAttributes(
		attribute.String("course.id", cmd.ID.String()),
		attribute.String("actor.id", cmd.Actor.ID.String()),
	))
	defer span.End()

	c, err := a.repo.GetCourse(ctx, cmd.ID)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get course")
		return errorx.Wrap(err, op)
	}
	if !cmd.Actor.canManage(c) {
		otelx.RecordSpanError(span, course.ErrNotInstructor, "actor cannot delete course")
		return errorx.Wrap(course.ErrNotInstructor, op)
	}

	if err := a.repo.DeleteCourse(ctx, cmd.ID); err != nil {
		otelx.RecordSpanError(span, err, "failed to delete course")
		return errorx.Wrap(err, op)
	}

	a.deleteImage(ctx, c.ImageInfo())
	a.logger.InfoContext(ctx, "course deleted", slog.String("course_id", cmd.ID.String()))
	return nil
}

type UploadCourseImage struct {
	Actor Actor
	ID    course.ID
	Image io.Reader
	// ContentType is what the client declared; the stored type is sniffed.
	ContentType string
}

// UploadCourseImage stores the image under courses/{id}/ and points the
// course at the new key. The previous object is removed on a best effort basis.
func (a *App) UploadCourseImage(ctx context.Context, cmd UploadCourseImage) (*course.Course, error) {
	const op = "courseapp.App.UploadCourseImage"
	ctx, span := a.tracer.Start(ctx, "App.UploadCourseImage", trace.WithAttributes(
		attribute.String("course.id", cmd.ID.String()),
		attribute.String("image.declared_type", cmd.ContentType),
	))
	defer span.End()

	c, err := a.repo.GetCourse(ctx, cmd.ID)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get course")
		return nil, errorx.Wrap(err, op)
	}
	if !cmd.Actor.canManage(c) {
		otelx.RecordSpanError(span, course.ErrNotInstructor, "actor cannot change course image")
		return nil, errorx.Wrap(course.ErrNotInstructor, op)
	}

	data, err := io.ReadAll(io.LimitReader(cmd.Image, MaxImageSize+1))
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to read image")
		return nil, errorx.Wrap(err, op)
	}
	if len(data) > MaxImageSize {
		otelx.RecordSpanError(span, course.ErrImageTooLarge, "image too large")
		return nil, errorx.Wrap(course.ErrImageTooLarge, op)
	}
	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		otelx.RecordSpanError(span, course.ErrImageBadFormat, "unsupported image type")
		return nil, errorx.Wrap(course.ErrImageBadFormat.WithCause(fmt.Errorf("detected %s", contentType)), op)
	}
	span.SetAttributes(attribute.String("image.content_type", contentType), attribute.Int("image.size", len(data)))

	key := fmt.Sprintf("courses/%s/%s.%s", c.ID(), uuid.NewString(), ext)
	if err := a.storage.UploadFile(ctx, key, bytes.NewReader(data), contentType); err != nil {
		otelx.RecordSpanError(span, err, "failed to upload image")
		return nil, errorx.Wrap(err, op)
	}

	var (
		updated  *course.Course
		previous string
	)
	err = a.repo.UpdateCourse(ctx, cmd.ID, func(_ context.Context, c *course.Course) error {
		previous = c.ImageInfo()
		if err := c.SetImage(key); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to set course image")
		a.deleteImage(ctx, key)
		return nil, errorx.Wrap(err, op)
	}

	a.deleteImage(ctx, previous)
	return updated, nil
}

func (a *App) deleteImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := a.storage.DeleteFile(ctx, key); err != nil {
		a.logger.WarnContext(ctx, "failed to delete course image", slog.String("key", key), slog.String("error", err.Error()))
	}
}
