package coursehttp

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	courseapp "gitlab.com/sellcourse/sellcourse-backend/internal/application/course"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/course"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/role"
	"gitlab.com/sellcourse/sellcourse-backend/internal/ports/http/middlewares"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/ctxs"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/httpx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/i18nx"
)

const (
	ImageFormField = "image"
	// multipart overhead on top of the image itself
	maxFormSize = courseapp.MaxImageSize + 1<<20
)

var (
	tracer = otel.Tracer("sellcourse/internal/ports/http/course")
	logger = otelslog.NewLogger("sellcourse/internal/ports/http/course")
)

type HTTP struct {
	tracer       trace.Tracer
	logger       *slog.Logger
	app          *courseapp.App
	middleware   *middlewares.Middleware
	errhandler   *httpx.ErrorHandler
	imageBaseURL string
}

type Args struct {
	Tracer     trace.Tracer
	Logger     *slog.Logger
	CourseApp  *courseapp.App
	Middleware *middlewares.Middleware
	Errhandler *httpx.ErrorHandler
	// ImageBaseURL is prefixed to stored image keys in responses when set.
	ImageBaseURL string
}

func NewHTTP(args Args) *HTTP {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.Errhandler == nil {
		args.Errhandler = httpx.NewErrorHandler()
	}

	return &HTTP{
		tracer:       args.Tracer,
		logger:       args.Logger,
		app:          args.CourseApp,
		middleware:   args.Middleware,
		errhandler:   args.Errhandler,
		imageBaseURL: strings.TrimRight(args.ImageBaseURL, "/"),
	}
}

func (h *HTTP) Route(r chi.Router) {
	r.Route("/v1/courses", func(r chi.Router) {
		r.Get("/", h.ListCourses)
		r.Get("/{id}", h.GetCourse)

		r.Group(func(r chi.Router) {
			r.Use(h.middleware.Auth)
			r.Use(h.middleware.RequireRole(role.Admin, role.Instructor))

			r.Post("/", h.CreateCourse)
			r.Put("/{id}", h.UpdateCourse)
			r.Delete("/{id}", h.DeleteCourse)
			r.Put("/{id}/image", h.UploadImage)
		})
	})
}

func (h *HTTP) CourseResponse(c *course.Course) httpx.Envelope {
	res := httpx.Envelope{
		"id":            c.ID(),
		"instructor_id": c.InstructorID(),
		"title":         c.Title(),
		"description":   c.Description(),
		"price":         c.Price(),
		"video_info":    c.VideoInfo(),
		"image_info":    c.ImageInfo(),
		"created_at":    c.CreatedAt(),
		"updated_at":    c.UpdatedAt(),
	}
	if h.imageBaseURL != "" && c.ImageInfo() != "" {
		res["image_url"] = h.imageBaseURL + "/" + c.ImageInfo()
	}
	return res
}

func (h *HTTP) ListCourses(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListCourses")
	defer span.End()

	limit, err := queryInt(r, "limit")
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "invalid limit")
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "invalid offset")
		return
	}

	res, err := h.app.ListCourses(ctx, courseapp.ListCourses{Limit: limit, Offset: offset})
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to list courses")
		return
	}

	courses := make([]httpx.Envelope, 0, len(res.Courses))
	for _, c := range res.Courses {
		courses = append(courses, h.CourseResponse(c))
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{
		"courses": courses,
		"total":   res.Total,
		"limit":   res.Limit,
		"offset":  res.Offset,
	})
}

func (h *HTTP) GetCourse(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetCourse")
	defer span.End()

	id, err := courseID(r)
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "invalid course id")
		return
	}
	span.SetAttributes(attribute.String("course.id", id.String()))

	c, err := h.app.GetCourse(ctx, id)
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to get course")
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{"course": h.CourseResponse(c)})
}

type CreateCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	VideoInfo   string `json:"video_info"`
}

func (h *HTTP) CreateCourse(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateCourse")
	defer span.End()

	actor, ok := actorFromCtx(r)
	if !ok {
		h.errhandler.HandleError(w, r, span, errorx.NewUnauthorized(), "failed to get user from context")
		return
	}

	var req CreateCourseRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to read json")
		return
	}

	c, err := h.app.CreateCourse(ctx, courseapp.CreateCourse{
		Actor:       actor,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		VideoInfo:   req.VideoInfo,
	})
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to create course")
		return
	}

	httpx.Success(w, r, http.StatusCreated, httpx.Envelope{"course": h.CourseResponse(c)})
}

// UpdateCourseRequest leaves omitted fields untouched.
type UpdateCourseRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	VideoInfo   *string `json:"video_info"`
}

func (h *HTTP) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateCourse")
	defer span.End()

	actor, ok := actorFromCtx(r)
	if !ok {
		h.errhandler.HandleError(w, r, span, errorx.NewUnauthorized(), "failed to get user from context")
		return
	}
	id, err := courseID(r)
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "invalid course id")
		return
	}

	var req UpdateCourseRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to read json")
		return
	}

	c, err := h.app.UpdateCourse(ctx, courseapp.UpdateCourse{
		Actor:       actor,
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		VideoInfo:   req.VideoInfo,
	})
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to update course")
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{"course": h.CourseResponse(c)})
}

func (h *HTTP) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteCourse")
	defer span.End()

	actor, ok := actorFromCtx(r)
	if !ok {
		h.errhandler.HandleError(w, r, span, errorx.NewUnauthorized(), "failed to get user from context")
		return
	}
	id, err := courseID(r)
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "invalid course id")
		return
	}

	if err := h.app.DeleteCourse(ctx, courseapp.DeleteCourse{Actor: actor, ID: id}); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to delete course")
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{
		"message": h.errhandler.Message(r, i18nx.KeyCourseDeleted),
	})
}

func (h *HTTP) UploadImage(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UploadImage")
	defer span.End()

	actor, ok := actorFromCtx(r)
	if !ok {
		h.errhandler.HandleError(w, r, span, errorx.NewUnauthorized(), "failed to get user from context")
		return
	}
	id, err := courseID(r)
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "invalid course id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		h.errhandler.HandleError(w, r, span, course.ErrImageTooLarge.WithCause(err), "failed to parse multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(ImageFormField)
	if err != nil {
		h.errhandler.HandleError(w, r, span, errorx.NewValidationFieldFailed("image").WithCause(err), "failed to get image from form")
		return
	}
	defer file.Close()

	span.SetAttributes(
		attribute.String("course.id", id.String()),
		attribute.Int64("image.size", header.Size),
	)

	c, err := h.app.UploadCourseImage(ctx, courseapp.UploadCourseImage{
		Actor:       actor,
		ID:          id,
		Image:       file,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to upload course image")
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{"course": h.CourseResponse(c)})
}

func actorFromCtx(r *http.Request) (courseapp.Actor, bool) {
	u, ok := ctxs.UserFromCtx(r.Context())
	if !ok {
		return courseapp.Actor{}, false
	}
	return courseapp.Actor{ID: u.ID, Role: u.Role}, true
}

func courseID(r *http.Request) (course.ID, error) {
	id, err := course.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		return course.ID{}, course.ErrNotFound.WithCause(err)
	}
	return id, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errorx.NewValidationFieldFailed(key).WithCause(err)
	}
	return n, nil
}
