package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/sellcourse/sellcourse-backend/internal/adapters/repos"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/course"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/otelx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/postgres"
)

const (
	coursesTitleKey = "courses_title_key"

	selectCourseColumns = `
        SELECT  id, instructor_id, title, description, price,
                video_info, image_info, created_at, updated_at
        FROM courses`
)

type CourseRepo struct {
	tracer trace.Tracer
	logger *slog.Logger
	pool   *pgxpool.Pool
}

// NewCourseRepo panics if pool is nil.
func NewCourseRepo(pool *pgxpool.Pool, t trace.Tracer, l *slog.Logger) *CourseRepo {
	if pool == nil {
		panic("pgxpool.Pool cannot be nil")
	}
	if t == nil {
		t = tracer
	}
	if l == nil {
		l = logger
	}

	return &CourseRepo{tracer: t, logger: l, pool: pool}
}

func (r *CourseRepo) SaveCourse(ctx context.Context, c *course.Course) error {
	const op = "postgres.CourseRepo.SaveCourse"
	ctx, span := r.tracer.Start(ctx, "CourseRepo.SaveCourse")
	defer span.End()

	dto := DomainToCourseDTO(c)
	_, err := r.pool.Exec(ctx, `
        INSERT INTO courses (id, instructor_id, title, description, price, video_info, image_info, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`,
		dto.ID, dto.InstructorID, dto.Title, dto.Description, dto.Price,
		dto.VideoInfo, dto.ImageInfo, dto.CreatedAt, dto.UpdatedAt,
	)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to insert course")
		if postgres.IsUniqueViolation(err, coursesTitleKey) {
			return errorx.Wrap(course.ErrTitleTaken.WithCause(err), op)
		}
		return errorx.Wrap(err, op)
	}
	return nil
}

// UpdateCourse follows the same contract as UserRepo.UpdateUser.
func (r *CourseRepo) UpdateCourse(
	ctx context.Context,
	id course.ID,
	fn func(ctx context.Context, c *course.Course) error,
) error {
	const op = "postgres.CourseRepo.UpdateCourse"
	ctx, span := r.tracer.Start(ctx, "CourseRepo.UpdateCourse")
	defer span.End()
	if fn == nil {
		otelx.RecordSpanError(span, repos.ErrNilFunc, "update function cannot be nil")
		return repos.ErrNilFunc
	}

	var persistErr error
	err := postgres.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		c, err := scanCourse(tx.QueryRow(ctx, selectCourseColumns+` WHERE id = $1 FOR UPDATE;`, uuidOf(id)))
		if err != nil {
			return errorx.Wrap(err, op)
		}

		fnerr := fn(ctx, c)
		if fnerr != nil && !errorx.IsPersistable(fnerr) {
			return errorx.Wrap(fnerr, op)
		}

		dto := DomainToCourseDTO(c)
		res, err := tx.Exec(ctx, `
            UPDATE courses
            SET title = $2, description = $3, price = $4,
                video_info = $5, image_info = $6, updated_at = $7
            WHERE id = $1;`,
			dto.ID, dto.Title, dto.Description, dto.Price,
			dto.VideoInfo, dto.ImageInfo, dto.UpdatedAt,
		)
		if err != nil {
			if postgres.IsUniqueViolation(err, coursesTitleKey) {
				return errorx.Wrap(course.ErrTitleTaken.WithCause(err), op)
			}
			return errorx.Wrap(err, op)
		}
		if res.RowsAffected() == 0 {
			return errorx.Wrap(repos.ErrNoRowsAffected, op)
		}

		persistErr = fnerr
		return nil
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "transaction to update course failed")
		return err
	}
	return errorx.Wrap(persistErr, op)
}

func (r *CourseRepo) DeleteCourse(ctx context.Context, id course.ID) error {
	const op = "postgres.CourseRepo.DeleteCourse"
	ctx, span := r.tracer.Start(ctx, "CourseRepo.DeleteCourse")
	defer span.End()

	res, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1;`, uuidOf(id))
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to delete course")
		return errorx.Wrap(err, op)
	}
	if res.RowsAffected() == 0 {
		return errorx.Wrap(course.ErrNotFound, op)
	}
	return nil
}

func (r *CourseRepo) GetCourse(ctx context.Context, id course.ID) (*course.Course, error) {
	const op = "postgres.CourseRepo.GetCourse"
	ctx, span := r.tracer.Start(ctx, "CourseRepo.GetCourse")
	defer span.End()

	c, err := scanCourse(r.pool.QueryRow(ctx, selectCourseColumns+` WHERE id = $1;`, uuidOf(id)))
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get course")
		return nil, errorx.Wrap(err, op)
	}
	return c, nil
}

// ListCourses returns a page ordered by newest first and the total count.
func (r *CourseRepo) ListCourses(ctx context.Context, limit, offset int) ([]*course.Course, int, error) {
	const op = "postgres.CourseRepo.ListCourses"
	ctx, span := r.tracer.Start(ctx, "CourseRepo.ListCourses")
	defer span.End()

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM courses;`).Scan(&total); err != nil {
		otelx.RecordSpanError(span, err, "failed to count courses")
		return nil, 0, errorx.Wrap(err, op)
	}

	rows, err := r.pool.Query(ctx, selectCourseColumns+` ORDER BY created_at DESC, id LIMIT $1 OFFSET $2;`, limit, offset)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to list courses")
		return nil, 0, errorx.Wrap(err, op)
	}
	defer rows.Close()

	courses := make([]*course.Course, 0, limit)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to scan course")
			return nil, 0, errorx.Wrap(err, op)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		otelx.RecordSpanError(span, err, "failed to iterate courses")
		return nil, 0, errorx.Wrap(err, op)
	}

	return courses, total, nil
}

func scanCourse(row pgx.Row) (*course.Course, error) {
	var dto CourseDTO
	err := row.Scan(
		&dto.ID, &dto.InstructorID, &dto.Title, &dto.Description, &dto.Price,
		&dto.VideoInfo, &dto.ImageInfo, &dto.CreatedAt, &dto.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, course.ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return CourseToDomain(dto), nil
}
