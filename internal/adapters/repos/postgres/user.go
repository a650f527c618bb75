package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/sellcourse/sellcourse-backend/internal/adapters/repos"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/otelx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/postgres"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/watermillx"
)

const (
	usersEmailKey = "users_email_key"

	selectUserColumns = `
        SELECT  id, email, pass_hash, role, username,
                gender, birth_date, phone_number, created_at, updated_at
        FROM users`

	insertUserQuery = `
        INSERT INTO users (id, email, pass_hash, role, username, gender, birth_date, phone_number, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`

	updateUserQuery = `
        UPDATE users
        SET email = $2, pass_hash = $3, role = $4, username = $5,
            gender = $6, birth_date = $7, phone_number = $8, updated_at = $9
        WHERE id = $1;`
)

type UserRepo struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	pool    *pgxpool.Pool
	wlogger watermill.LoggerAdapter
}

// NewUserRepo creates a new instance of UserRepo.
//
// WARNING: panics if pool is nil
func NewUserRepo(pool *pgxpool.Pool, t trace.Tracer, l *slog.Logger) *UserRepo {
	if pool == nil {
		panic("pgxpool.Pool cannot be nil")
	}
	if t == nil {
		t = tracer
	}
	if l == nil {
		l = logger
	}

	return &UserRepo{
		tracer:  t,
		logger:  l,
		pool:    pool,
		wlogger: watermillx.NewSlogAdapter(l, slog.LevelWarn),
	}
}

// SaveUser inserts u and publishes its pending events in the same
// transaction. A taken email yields errorx.CodeEmailExists.
func (r *UserRepo) SaveUser(ctx context.Context, u *user.User) error {
	const op = "postgres.UserRepo.SaveUser"
	ctx, span := r.tracer.Start(ctx, "UserRepo.SaveUser")
	defer span.End()

	err := postgres.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		dto := DomainToUserDTO(u)
		res, err := tx.Exec(ctx, insertUserQuery,
			dto.ID,
			dto.Email,
			dto.Passhash,
			dto.Role,
			dto.Username,
			dto.Gender,
			dto.BirthDate,
			dto.PhoneNumber,
			dto.CreatedAt,
			dto.UpdatedAt,
		)
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to insert user")
			if postgres.IsUniqueViolation(err, usersEmailKey) {
				return errorx.Wrap(errorx.NewEmailExists().WithCause(err), op)
			}
			return errorx.Wrap(err, op)
		}
		if res.RowsAffected() == 0 {
			otelx.RecordSpanError(span, repos.ErrNoRowsAffected, "no rows affected while inserting user")
			return errorx.Wrap(repos.ErrNoRowsAffected, op)
		}

		if err := watermillx.Publish(ctx, tx, r.wlogger, u.GetUncommittedEvents()...); err != nil {
			otelx.RecordSpanError(span, err, "failed to publish events")
			return errorx.Wrap(err, op)
		}
		return nil
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to execute transaction")
		return err
	}

	u.MarkEventsAsCommitted()
	return nil
}

// UpdateUser locks the row, applies fn and writes the result back. An error
// from fn aborts the update unless it is errorx.Persistable.
func (r *UserRepo) UpdateUser(
	ctx context.Context,
	id user.ID,
	fn func(ctx context.Context, u *user.User) error,
) error {
	const op = "postgres.UserRepo.UpdateUser"
	ctx, span := r.tracer.Start(ctx, "UserRepo.UpdateUser")
	defer span.End()
	if fn == nil {
		otelx.RecordSpanError(span, repos.ErrNilFunc, "update function cannot be nil")
		return repos.ErrNilFunc
	}

	var (
		updated    *user.User
		persistErr error
	)
	err := postgres.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx, selectUserColumns+` WHERE id = $1 FOR UPDATE;`, uuidOf(id)))
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to get user by id")
			return errorx.Wrap(err, op)
		}

		fnerr := fn(ctx, u)
		if fnerr != nil && !errorx.IsPersistable(fnerr) {
			otelx.RecordSpanError(span, fnerr, "update function returned an error and cannot continue")
			return errorx.Wrap(fnerr, op)
		}

		dto := DomainToUserDTO(u)
		res, err := tx.Exec(ctx, updateUserQuery,
			dto.ID,
			dto.Email,
			dto.Passhash,
			dto.Role,
			dto.Username,
			dto.Gender,
			dto.BirthDate,
			dto.PhoneNumber,
			dto.UpdatedAt,
		)
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to update user")
			if postgres.IsUniqueViolation(err, usersEmailKey) {
				return errorx.Wrap(errorx.NewEmailExists().WithCause(err), op)
			}
			return errorx.Wrap(err, op)
		}
		if res.RowsAffected() == 0 {
			otelx.RecordSpanError(span, repos.ErrNoRowsAffected, "no rows affected while updating user")
			return errorx.Wrap(repos.ErrNoRowsAffected, op)
		}

		if err := watermillx.Publish(ctx, tx, r.wlogger, u.GetUncommittedEvents()...); err != nil {
			otelx.RecordSpanError(span, err, "failed to publish events")
			return errorx.Wrap(err, op)
		}
		updated = u
		persistErr = fnerr
		return nil
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "transaction to update user failed")
		return err
	}

	updated.MarkEventsAsCommitted()
	if persistErr != nil {
		// written, but the caller still has to see the error
		otelx.RecordSpanError(span, persistErr, "update function returned an error but is allowed to continue")
		return errorx.Wrap(persistErr, op)
	}
	return nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, id user.ID) (*user.User, error) {
	const op = "postgres.UserRepo.GetUserByID"
	ctx, span := r.tracer.Start(ctx, "UserRepo.GetUserByID")
	defer span.End()

	u, err := scanUser(r.pool.QueryRow(ctx, selectUserColumns+` WHERE id = $1;`, uuidOf(id)))
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get user by id")
		return nil, errorx.Wrap(err, op)
	}
	return u, nil
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	const op = "postgres.UserRepo.GetUserByEmail"
	ctx, span := r.tracer.Start(ctx, "UserRepo.GetUserByEmail")
	defer span.End()

	u, err := scanUser(r.pool.QueryRow(ctx, selectUserColumns+` WHERE email = $1;`, email))
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get user by email")
		return nil, errorx.Wrap(err, op)
	}
	return u, nil
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const op = "postgres.UserRepo.ExistsByEmail"
	ctx, span := r.tracer.Start(ctx, "UserRepo.ExistsByEmail")
	defer span.End()

	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1);`, email).Scan(&exists)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to check if user exists")
		return false, errorx.Wrap(err, op)
	}
	return exists, nil
}

func scanUser(row pgx.Row) (*user.User, error) {
	var dto UserDTO
	err := row.Scan(
		&dto.ID, &dto.Email, &dto.Passhash, &dto.Role, &dto.Username,
		&dto.Gender, &dto.BirthDate, &dto.PhoneNumber, &dto.CreatedAt, &dto.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound.WithCause(err)
		}
		return nil, err
	}

	return UserToDomain(dto)
}
