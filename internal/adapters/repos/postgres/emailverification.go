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
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/emailverification"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/otelx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/postgres"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/watermillx"
)

const (
	selectVerificationColumns = `
        SELECT id, email, token, created_at, expires_at
        FROM email_verifications`

	// the email constraint keeps one record per address; a new request
	// replaces token and timestamps but keeps the id
	upsertVerificationQuery = `
        INSERT INTO email_verifications (id, email, token, created_at, expires_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT ON CONSTRAINT email_verifications_email_key DO UPDATE
        SET token = EXCLUDED.token,
            created_at = EXCLUDED.created_at,
            expires_at = EXCLUDED.expires_at;`
)

type EmailVerificationRepo struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	pool    *pgxpool.Pool
	wlogger watermill.LoggerAdapter
}

// NewEmailVerificationRepo panics if pool is nil.
func NewEmailVerificationRepo(pool *pgxpool.Pool, t trace.Tracer, l *slog.Logger) *EmailVerificationRepo {
	if pool == nil {
		panic("pgxpool.Pool cannot be nil")
	}
	if t == nil {
		t = tracer
	}
	if l == nil {
		l = logger
	}

	return &EmailVerificationRepo{
		tracer:  t,
		logger:  l,
		pool:    pool,
		wlogger: watermillx.NewSlogAdapter(l, slog.LevelWarn),
	}
}

// SaveVerification upserts v by email and publishes VerificationRequested in
// the same transaction.
func (r *EmailVerificationRepo) SaveVerification(ctx context.Context, v *emailverification.Verification) error {
	const op = "postgres.EmailVerificationRepo.SaveVerification"
	ctx, span := r.tracer.Start(ctx, "EmailVerificationRepo.SaveVerification")
	defer span.End()

	err := postgres.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		dto := DomainToVerificationDTO(v)
		res, err := tx.Exec(ctx, upsertVerificationQuery,
			dto.ID,
			dto.Email,
			dto.Token,
			dto.CreatedAt,
			dto.ExpiresAt,
		)
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to upsert email verification")
			return errorx.Wrap(err, op)
		}
		if res.RowsAffected() == 0 {
			otelx.RecordSpanError(span, repos.ErrNoRowsAffected, "no rows affected while upserting email verification")
			return errorx.Wrap(repos.ErrNoRowsAffected, op)
		}

		if err := watermillx.Publish(ctx, tx, r.wlogger, v.GetUncommittedEvents()...); err != nil {
			otelx.RecordSpanError(span, err, "failed to publish events")
			return errorx.Wrap(err, op)
		}
		return nil
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to execute transaction")
		return err
	}

	v.MarkEventsAsCommitted()
	return nil
}

func (r *EmailVerificationRepo) GetVerificationByEmail(ctx context.Context, email string) (*emailverification.Verification, error) {
	const op = "postgres.EmailVerificationRepo.GetVerificationByEmail"
	ctx, span := r.tracer.Start(ctx, "EmailVerificationRepo.GetVerificationByEmail")
	defer span.End()

	v, err := scanVerification(r.pool.QueryRow(ctx, selectVerificationColumns+` WHERE email = $1;`, email))
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get email verification by email")
		return nil, errorx.Wrap(err, op)
	}
	return v, nil
}

func (r *EmailVerificationRepo) GetVerificationByToken(ctx context.Context, token string) (*emailverification.Verification, error) {
	const op = "postgres.EmailVerificationRepo.GetVerificationByToken"
	ctx, span := r.tracer.Start(ctx, "EmailVerificationRepo.GetVerificationByToken")
	defer span.End()

	v, err := scanVerification(r.pool.QueryRow(ctx, selectVerificationColumns+` WHERE token = $1;`, token))
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get email verification by token")
		return nil, errorx.Wrap(err, op)
	}
	return v, nil
}

// DeleteVerificationByEmail is idempotent.
func (r *EmailVerificationRepo) DeleteVerificationByEmail(ctx context.Context, email string) error {
	const op = "postgres.EmailVerificationRepo.DeleteVerificationByEmail"
	ctx, span := r.tracer.Start(ctx, "EmailVerificationRepo.DeleteVerificationByEmail")
	defer span.End()

	err := postgres.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM email_verifications WHERE email = $1;`, email)
		return err
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to delete email verification")
		return errorx.Wrap(err, op)
	}
	return nil
}

func scanVerification(row pgx.Row) (*emailverification.Verification, error) {
	var dto VerificationDTO
	err := row.Scan(&dto.ID, &dto.Email, &dto.Token, &dto.CreatedAt, &dto.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, emailverification.ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return VerificationToDomain(dto), nil
}
