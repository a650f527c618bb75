package verification

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/emailverification"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/env"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/logging"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/otelx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/sanitizex"
)

var (
	tracer = otel.Tracer("sellcourse/internal/application/verification")
	logger = otelslog.NewLogger("sellcourse/internal/application/verification")
)

type Repo interface {
	SaveVerification(ctx context.Context, v *emailverification.Verification) error
	GetVerificationByEmail(ctx context.Context, email string) (*emailverification.Verification, error)
	GetVerificationByToken(ctx context.Context, token string) (*emailverification.Verification, error)
	DeleteVerificationByEmail(ctx context.Context, email string) error
}

type App struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	repo    Repo
	baseURL string
	mode    env.Mode
	now     func() time.Time
}

type Args struct {
	Tracer trace.Tracer
	Logger *slog.Logger
	Repo   Repo
	// BaseURL is the page the verification link points at.
	BaseURL string
	Mode    env.Mode
	// Now overrides the clock, for tests.
	Now func() time.Time
}

func NewApp(args Args) *App {
	if args.Repo == nil {
		panic("verification repo cannot be nil")
	}
	a := &App{
		tracer:  args.Tracer,
		logger:  args.Logger,
		repo:    args.Repo,
		baseURL: args.BaseURL,
		mode:    args.Mode,
		now:     args.Now,
	}
	if a.tracer == nil {
		a.tracer = tracer
	}
	if a.logger == nil {
		a.logger = logger
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.mode == "" {
		a.mode = env.Current()
	}
	return a
}

type RequestVerification struct {
	Email string
}

type RequestVerificationResponse struct {
	Token     string
	URL       string
	ExpiresAt time.Time
}

// RequestVerification moves email to PENDING with a fresh token, replacing
// any previous one. The mail itself is sent by the VerificationRequested
// event handler.
func (a *App) RequestVerification(ctx context.Context, cmd RequestVerification) (RequestVerificationResponse, error) {
	const op = "verification.App.RequestVerification"
	email := sanitizex.CleanEmail(cmd.Email)
	ctx, span := a.tracer.Start(ctx, "App.RequestVerification", trace.WithAttributes(
		attribute.String("email", logging.RedactEmail(email)),
	))
	defer span.End()

	v, err := a.repo.GetVerificationByEmail(ctx, email)
	switch {
	case errorx.IsNotFound(err):
		v, err = emailverification.New(email, a.mode, a.now())
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to create verification")
			return RequestVerificationResponse{}, errorx.Wrap(err, op)
		}
	case err != nil:
		otelx.RecordSpanError(span, err, "failed to get verification")
		return RequestVerificationResponse{}, errorx.Wrap(err, op)
	default:
		if err := v.Renew(a.now()); err != nil {
			otelx.RecordSpanError(span, err, "failed to renew verification")
			return RequestVerificationResponse{}, errorx.Wrap(err, op)
		}
	}

	link, err := emailverification.Link(a.baseURL, v.Token(), v.Email())
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to build verification link")
		return RequestVerificationResponse{}, errorx.Wrap(err, op)
	}

	if err := a.repo.SaveVerification(ctx, v); err != nil {
		otelx.RecordSpanError(span, err, "failed to save verification")
		return RequestVerificationResponse{}, errorx.Wrap(err, op)
	}

	a.logger.InfoContext(ctx, "verification requested",
		logging.Email(email),
		slog.Time("expires_at", v.ExpiresAt()),
	)

	return RequestVerificationResponse{
		Token:     v.Token(),
		URL:       link,
		ExpiresAt: v.ExpiresAt(),
	}, nil
}

// Verify reports whether token and email point at the same unexpired
// record. It never consumes the record.
func (a *App) Verify(ctx context.Context, token, email string) (bool, error) {
	const op = "verification.App.Verify"
	email = sanitizex.CleanEmail(email)
	ctx, span := a.tracer.Start(ctx, "App.Verify", trace.WithAttributes(
		attribute.String("email", logging.RedactEmail(email)),
	))
	defer span.End()

	if token == "" || email == "" {
		return false, nil
	}

	byToken, err := a.repo.GetVerificationByToken(ctx, token)
	if errorx.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get verification by token")
		return false, errorx.Wrap(err, op)
	}

	byEmail, err := a.repo.GetVerificationByEmail(ctx, email)
	if errorx.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get verification by email")
		return false, errorx.Wrap(err, op)
	}

	if byToken.ID() != byEmail.ID() {
		return false, nil
	}

	valid := byEmail.Matches(token, email, a.now())
	span.SetAttributes(attribute.Bool("verification.valid", valid))
	return valid, nil
}

// Consume moves email to CONSUMED by deleting its record.
func (a *App) Consume(ctx context.Context, email string) error {
	const op = "verification.App.Consume"
	email = sanitizex.CleanEmail(email)
	ctx, span := a.tracer.Start(ctx, "App.Consume", trace.WithAttributes(
		attribute.String("email", logging.RedactEmail(email)),
	))
	defer span.End()

	if err := a.repo.DeleteVerificationByEmail(ctx, email); err != nil {
		otelx.RecordSpanError(span, err, "failed to delete verification")
		return errorx.Wrap(err, op)
	}
	return nil
}
