package userapp

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/role"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/logging"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/otelx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/sanitizex"
)

var (
	tracer = otel.Tracer("sellcourse/internal/application/user")
	logger = otelslog.NewLogger("sellcourse/internal/application/user")
)

var ErrOwnRole = errorx.NewForbidden()

type UserRepo interface {
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	UpdateUser(ctx context.Context, id user.ID, fn func(ctx context.Context, u *user.User) error) error
}

type App struct {
	tracer trace.Tracer
	logger *slog.Logger
	repo   UserRepo
}

type Args struct {
	Tracer trace.Tracer
	Logger *slog.Logger
	Repo   UserRepo
}

func NewApp(args Args) *App {
	if args.Repo == nil {
		panic("user repo cannot be nil")
	}
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	return &App{tracer: args.Tracer, logger: args.Logger, repo: args.Repo}
}

// GetMe returns the profile behind an authenticated subject.
func (a *App) GetMe(ctx context.Context, email string) (*user.User, error) {
	const op = "userapp.App.GetMe"
	email = sanitizex.CleanEmail(email)
	ctx, span := a.tracer.Start(ctx, "App.GetMe", trace.WithAttributes(
		attribute.String("user.email", logging.RedactEmail(email)),
	))
	defer span.End()

	u, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get user")
		return nil, errorx.Wrap(err, op)
	}
	return u, nil
}

type ChangeRole struct {
	ActorEmail string
	UserID     user.ID
	Role       string
}

// ChangeRole sets the role of another user. Admins cannot demote themselves.
func (a *App) ChangeRole(ctx context.Context, cmd ChangeRole) (*user.User, error) {
	const op = "userapp.App.ChangeRole"
	ctx, span := a.tracer.Start(ctx, "App.ChangeRole", trace.WithAttributes(
		attribute.String("user.id", cmd.UserID.String()),
		attribute.String("user.role", cmd.Role),
	))
	defer span.End()

	r, err := role.Parse(cmd.Role)
	if err != nil {
		otelx.RecordSpanError(span, err, "invalid role")
		return nil, errorx.Wrap(user.ErrInvalidRole.WithCause(err), op)
	}

	var updated *user.User
	err = a.repo.UpdateUser(ctx, cmd.UserID, func(_ context.Context, u *user.User) error {
		if u.Email() == sanitizex.CleanEmail(cmd.ActorEmail) {
			return ErrOwnRole
		}
		if err := u.ChangeRole(r); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to change role")
		return nil, errorx.Wrap(err, op)
	}

	a.logger.InfoContext(ctx, "user role changed",
		slog.String("user_id", cmd.UserID.String()),
		slog.String("role", r.String()),
		slog.String("by", logging.RedactEmail(cmd.ActorEmail)),
	)
	return updated, nil
}
