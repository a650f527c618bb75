package authapp

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ARUMANDESU/validation"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/sellcourse/sellcourse-backend/internal/adapters/services/tokens"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/role"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/i18nx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/logging"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/otelx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/sanitizex"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/validationx"
)

var (
	tracer = otel.Tracer("sellcourse/internal/application/auth")
	logger = otelslog.NewLogger("sellcourse/internal/application/auth")
)

var (
	// ErrInvalidCredentials is returned for a missing user and for a wrong
	// password alike.
	ErrInvalidCredentials   = errorx.NewInvalidCredentials()
	ErrEmailExists          = errorx.NewEmailExists()
	ErrInvalidVerification  = errorx.NewInvalidVerificationToken()
	ErrTokenRevoked         = errorx.NewTokenRevoked()
	ErrTokenSubjectMismatch = errorx.NewForbidden()
)

// dummyPasswordHash is compared against when the email is unknown.
var dummyPasswordHash = sync.OnceValues(func() ([]byte, error) {
	return user.NewPasswordHash("Sellcourse-dummy-passw0rd!")
})

type UserRepo interface {
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	SaveUser(ctx context.Context, u *user.User) error
}

type Verifier interface {
	Verify(ctx context.Context, token, email string) (bool, error)
	Consume(ctx context.Context, email string) error
}

type TokenService interface {
	IssueAccessToken(subject string, r role.Role) (tokens.Token, error)
	IssueRefreshToken(subject string) (tokens.Token, error)
	VerifyType(token string, typ tokens.Type) (*tokens.Claims, error)
	ExtractSubject(token string) (string, error)
}

type Revoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type App struct {
	tracer   trace.Tracer
	logger   *slog.Logger
	users    UserRepo
	verifier Verifier
	tokens   TokenService
	revoker  Revoker
}

type Args struct {
	Tracer   trace.Tracer
	Logger   *slog.Logger
	Users    UserRepo
	Verifier Verifier
	Tokens   TokenService
	Revoker  Revoker
}

func NewApp(args Args) *App {
	if args.Users == nil || args.Verifier == nil || args.Tokens == nil || args.Revoker == nil {
		panic("auth app dependencies cannot be nil")
	}
	app := &App{
		tracer:   args.Tracer,
		logger:   args.Logger,
		users:    args.Users,
		verifier: args.Verifier,
		tokens:   args.Tokens,
		revoker:  args.Revoker,
	}
	if app.tracer == nil {
		app.tracer = tracer
	}
	if app.logger == nil {
		app.logger = logger
	}
	return app
}

type Login struct {
	Email    string
	Password string
}

type LoginResponse struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	Role             role.Role
}

// LoginHandle checks the password and issues an access and a refresh token.
// An unknown email still pays for a bcrypt comparison.
func (a *App) LoginHandle(ctx context.Context, cmd Login) (LoginResponse, error) {
	const op = "authapp.App.LoginHandle"
	email := sanitizex.CleanEmail(cmd.Email)
	ctx, span := a.tracer.Start(ctx, "App.LoginHandle", trace.WithAttributes(
		attribute.String("user.email", logging.RedactEmail(email)),
	))
	defer span.End()

	u, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errorx.IsNotFound(err) {
			otelx.RecordSpanError(span, err, "failed to get user")
			return LoginResponse{}, errorx.Wrap(err, op)
		}
		if hash, hashErr := dummyPasswordHash(); hashErr == nil {
			_ = user.Rehydrate(user.RehydrateArgs{PassHash: hash}).ComparePassword(cmd.Password)
		}
		otelx.RecordSpanError(span, err, "user not found")
		return LoginResponse{}, errorx.Wrap(ErrInvalidCredentials.WithCause(err), op)
	}

	if err := u.ComparePassword(cmd.Password); err != nil {
		otelx.RecordSpanError(span, err, "password mismatch")
		return LoginResponse{}, errorx.Wrap(ErrInvalidCredentials.WithCause(err), op)
	}

	access, err := a.tokens.IssueAccessToken(u.Email(), u.Role())
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to issue access token")
		return LoginResponse{}, errorx.Wrap(err, op)
	}
	refresh, err := a.tokens.IssueRefreshToken(u.Email())
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to issue refresh token")
		return LoginResponse{}, errorx.Wrap(err, op)
	}

	a.logger.InfoContext(ctx, "user logged in", logging.Email(u.Email()), slog.String("role", u.Role().String()))

	return LoginResponse{
		AccessToken:      access.Value,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshToken:     refresh.Value,
		RefreshExpiresAt: refresh.ExpiresAt,
		Role:             u.Role(),
	}, nil
}

type Refresh struct {
	RefreshToken string
}

type RefreshResponse struct {
	AccessToken     string
	AccessExpiresAt time.Time
	// RefreshToken is the presented token, returned unchanged.
	RefreshToken string
}

// RefreshHandle issues a new access token carrying the user's current role.
func (a *App) RefreshHandle(ctx context.Context, cmd Refresh) (RefreshResponse, error) {
	const op = "authapp.App.RefreshHandle"
	ctx, span := a.tracer.Start(ctx, "App.RefreshHandle")
	defer span.End()

	subject, err := a.tokens.ExtractSubject(cmd.RefreshToken)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to extract subject")
		return RefreshResponse{}, errorx.Wrap(err, op)
	}
	span.SetAttributes(attribute.String("user.email", logging.RedactEmail(subject)))

	u, err := a.users.GetUserByEmail(ctx, subject)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get user")
		if errorx.IsNotFound(err) {
			return RefreshResponse{}, errorx.Wrap(ErrInvalidCredentials.WithCause(err), op)
		}
		return RefreshResponse{}, errorx.Wrap(err, op)
	}

	claims, err := a.tokens.VerifyType(cmd.RefreshToken, tokens.TypeRefresh)
	if err != nil {
		otelx.RecordSpanError(span, err, "invalid refresh token")
		return RefreshResponse{}, errorx.Wrap(err, op)
	}

	revoked, err := a.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to check revocation")
		return RefreshResponse{}, errorx.Wrap(err, op)
	}
	if revoked {
		otelx.RecordSpanError(span, ErrTokenRevoked, "refresh token revoked")
		return RefreshResponse{}, errorx.Wrap(ErrTokenRevoked, op)
	}

	access, err := a.tokens.IssueAccessToken(u.Email(), u.Role())
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to issue access token")
		return RefreshResponse{}, errorx.Wrap(err, op)
	}

	return RefreshResponse{
		AccessToken:     access.Value,
		AccessExpiresAt: access.ExpiresAt,
		RefreshToken:    cmd.RefreshToken,
	}, nil
}

type Register struct {
	Email       string
	Password    string
	Username    string
	Gender      user.Gender
	BirthDate   time.Time
	PhoneNumber string
	Token       string
}

type Confirmation struct {
	// Message is an i18n key.
	Message string
	Email   string
}

// RegisterHandle creates a CUSTOMER once the email has been proven with a
// verification token, then consumes the verification record.
func (a *App) RegisterHandle(ctx context.Context, cmd Register) (Confirmation, error) {
	const op = "authapp.App.RegisterHandle"
	email := sanitizex.CleanEmail(cmd.Email)
	ctx, span := a.tracer.Start(ctx, "App.RegisterHandle", trace.WithAttributes(
		attribute.String("user.email", logging.RedactEmail(email)),
	))
	defer span.End()

	exists, err := a.users.ExistsByEmail(ctx, email)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to check email")
		return Confirmation{}, errorx.Wrap(err, op)
	}
	if exists {
		otelx.RecordSpanError(span, ErrEmailExists, "email already registered")
		return Confirmation{}, errorx.Wrap(ErrEmailExists, op)
	}

	ok, err := a.verifier.Verify(ctx, cmd.Token, email)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to verify token")
		return Confirmation{}, errorx.Wrap(err, op)
	}
	if !ok {
		otelx.RecordSpanError(span, ErrInvalidVerification, "verification token rejected")
		return Confirmation{}, errorx.Wrap(ErrInvalidVerification, op)
	}

	err = validation.Errors{
		i18nx.FieldPassword: validation.Validate(cmd.Password, validationx.PasswordRules...),
	}.Filter()
	if err != nil {
		otelx.RecordSpanError(span, err, "invalid password")
		return Confirmation{}, errorx.Wrap(err, op)
	}

	passHash, err := user.NewPasswordHash(cmd.Password)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to hash password")
		return Confirmation{}, errorx.Wrap(err, op)
	}

	u, err := user.Register(user.RegisterArgs{
		ID:          user.NewID(),
		Email:       email,
		PassHash:    passHash,
		Username:    sanitizex.CleanSingleLine(cmd.Username),
		Gender:      cmd.Gender,
		BirthDate:   cmd.BirthDate,
		PhoneNumber: sanitizex.CleanSingleLine(cmd.PhoneNumber),
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to build user")
		return Confirmation{}, errorx.Wrap(err, op)
	}

	if err := a.users.SaveUser(ctx, u); err != nil {
		otelx.RecordSpanError(span, err, "failed to save user")
		if errorx.IsCode(err, errorx.CodeEmailExists) || errorx.IsDuplicateEntry(err) {
			return Confirmation{}, errorx.Wrap(ErrEmailExists.WithCause(err), op)
		}
		return Confirmation{}, errorx.Wrap(err, op)
	}

	if err := a.verifier.Consume(ctx, email); err != nil {
		a.logger.WarnContext(ctx, "failed to consume verification after registration",
			logging.Email(email),
			slog.String("error", err.Error()),
		)
	}

	a.logger.InfoContext(ctx, "user registered", logging.Email(email), slog.String("user_id", u.ID().String()))

	return Confirmation{Message: i18nx.KeyRegisterSuccess, Email: email}, nil
}

type Logout struct {
	AccessToken  string
	RefreshToken string
}

// LogoutHandle revokes the presented tokens by jti until they would expire
// anyway. An already expired refresh token is ignored.
func (a *App) LogoutHandle(ctx context.Context, cmd Logout) error {
	const op = "authapp.App.LogoutHandle"
	ctx, span := a.tracer.Start(ctx, "App.LogoutHandle", trace.WithAttributes(
		attribute.Bool("logout.with_refresh", cmd.RefreshToken != ""),
	))
	defer span.End()

	access, err := a.tokens.VerifyType(cmd.AccessToken, tokens.TypeAccess)
	if err != nil {
		otelx.RecordSpanError(span, err, "invalid access token")
		return errorx.Wrap(err, op)
	}

	var refresh *tokens.Claims
	if cmd.RefreshToken != "" {
		refresh, err = a.tokens.VerifyType(cmd.RefreshToken, tokens.TypeRefresh)
		switch {
		case errorx.IsCode(err, errorx.CodeTokenExpired):
			refresh = nil
		case err != nil:
			otelx.RecordSpanError(span, err, "invalid refresh token")
			return errorx.Wrap(err, op)
		case refresh.Subject != access.Subject:
			otelx.RecordSpanError(span, ErrTokenSubjectMismatch, "refresh token belongs to another user")
			return errorx.Wrap(ErrTokenSubjectMismatch, op)
		}
	}

	for _, c := range []*tokens.Claims{access, refresh} {
		if c == nil || c.ExpiresAt == nil {
			continue
		}
		if err := a.revoker.Revoke(ctx, c.ID, c.ExpiresAt.Time); err != nil {
			otelx.RecordSpanError(span, err, "failed to revoke token")
			return errorx.Wrap(err, op)
		}
	}

	a.logger.InfoContext(ctx, "user logged out", logging.Email(access.Subject))
	return nil
}
