package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/sellcourse/sellcourse-backend/internal/adapters/services/tokens"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/role"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/ctxs"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/httpx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/i18nx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/logging"
)

var (
	tracer = otel.Tracer("sellcourse/internal/ports/http/middlewares")
	logger = otelslog.NewLogger("sellcourse/internal/ports/http/middlewares")
)

var (
	ErrMissingBearerToken = errorx.NewUnauthorized().WithKey(i18nx.KeyMissingBearerToken)
	ErrInsufficientRole   = errorx.NewInsufficientPermissions()
)

type AccessTokenVerifier interface {
	VerifyType(token string, typ tokens.Type) (*tokens.Claims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type UserGetter interface {
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
}

type Middleware struct {
	tracer     trace.Tracer
	logger     *slog.Logger
	tokens     AccessTokenVerifier
	revoked    RevocationChecker
	users      UserGetter
	errhandler *httpx.ErrorHandler
}

type Args struct {
	Tracer     trace.Tracer
	Logger     *slog.Logger
	Tokens     AccessTokenVerifier
	Revoked    RevocationChecker
	Users      UserGetter
	Errhandler *httpx.ErrorHandler
}

func NewMiddleware(args Args) *Middleware {
	m := &Middleware{
		tracer:     args.Tracer,
		logger:     args.Logger,
		tokens:     args.Tokens,
		revoked:    args.Revoked,
		users:      args.Users,
		errhandler: args.Errhandler,
	}

	if m.tracer == nil {
		m.tracer = tracer
	}
	if m.logger == nil {
		m.logger = logger
	}
	if m.tokens == nil || m.revoked == nil || m.users == nil {
		panic("auth middleware dependencies cannot be nil")
	}
	if m.errhandler == nil {
		m.errhandler = httpx.NewErrorHandler()
	}
	return m
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Auth resolves the caller from a bearer access token. The role comes from
// the token, the id from the stored user.
func (m *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := m.tracer.Start(r.Context(), "AuthMiddleware")
		defer span.End()

		raw, ok := BearerToken(r)
		if !ok {
			m.errhandler.HandleError(w, r, span, ErrMissingBearerToken, "missing bearer token")
			return
		}

		claims, err := m.tokens.VerifyType(raw, tokens.TypeAccess)
		if err != nil {
			m.errhandler.HandleError(w, r, span, err, "invalid access token")
			return
		}

		revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			m.errhandler.HandleError(w, r, span, err, "failed to check token revocation")
			return
		}
		if revoked {
			m.errhandler.HandleError(w, r, span, errorx.NewTokenRevoked(), "access token revoked")
			return
		}

		u, err := m.users.GetUserByEmail(ctx, claims.Subject)
		if err != nil {
			if errorx.IsNotFound(err) {
				err = errorx.NewUnauthorized().WithCause(err)
			}
			m.errhandler.HandleError(w, r, span, err, "failed to resolve token subject")
			return
		}

		span.SetAttributes(
			attribute.String("user.id", u.ID().String()),
			attribute.String("user.email", logging.RedactEmail(claims.Subject)),
			attribute.String("user.role", claims.Role.String()),
		)

		ctx = ctxs.WithUser(ctx, &ctxs.User{
			ID:      u.ID(),
			Email:   claims.Subject,
			Role:    claims.Role,
			TokenID: claims.ID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects callers whose token role is not one of roles. It must
// run after Auth.
func (m *Middleware) RequireRole(roles ...role.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := ctxs.UserFromCtx(r.Context())
			if !ok {
				span := trace.SpanFromContext(r.Context())
				m.errhandler.HandleError(w, r, span, ErrMissingBearerToken, "no authenticated user")
				return
			}
			if !u.Role.In(roles...) {
				span := trace.SpanFromContext(r.Context())
				m.errhandler.HandleError(w, r, span, ErrInsufficientRole, "role not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
