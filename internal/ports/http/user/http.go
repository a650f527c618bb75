package userhttp

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ARUMANDESU/validation"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	userapp "gitlab.com/sellcourse/sellcourse-backend/internal/application/user"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/role"
	"gitlab.com/sellcourse/sellcourse-backend/internal/ports/http/middlewares"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/ctxs"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/httpx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/i18nx"
)

var (
	tracer = otel.Tracer("sellcourse/internal/ports/http/user")
	logger = otelslog.NewLogger("sellcourse/internal/ports/http/user")
)

type HTTP struct {
	tracer     trace.Tracer
	logger     *slog.Logger
	app        *userapp.App
	middleware *middlewares.Middleware
	errhandler *httpx.ErrorHandler
}

type Args struct {
	Tracer     trace.Tracer
	Logger     *slog.Logger
	UserApp    *userapp.App
	Middleware *middlewares.Middleware
	Errhandler *httpx.ErrorHandler
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
		tracer:     args.Tracer,
		logger:     args.Logger,
		app:        args.UserApp,
		middleware: args.Middleware,
		errhandler: args.Errhandler,
	}
}

func (h *HTTP) Route(r chi.Router) {
	r.Route("/v1/users", func(r chi.Router) {
		r.Use(h.middleware.Auth)

		r.Get("/me", h.GetMe)
		r.With(h.middleware.RequireRole(role.Admin)).Patch("/{id}/role", h.ChangeRole)
	})
}

func UserResponse(u *user.User) httpx.Envelope {
	res := httpx.Envelope{
		"id":           u.ID(),
		"email":        u.Email(),
		"username":     u.Username(),
		"role":         u.Role(),
		"gender":       u.Gender(),
		"phone_number": u.PhoneNumber(),
		"created_at":   u.CreatedAt(),
		"updated_at":   u.UpdatedAt(),
	}
	if !u.BirthDate().IsZero() {
		res["birth_date"] = u.BirthDate().Format(time.DateOnly)
	}
	return res
}

func (h *HTTP) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetMe")
	defer span.End()

	ctxUser, ok := ctxs.UserFromCtx(ctx)
	if !ok {
		h.errhandler.HandleError(w, r, span, errorx.NewUnauthorized(), "failed to get user from context")
		return
	}
	ctxUser.SetSpanAttrs(span)

	u, err := h.app.GetMe(ctx, ctxUser.Email)
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to get profile")
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{"user": UserResponse(u)})
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

func (r *ChangeRoleRequest) Validate() error {
	return validation.Errors{
		i18nx.FieldRole: validation.Validate(r.Role, validation.Required, validation.Length(1, 32)),
	}.Filter()
}

func (h *HTTP) ChangeRole(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ChangeRole")
	defer span.End()

	ctxUser, ok := ctxs.UserFromCtx(ctx)
	if !ok {
		h.errhandler.HandleError(w, r, span, errorx.NewUnauthorized(), "failed to get user from context")
		return
	}
	ctxUser.SetSpanAttrs(span)

	id, err := user.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.errhandler.HandleError(w, r, span, user.ErrNotFound.WithCause(err), "invalid user id")
		return
	}

	var req ChangeRoleRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to read json")
		return
	}
	if err := req.Validate(); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to validate request body")
		return
	}

	u, err := h.app.ChangeRole(ctx, userapp.ChangeRole{
		ActorEmail: ctxUser.Email,
		UserID:     id,
		Role:       req.Role,
	})
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to change role")
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{
		"message": h.errhandler.Message(r, i18nx.KeyRoleChanged),
		"user":    UserResponse(u),
	})
}
