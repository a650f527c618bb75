package authhttp

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ARUMANDESU/validation"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	authapp "gitlab.com/sellcourse/sellcourse-backend/internal/application/auth"
	"gitlab.com/sellcourse/sellcourse-backend/internal/application/verification"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
	"gitlab.com/sellcourse/sellcourse-backend/internal/ports/http/middlewares"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/env"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/httpx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/i18nx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/logging"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/otelx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/sanitizex"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/validationx"
)

const (
	TokenType       = "Bearer"
	BirthDateLayout = time.DateOnly
)

var (
	tracer = otel.Tracer("sellcourse/internal/ports/http/auth")
	logger = otelslog.NewLogger("sellcourse/internal/ports/http/auth")
)

type HTTP struct {
	tracer       trace.Tracer
	logger       *slog.Logger
	app          *authapp.App
	verification *verification.App
	middleware   *middlewares.Middleware
	errhandler   *httpx.ErrorHandler
	mode         env.Mode
}

type Args struct {
	Tracer       trace.Tracer
	Logger       *slog.Logger
	App          *authapp.App
	Verification *verification.App
	Middleware   *middlewares.Middleware
	Errhandler   *httpx.ErrorHandler
	// Mode decides whether verification links are echoed back.
	Mode env.Mode
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
	if args.Mode == "" {
		args.Mode = env.Current()
	}

	return &HTTP{
		tracer:       args.Tracer,
		logger:       args.Logger,
		app:          args.App,
		verification: args.Verification,
		middleware:   args.Middleware,
		errhandler:   args.Errhandler,
		mode:         args.Mode,
	}
}

func (h *HTTP) Route(r chi.Router) {
	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/register", h.Register)
		r.Post("/send-verification", h.SendVerification)
		r.Get("/verify-email", h.VerifyEmail)
		r.With(h.middleware.Auth).Post("/logout", h.Logout)
	})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Sanitized() {
	r.Email = sanitizex.CleanEmail(r.Email)
}

func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, validation.Length(1, validationx.MaxEmailLen)),
		validation.Field(&r.Password, validationx.LoginPasswordRules...),
	)
}

func (h *HTTP) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Login")
	defer span.End()

	var req LoginRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to read json")
		return
	}
	req.Sanitized()
	span.SetAttributes(attribute.String("email", logging.RedactEmail(req.Email)))
	if err := req.Validate(); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to validate request body")
		return
	}

	res, err := h.app.LoginHandle(ctx, authapp.Login{Email: req.Email, Password: req.Password})
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to login")
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{
		"access_token":             res.AccessToken,
		"access_token_expires_at":  res.AccessExpiresAt,
		"refresh_token":            res.RefreshToken,
		"refresh_token_expires_at": res.RefreshExpiresAt,
		"token_type":               TokenType,
		"role":                     res.Role,
	})
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *RefreshRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RefreshToken, validation.Required, validation.Length(1, 4096)),
	)
}

func (h *HTTP) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Refresh")
	defer span.End()

	var req RefreshRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to read json")
		return
	}
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if err := req.Validate(); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to validate request body")
		return
	}

	res, err := h.app.RefreshHandle(ctx, authapp.Refresh{RefreshToken: req.RefreshToken})
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to refresh token")
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{
		"access_token":            res.AccessToken,
		"access_token_expires_at": res.AccessExpiresAt,
		"refresh_token":           res.RefreshToken,
		"token_type":              TokenType,
	})
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Username    string `json:"username"`
	Gender      string `json:"gender"`
	BirthDate   string `json:"birth_date"`
	PhoneNumber string `json:"phone_number"`
	Token       string `json:"token"`
}

func (r *RegisterRequest) Sanitized() {
	r.Email = sanitizex.CleanEmail(r.Email)
	r.Username = sanitizex.CleanSingleLine(r.Username)
	r.Gender = strings.ToUpper(sanitizex.CleanSingleLine(r.Gender))
	r.BirthDate = sanitizex.CleanSingleLine(r.BirthDate)
	r.PhoneNumber = sanitizex.CleanSingleLine(r.PhoneNumber)
	r.Token = sanitizex.CleanSingleLine(r.Token)
}

func (r *RegisterRequest) Validate() error {
	return validation.Errors{
		i18nx.FieldEmail:       validation.Validate(r.Email, validationx.EmailRules...),
		i18nx.FieldPassword:    validation.Validate(r.Password, validationx.PasswordRules...),
		i18nx.FieldUsername:    validation.Validate(r.Username, validationx.UsernameRules...),
		i18nx.FieldGender:      validation.Validate(r.Gender, validation.In("", "MALE", "FEMALE", "OTHER").ErrorObject(user.ErrInvalidGender)),
		i18nx.FieldBirthDate:   validation.Validate(r.BirthDate, validation.Date(BirthDateLayout)),
		i18nx.FieldPhoneNumber: validation.Validate(r.PhoneNumber, validationx.PhoneNumberRules...),
		i18nx.FieldToken:       validation.Validate(r.Token, validationx.VerificationTokenRules...),
	}.Filter()
}

func (h *HTTP) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Register")
	defer span.End()

	var req RegisterRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to read json")
		return
	}
	req.Sanitized()
	otelx.SetSpanAttrs(span, map[string]any{
		"email":    logging.RedactEmail(req.Email),
		"username": req.Username,
	})
	if err := req.Validate(); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to validate request body")
		return
	}

	var birthDate time.Time
	if req.BirthDate != "" {
		// already validated
		birthDate, _ = time.Parse(BirthDateLayout, req.BirthDate)
	}

	res, err := h.app.RegisterHandle(ctx, authapp.Register{
		Email:       req.Email,
		Password:    req.Password,
		Username:    req.Username,
		Gender:      user.Gender(req.Gender),
		BirthDate:   birthDate,
		PhoneNumber: req.PhoneNumber,
		Token:       req.Token,
	})
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to register")
		return
	}

	httpx.Success(w, r, http.StatusCreated, httpx.Envelope{
		"message": h.errhandler.Message(r, res.Message),
		"email":   res.Email,
	})
}

type SendVerificationRequest struct {
	Email string `json:"email"`
}

func (r *SendVerificationRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validationx.EmailRules...),
	)
}

func (h *HTTP) SendVerification(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SendVerification")
	defer span.End()

	var req SendVerificationRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to read json")
		return
	}
	req.Email = sanitizex.CleanEmail(req.Email)
	span.SetAttributes(attribute.String("email", logging.RedactEmail(req.Email)))
	if err := req.Validate(); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to validate request body")
		return
	}

	res, err := h.verification.RequestVerification(ctx, verification.RequestVerification{Email: req.Email})
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to request verification")
		return
	}

	data := httpx.Envelope{
		"message":    h.errhandler.Message(r, i18nx.KeyVerificationMailSent),
		"expires_at": res.ExpiresAt,
	}
	if h.mode.IsDevelopment() {
		data["url"] = res.URL
	}
	httpx.Success(w, r, http.StatusAccepted, data)
}

func (h *HTTP) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "VerifyEmail")
	defer span.End()

	token := sanitizex.CleanSingleLine(r.URL.Query().Get("token"))
	email := sanitizex.CleanEmail(r.URL.Query().Get("email"))
	span.SetAttributes(attribute.String("email", logging.RedactEmail(email)))

	valid, err := h.verification.Verify(ctx, token, email)
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to verify email")
		return
	}

	key := i18nx.KeyVerificationTokenValid
	if !valid {
		key = i18nx.KeyVerificationTokenFailed
	}
	httpx.Success(w, r, http.StatusOK, httpx.Envelope{
		"valid":   valid,
		"message": h.errhandler.Message(r, key),
	})
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *HTTP) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Logout")
	defer span.End()

	var req LogoutRequest
	if r.ContentLength != 0 {
		if err := httpx.ReadJSON(w, r, &req); err != nil {
			h.errhandler.HandleError(w, r, span, err, "failed to read json")
			return
		}
	}
	access, _ := middlewares.BearerToken(r)

	err := h.app.LogoutHandle(ctx, authapp.Logout{
		AccessToken:  access,
		RefreshToken: strings.TrimSpace(req.RefreshToken),
	})
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to logout")
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{
		"message": h.errhandler.Message(r, i18nx.KeyLogoutSuccess),
	})
}
