package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/ARUMANDESU/validation"
	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	sellcourse "gitlab.com/sellcourse/sellcourse-backend"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/otelx"
)

var supportedLangs = []language.Tag{language.English, language.Vietnamese}

type ErrorHandler struct {
	bundle     *i18n.Bundle
	matcher    language.Matcher
	localizers map[language.Tag]*i18n.Localizer
	logger     *slog.Logger
}

func NewErrorHandler() *ErrorHandler {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range []string{
		"locales/en.toml",
		"locales/vi.toml",
		"locales/validation.en.toml",
		"locales/validation.vi.toml",
	} {
		if _, err := bundle.LoadMessageFileFS(sellcourse.Locales, file); err != nil {
			panic(err)
		}
	}

	h := &ErrorHandler{
		bundle:     bundle,
		matcher:    language.NewMatcher(supportedLangs),
		localizers: make(map[language.Tag]*i18n.Localizer, len(supportedLangs)),
		logger:     slog.Default(),
	}
	for _, tag := range supportedLangs {
		h.localizers[tag] = i18n.NewLocalizer(bundle, tag.String())
	}

	return h
}

// Localizer picks the best supported language for an Accept-Language value.
func (h *ErrorHandler) Localizer(acceptLanguage string) *i18n.Localizer {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return h.localizers[language.English]
	}
	_, idx, _ := h.matcher.Match(tags...)
	return h.localizers[supportedLangs[idx]]
}

func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, span trace.Span, err error, desc string) {
	otelx.RecordSpanError(span, err, desc)

	localizer := h.Localizer(r.Header.Get("Accept-Language"))

	var appErr *errorx.I18nError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatusCode()
		h.log(r, status, desc, err)
		writeError(w, r, appErr.Code, appErr.Localize(localizer), status, nil)
		return
	}

	var valErrs validation.Errors
	if errors.As(err, &valErrs) {
		h.log(r, http.StatusBadRequest, desc, err)
		fields := h.localizeErrors(localizer, valErrs)
		writeError(w, r,
			errorx.CodeValidationFailed,
			joinFieldErrors(fields),
			http.StatusBadRequest,
			fields,
		)
		return
	}

	var valErr validation.Error
	if errors.As(err, &valErr) {
		h.log(r, http.StatusBadRequest, desc, err)
		writeError(w, r,
			errorx.CodeValidationFailed,
			localizeValidation(localizer, valErr),
			http.StatusBadRequest,
			nil,
		)
		return
	}

	h.log(r, http.StatusInternalServerError, desc, err)
	internalErr := errorx.NewInternalError().WithCause(err)
	writeError(w, r,
		internalErr.Code,
		internalErr.Localize(localizer),
		internalErr.HTTPStatusCode(),
		nil,
	)
}

func (h *ErrorHandler) log(r *http.Request, status int, desc string, err error) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, desc,
		slog.Int("status", status),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
}

func (h *ErrorHandler) localizeErrors(localizer *i18n.Localizer, errs validation.Errors) map[string]string {
	out := make(map[string]string, len(errs))
	for field, fieldErr := range errs {
		var nested validation.Errors
		var valErr validation.Error
		var appErr *errorx.I18nError
		switch {
		case errors.As(fieldErr, &appErr):
			out[field] = appErr.Localize(localizer)
		case errors.As(fieldErr, &nested):
			for sub, msg := range h.localizeErrors(localizer, nested) {
				out[field+"."+sub] = msg
			}
		case errors.As(fieldErr, &valErr):
			out[field] = localizeValidation(localizer, valErr)
		default:
			out[field] = fieldErr.Error()
		}
	}
	return out
}

func localizeValidation(localizer *i18n.Localizer, valErr validation.Error) string {
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    valErr.Code(),
		TemplateData: valErr.Params(),
	})
	if err != nil {
		return valErr.Error()
	}
	return msg
}

func joinFieldErrors(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fields[k]))
	}
	return strings.Join(parts, "; ")
}

func writeError(w http.ResponseWriter, r *http.Request,
	code errorx.Code,
	message string,
	status int,
	fields map[string]string,
) {
	response := Envelope{
		"code":    code,
		"message": message,
		"success": false,
	}
	if len(fields) > 0 {
		response["errors"] = fields
	}

	err := WriteJSON(w, status, response, nil)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to write error response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// Message localizes a plain message key for the request language.
func (h *ErrorHandler) Message(r *http.Request, key string) string {
	msg, err := h.Localizer(r.Header.Get("Accept-Language")).Localize(&i18n.LocalizeConfig{MessageID: key})
	if err != nil {
		return key
	}
	return msg
}
