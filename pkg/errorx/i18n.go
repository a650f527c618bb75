package errorx

import (
	"errors"
	"fmt"
	"maps"
	"net/http"

	"github.com/nicksnyder/go-i18n/v2/i18n"

	"gitlab.com/sellcourse/sellcourse-backend/pkg/i18nx"
)

// I18nError is an error with a stable code and a localizable message.
//
// The With* methods return copies, so package level error values can be
// shared between goroutines and still be decorated per call.
type I18nError struct {
	cause              error
	MessageKey         string
	MessageArgs        map[string]any
	MessagePluralCount any
	HTTPCode           int
	Code               Code
}

func (e *I18nError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.MessageKey)
	}

	return fmt.Sprintf("[%s] %s: %s", e.Code, e.MessageKey, e.cause)
}

func (e *I18nError) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *I18nError with the same code and message key.
func (e *I18nError) Is(target error) bool {
	t, ok := target.(*I18nError)
	if !ok {
		return false
	}
	if e == nil || t == nil {
		return e == t
	}
	return e.Code == t.Code && e.MessageKey == t.MessageKey
}

func (e *I18nError) Localize(localizer *i18n.Localizer) string {
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    e.MessageKey,
		TemplateData: e.MessageArgs,
		PluralCount:  e.MessagePluralCount,
	})
	if err != nil {
		return e.MessageKey
	}
	return msg
}

func (e *I18nError) HTTPStatusCode() int {
	if e.HTTPCode != 0 {
		return e.HTTPCode
	}

	return HTTPStatusCode(e.Code)
}

func (e *I18nError) clone() *I18nError {
	c := *e
	if e.MessageArgs != nil {
		c.MessageArgs = maps.Clone(e.MessageArgs)
	}
	return &c
}

func (e *I18nError) WithHTTPCode(code int) *I18nError {
	c := e.clone()
	c.HTTPCode = code
	return c
}

func (e *I18nError) WithArgs(args map[string]any) *I18nError {
	c := e.clone()
	if c.MessageArgs == nil {
		c.MessageArgs = make(map[string]any, len(args))
	}
	maps.Copy(c.MessageArgs, args)
	return c
}

func (e *I18nError) WithCause(cause error) *I18nError {
	c := e.clone()
	c.cause = cause
	return c
}

func (e *I18nError) WithKey(key string) *I18nError {
	c := e.clone()
	c.MessageKey = key
	return c
}

func (e *I18nError) WithCode(code Code) *I18nError {
	c := e.clone()
	c.Code = code
	return c
}

func New(messageKey string) *I18nError {
	return &I18nError{
		MessageKey:  messageKey,
		MessageArgs: make(map[string]any),
		HTTPCode:    http.StatusInternalServerError,
		Code:        CodeInternal,
	}
}

func HTTPStatusCode(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalid, CodeValidationFailed, CodeMalformedJSON, CodePasswordFormatInvalid:
		return http.StatusBadRequest
	case CodeConflict, CodeDuplicateEntry, CodeEmailExists:
		return http.StatusConflict
	case CodeUnauthorized, CodeInvalidCredentials, CodeTokenExpired, CodeTokenInvalidSignature, CodeTokenRevoked:
		return http.StatusUnauthorized
	case CodeForbidden, CodeInsufficientPermissions:
		return http.StatusForbidden
	case CodeInvalidVerificationToken, CodeBusinessRuleViolation:
		return http.StatusUnprocessableEntity
	case CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case CodeUpstreamError, CodeMailDeliveryFailed:
		return http.StatusBadGateway
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func IsCode(err error, code Code) bool {
	if err == nil {
		return false
	}

	var i18nErr *I18nError
	if errors.As(err, &i18nErr) {
		return i18nErr.Code == code
	}

	return false
}

func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

func IsDuplicateEntry(err error) bool {
	return IsCode(err, CodeDuplicateEntry)
}

func newErr(key string, code Code) *I18nError {
	return &I18nError{
		MessageKey: key,
		Code:       code,
		HTTPCode:   HTTPStatusCode(code),
	}
}

// Client Errors (4xx)
func NewInvalidRequest() *I18nError {
	return newErr(i18nx.KeyInvalid, CodeInvalid)
}

func NewValidationFailed() *I18nError {
	return newErr(i18nx.KeyValidationFailed, CodeValidationFailed)
}

func NewValidationFieldFailed(field string) *I18nError {
	return newErr(i18nx.KeyValidationFailedField, CodeValidationFailed).
		WithArgs(map[string]any{i18nx.ArgField: field})
}

func NewMalformedJSON() *I18nError {
	return newErr(i18nx.KeyMalformedJSON, CodeMalformedJSON)
}

func NewUnauthorized() *I18nError {
	return newErr(i18nx.KeyUnauthorized, CodeUnauthorized)
}

func NewInvalidCredentials() *I18nError {
	return newErr(i18nx.KeyInvalidCredentials, CodeInvalidCredentials)
}

func NewTokenExpired() *I18nError {
	return newErr(i18nx.KeyTokenExpired, CodeTokenExpired)
}

func NewTokenInvalidSignature() *I18nError {
	return newErr(i18nx.KeyTokenInvalidSignature, CodeTokenInvalidSignature)
}

func NewTokenRevoked() *I18nError {
	return newErr(i18nx.KeyTokenRevoked, CodeTokenRevoked)
}

func NewInvalidVerificationToken() *I18nError {
	return newErr(i18nx.KeyInvalidVerificationToken, CodeInvalidVerificationToken)
}

func NewForbidden() *I18nError {
	return newErr(i18nx.KeyForbidden, CodeForbidden)
}

func NewInsufficientPermissions() *I18nError {
	return newErr(i18nx.KeyInsufficientPermissions, CodeInsufficientPermissions)
}

func NewNotFound() *I18nError {
	return newErr(i18nx.KeyNotFound, CodeNotFound)
}

func NewResourceNotFound(resourceType string) *I18nError {
	return newErr(i18nx.KeyNotFoundWithType, CodeNotFound).
		WithArgs(map[string]any{i18nx.ArgResourceType: resourceType})
}

func NewMethodNotAllowed() *I18nError {
	return newErr(i18nx.KeyMethodNotAllowed, CodeMethodNotAllowed).WithHTTPCode(http.StatusMethodNotAllowed)
}

func NewConflict() *I18nError {
	return newErr(i18nx.KeyConflict, CodeConflict)
}

func NewDuplicateEntry() *I18nError {
	return newErr(i18nx.KeyDuplicateEntry, CodeDuplicateEntry)
}

func NewDuplicateEntryWithField(resourceType, field string) *I18nError {
	return newErr(i18nx.KeyDuplicateEntryWithField, CodeDuplicateEntry).
		WithArgs(map[string]any{
			i18nx.ArgResourceType: resourceType,
			i18nx.ArgField:        field,
		})
}

func NewEmailExists() *I18nError {
	return newErr(i18nx.KeyEmailExists, CodeEmailExists)
}

func NewRateLimitExceeded() *I18nError {
	return newErr(i18nx.KeyRateLimitExceeded, CodeRateLimitExceeded)
}

func NewRateLimitExceededWithRetry(retryAfter int) *I18nError {
	return newErr(i18nx.KeyRateLimitExceededWithTime, CodeRateLimitExceeded).
		WithArgs(map[string]any{i18nx.ArgRetryAfter: retryAfter})
}

func NewPasswordFormatInvalid() *I18nError {
	return newErr(i18nx.KeyPasswordFormatInvalid, CodePasswordFormatInvalid)
}

func NewBusinessRuleViolation() *I18nError {
	return newErr(i18nx.KeyBusinessRuleViolation, CodeBusinessRuleViolation)
}

// Server Errors (5xx)
func NewInternalError() *I18nError {
	return newErr(i18nx.KeyInternalError, CodeInternal)
}

func NewServiceUnavailable() *I18nError {
	return newErr(i18nx.KeyServiceUnavailable, CodeServiceUnavailable)
}

func NewUpstreamServiceError() *I18nError {
	return newErr(i18nx.KeyUpstreamServiceError, CodeUpstreamError)
}

func NewMailDeliveryFailed() *I18nError {
	return newErr(i18nx.KeyMailDeliveryFailed, CodeMailDeliveryFailed)
}

// DB
func NewNoRowsAffected() *I18nError {
	return newErr(i18nx.KeyNotFound, CodeNotFound)
}
