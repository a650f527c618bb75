package errorx

type Code string

func (c Code) String() string {
	return string(c)
}

const (
	// Success codes
	CodeSuccess Code = "SUCCESS"
	CodeCreated Code = "RESOURCE_CREATED"
	CodeDeleted Code = "RESOURCE_DELETED"

	// Client errors (4xx)
	CodeInvalid                  Code = "INVALID"
	CodeValidationFailed         Code = "VALIDATION_FAILED"
	CodeMalformedJSON            Code = "MALFORMED_JSON"
	CodeUnauthorized             Code = "UNAUTHORIZED"
	CodeInvalidCredentials       Code = "INVALID_CREDENTIALS"
	CodeTokenExpired             Code = "TOKEN_EXPIRED"
	CodeTokenInvalidSignature    Code = "TOKEN_INVALID_SIGNATURE"
	CodeTokenRevoked             Code = "TOKEN_REVOKED"
	CodeInvalidVerificationToken Code = "INVALID_VERIFICATION_TOKEN"
	CodeForbidden                Code = "FORBIDDEN"
	CodeNotFound                 Code = "NOT_FOUND"
	CodeMethodNotAllowed         Code = "METHOD_NOT_ALLOWED"
	CodeConflict                 Code = "CONFLICT"
	CodeDuplicateEntry           Code = "DUPLICATE_ENTRY"
	CodeEmailExists              Code = "EMAIL_EXISTS"
	CodeRateLimitExceeded        Code = "RATE_LIMIT_EXCEEDED"

	// Password validation
	CodePasswordFormatInvalid Code = "PASSWORD_FORMAT_INVALID"

	// Business logic
	CodeBusinessRuleViolation   Code = "BUSINESS_RULE_VIOLATION"
	CodeInsufficientPermissions Code = "INSUFFICIENT_PERMISSIONS"

	// Server errors (5xx)
	CodeInternal           Code = "INTERNAL_ERROR"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeUpstreamError      Code = "UPSTREAM_SERVICE_ERROR"
	CodeMailDeliveryFailed Code = "MAIL_DELIVERY_FAILED"
)
