package i18nx

// Error message keys
const (
	// Client errors
	KeyInvalid                   = "invalid"
	KeyValidationFailed          = "validation_failed"
	KeyValidationFailedField     = "validation_failed_field"
	KeyMalformedJSON             = "malformed_json"
	KeyUnauthorized              = "unauthorized"
	KeyForbidden                 = "forbidden"
	KeyInsufficientPermissions   = "insufficient_permissions"
	KeyNotFound                  = "not_found"
	KeyNotFoundWithType          = "not_found_with_type"
	KeyMethodNotAllowed          = "method_not_allowed"
	KeyConflict                  = "conflict"
	KeyDuplicateEntry            = "duplicate_entry"
	KeyDuplicateEntryWithField   = "duplicate_entry_with_field"
	KeyRateLimitExceeded         = "rate_limit_exceeded"
	KeyRateLimitExceededWithTime = "rate_limit_exceeded_with_time"

	// Password validation
	KeyPasswordFormatInvalid = "password_format_invalid"

	// Business logic errors
	KeyBusinessRuleViolation = "business_rule_violation"

	// Server errors
	KeyInternalError        = "internal_error"
	KeyServiceUnavailable   = "service_unavailable"
	KeyUpstreamServiceError = "upstream_service_error"
	KeyMailDeliveryFailed   = "mail_delivery_failed"

	// Authentication specific
	KeyInvalidCredentials    = "invalid_credentials"
	KeyTokenExpired          = "token_expired"
	KeyTokenInvalidSignature = "token_invalid_signature"
	KeyTokenRevoked          = "token_revoked"
	KeyWrongTokenType        = "wrong_token_type"
	KeyMissingBearerToken    = "missing_bearer_token"

	// Registration specific
	KeyEmailExists              = "email_exists"
	KeyInvalidVerificationToken = "invalid_verification_token"
	KeyInvalidRole              = "invalid_role"

	// Courses
	KeyCourseImageTooLarge = "course_image_too_large"
	KeyCourseImageType     = "course_image_type"
)

// Success message keys
const (
	KeyRegisterSuccess         = "register_success"
	KeyVerificationMailSent    = "verification_mail_sent"
	KeyLogoutSuccess           = "logout_success"
	KeyCourseDeleted           = "course_deleted"
	KeyRoleChanged             = "role_changed"
	KeyVerificationTokenValid  = "verification_token_valid"
	KeyVerificationTokenFailed = "verification_token_invalid"
)

// Validation message keys
const (
	ValidationRequired           = "validation_required"
	ValidationNilOrNotEmpty      = "validation_nil_or_not_empty_required"
	ValidationInInvalid          = "validation_in_invalid"
	ValidationMatchInvalid       = "validation_match_invalid"
	ValidationLengthTooLong      = "validation_length_too_long"
	ValidationLengthTooShort     = "validation_length_too_short"
	ValidationLengthInvalid      = "validation_length_invalid"
	ValidationLengthOutOfRange   = "validation_length_out_of_range"
	ValidationMinGreaterEqual    = "validation_min_greater_equal_than_required"
	ValidationMaxLessEqual       = "validation_max_less_equal_than_required"
	ValidationDateInvalid        = "validation_date_invalid"
	ValidationIsEmail            = "validation_is_email"
	ValidationIsPassword         = "validation_is_password"
	ValidationIsName             = "validation_is_name"
	ValidationIsPhoneNumber      = "validation_is_phone_number"
	ValidationIsGender           = "validation_is_gender"
	ValidationIsRole             = "validation_is_role"
	ValidationIsBirthDateInPast  = "validation_is_birth_date_in_past"
	ValidationIsVerificationCode = "validation_is_verification_token"
)

// Field name keys
const (
	FieldEmail             = "email"
	FieldPassword          = "password"
	FieldUsername          = "username"
	FieldGender            = "gender"
	FieldBirthDate         = "birth_date"
	FieldPhoneNumber       = "phone_number"
	FieldToken             = "token"
	FieldRefreshToken      = "refresh_token"
	FieldRole              = "role"
	FieldCourseTitle       = "title"
	FieldCourseDescription = "description"
	FieldCoursePrice       = "price"
)

// Template argument keys
const (
	ArgField        = "Field"
	ArgResourceType = "ResourceType"
	ArgRetryAfter   = "RetryAfter"
)
