package validationx

import (
	"github.com/ARUMANDESU/validation"
	"github.com/ARUMANDESU/validation/is"
)

const (
	MinPasswordLen = 8
	MaxPasswordLen = 72 // bcrypt ignores bytes past 72
	MinUsernameLen = 3
	MaxUsernameLen = 50
	MaxEmailLen    = 254
)

var (
	EmailRules = []validation.Rule{
		validation.Required,
		validation.Length(5, MaxEmailLen),
		is.EmailFormat,
	}

	// LoginPasswordRules only bound the input; format is checked at registration.
	LoginPasswordRules = []validation.Rule{
		validation.Required,
		validation.Length(1, MaxPasswordLen),
	}

	PasswordRules = []validation.Rule{
		validation.Required,
		validation.Length(MinPasswordLen, MaxPasswordLen),
		PasswordFormat,
	}

	UsernameRules = []validation.Rule{
		validation.Required,
		validation.Length(MinUsernameLen, MaxUsernameLen),
		IsPersonName,
	}

	PhoneNumberRules = []validation.Rule{
		IsPhoneNumber,
	}

	VerificationTokenRules = []validation.Rule{
		validation.Required,
		validation.Length(16, 128),
		is.Alphanumeric,
	}
)
