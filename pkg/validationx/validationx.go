package validationx

import (
	"errors"
	"reflect"
	"regexp"
	"testing"
	"time"
	"unicode"

	"github.com/ARUMANDESU/validation"

	"gitlab.com/sellcourse/sellcourse-backend/pkg/i18nx"
)

var (
	ErrInvalidPasswordFormat = validation.NewError(
		i18nx.ValidationIsPassword,
		"must contain an uppercase letter, a lowercase letter, a digit and a special character",
	)
	ErrInvalidNameFormat = validation.NewError(
		i18nx.ValidationIsName,
		"must contain only letters, digits, spaces, hyphens, apostrophes and periods",
	)
	ErrInvalidPhoneNumber = validation.NewError(
		i18nx.ValidationIsPhoneNumber,
		"must be a valid phone number",
	)
	ErrBirthDateInFuture = validation.NewError(
		i18nx.ValidationIsBirthDateInPast,
		"must be in the past",
	)
)

var (
	PasswordFormat = PasswordFormatRule{}
	// Required also treats the nil uuid as empty. Use it for ids.
	Required = RequiredRule{}
)

var (
	nameRx  = regexp.MustCompile(`^[\p{L}\p{M}\p{N}\s'\-\._]+$`)
	phoneRx = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

var IsPersonName = validation.By(func(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !nameRx.MatchString(s) {
		return ErrInvalidNameFormat
	}
	return nil
})

var IsPhoneNumber = validation.By(func(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !phoneRx.MatchString(s) {
		return ErrInvalidPhoneNumber
	}
	return nil
})

// IsPastDate rejects dates after today. Zero times pass.
var IsPastDate = validation.By(func(value any) error {
	value, isNil := validation.Indirect(value)
	if isNil {
		return nil
	}
	t, ok := value.(time.Time)
	if !ok || t.IsZero() {
		return nil
	}
	if t.After(time.Now()) {
		return ErrBirthDateInFuture
	}
	return nil
})

type PasswordFormatRule struct{}

// Validate requires at least one lowercase letter, one uppercase letter, one
// digit and one punctuation or symbol rune. Other runes are rejected.
func (r PasswordFormatRule) Validate(value any) error {
	password, ok := value.(string)
	if !ok {
		return ErrInvalidPasswordFormat
	}

	if len(password) < MinPasswordLen {
		return ErrInvalidPasswordFormat
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, char := range password {
		switch {
		case char >= 'a' && char <= 'z':
			hasLower = true
		case char >= 'A' && char <= 'Z':
			hasUpper = true
		case char >= '0' && char <= '9':
			hasDigit = true
		case char < unicode.MaxASCII && (unicode.IsPunct(char) || unicode.IsSymbol(char)):
			hasSpecial = true
		default:
			return ErrInvalidPasswordFormat
		}
	}

	if !hasLower || !hasUpper || !hasDigit || !hasSpecial {
		return ErrInvalidPasswordFormat
	}

	return nil
}

type RequiredRule struct{}

func (r RequiredRule) Validate(value any) error {
	value, isNil := validation.Indirect(value)
	if isNil || isEmpty(value) {
		return validation.ErrRequired
	}

	return nil
}

func isEmpty(value any) bool {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Array:
		return v.IsZero() || v.Len() == 0
	case reflect.String:
		return v.Len() == 0 || v.String() == "00000000-0000-0000-0000-000000000000"
	case reflect.Map, reflect.Slice:
		return v.IsNil() || v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Invalid:
		return true
	case reflect.Interface, reflect.Ptr:
		if v.IsNil() {
			return true
		}
		return isEmpty(v.Elem().Interface())
	case reflect.Struct:
		if t, ok := value.(time.Time); ok {
			return t.IsZero()
		}
	}

	return false
}

// AssertValidationErrors checks that err holds exactly the field errors in
// expected, compared by code.
func AssertValidationErrors(t *testing.T, err error, expected validation.Errors) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %v, got nil", expected)
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation.Errors, got %T: %v", err, err)
	}

	if len(verrs) != len(expected) {
		t.Fatalf("expected %d field errors, got %v", len(expected), verrs)
	}

	for field, want := range expected {
		got, found := verrs[field]
		if !found {
			t.Errorf("field %s: expected %v, got none", field, want)
			continue
		}
		AssertValidationError(t, got, want)
	}
}

func AssertValidationError(t *testing.T, err error, expected error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %v, got nil", expected)
	}

	var got validation.Error
	if !errors.As(err, &got) {
		t.Fatalf("expected validation.Error, got %T: %v", err, err)
	}
	var want validation.Error
	if !errors.As(expected, &want) {
		t.Fatalf("expected value is not a validation.Error: %T", expected)
	}

	if got.Code() != want.Code() {
		t.Errorf("expected code %q, got %q (%v)", want.Code(), got.Code(), got)
	}
}
