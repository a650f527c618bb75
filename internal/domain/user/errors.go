package user

import (
	"github.com/ARUMANDESU/validation"

	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/i18nx"
)

var (
	ErrInvalidGender = validation.NewError(i18nx.ValidationIsGender, "must be one of MALE, FEMALE, OTHER")
	ErrInvalidRole   = errorx.NewValidationFieldFailed(i18nx.FieldRole).WithKey(i18nx.KeyInvalidRole)

	// ErrNotFound never reaches a login response.
	ErrNotFound = errorx.NewResourceNotFound("user")
)
