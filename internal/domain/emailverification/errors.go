package emailverification

import (
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/i18nx"
)

var (
	ErrInvalidEmail          = errorx.NewValidationFieldFailed(i18nx.FieldEmail)
	ErrEmailDomainNotAllowed = errorx.NewValidationFieldFailed(i18nx.FieldEmail).WithKey(i18nx.ValidationIsEmail)
	ErrNotFound              = errorx.NewResourceNotFound("email_verification")
)
