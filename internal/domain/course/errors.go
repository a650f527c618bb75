package course

import (
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/i18nx"
)

var (
	ErrNotFound       = errorx.NewResourceNotFound("course")
	ErrTitleTaken     = errorx.NewDuplicateEntryWithField("course", i18nx.FieldCourseTitle)
	ErrNotInstructor  = errorx.NewInsufficientPermissions()
	ErrImageTooLarge  = errorx.NewValidationFieldFailed("image").WithKey(i18nx.KeyCourseImageTooLarge)
	ErrImageBadFormat = errorx.NewValidationFieldFailed("image").WithKey(i18nx.KeyCourseImageType)
)
