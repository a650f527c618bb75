package user

import (
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/event"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/role"
)

const EventStreamName = "events_user"

type UserRegistered struct {
	event.Header
	event.Otel
	UserID   ID        `json:"user_id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	Role     role.Role `json:"role"`
}

func (e UserRegistered) GetStreamName() string {
	return EventStreamName
}

type UserRoleChanged struct {
	event.Header
	event.Otel
	UserID   ID        `json:"user_id"`
	Email    string    `json:"email"`
	Previous role.Role `json:"previous"`
	Current  role.Role `json:"current"`
}

func (e UserRoleChanged) GetStreamName() string {
	return EventStreamName
}
