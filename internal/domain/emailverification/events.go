package emailverification

import (
	"time"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/event"
)

const EventStreamName = "events_email_verification"

type VerificationRequested struct {
	event.Header
	event.Otel
	VerificationID ID        `json:"verification_id"`
	Email          string    `json:"email"`
	Token          string    `json:"token"`
	ExpiresAt      time.Time `json:"expires_at"`
}

func (e VerificationRequested) GetStreamName() string {
	return EventStreamName
}
