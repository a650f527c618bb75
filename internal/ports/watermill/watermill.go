package watermill

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jackc/pgx/v5/pgxpool"

	"gitlab.com/sellcourse/sellcourse-backend/internal/application/mail"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/watermillx"
)

type Port struct {
	eventProcessor *cqrs.EventProcessor
}

type AppEventHandlers struct {
	Mail *mail.App
}

func NewPort(
	router *message.Router,
	conn *pgxpool.Pool,
	wmlogger watermill.LoggerAdapter,
	opts watermillx.ProcessorOptions,
) (*Port, error) {
	eventProcessor, err := watermillx.NewEventProcessor(router, conn, wmlogger, opts)
	if err != nil {
		return nil, err
	}

	return &Port{eventProcessor: eventProcessor}, nil
}

// Run registers the outbox consumers. The router must be started afterwards.
func (p *Port) Run(_ context.Context, handlers AppEventHandlers) error {
	if handlers.Mail == nil || handlers.Mail.Event == nil {
		return fmt.Errorf("mail event handler is required")
	}

	err := p.eventProcessor.AddHandlers(
		cqrs.NewEventHandler("MailOnVerificationRequested", handlers.Mail.Event.HandleVerificationRequested),
		cqrs.NewEventHandler("MailOnUserRegistered", handlers.Mail.Event.HandleUserRegistered),
	)
	if err != nil {
		return fmt.Errorf("failed to add event handlers: %w", err)
	}

	return nil
}
