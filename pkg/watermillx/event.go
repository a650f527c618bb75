// Package watermillx connects domain events to a Postgres backed outbox.
//
// Repositories publish inside their own transaction through Publish, and
// the event processor reads the same tables through watermill-sql
// subscribers, one consumer group per handler.
package watermillx

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wsql "github.com/ThreeDotsLabs/watermill-sql/v4/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/emailverification"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/event"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/otelx"
)

// Streams lists every topic written through the outbox.
var Streams = []string{
	user.EventStreamName,
	emailverification.EventStreamName,
}

var marshaler = cqrs.JSONMarshaler{}

type ProcessorOptions struct {
	// PollInterval overrides the subscriber default; tests use a few milliseconds.
	PollInterval time.Duration
	// InitializeSchema creates the topic tables on subscribe.
	InitializeSchema bool
}

func subscriberConfig(group string, opts ProcessorOptions) wsql.SubscriberConfig {
	return wsql.SubscriberConfig{
		ConsumerGroup:    group,
		SchemaAdapter:    wsql.DefaultPostgreSQLSchema{},
		OffsetsAdapter:   wsql.DefaultPostgreSQLOffsetsAdapter{},
		InitializeSchema: opts.InitializeSchema,
		PollInterval:     opts.PollInterval,
	}
}

// MessageTopic maps an event to the outbox table it lives in.
func MessageTopic(evt event.Event) (string, error) {
	if name := evt.GetStreamName(); name != "" {
		return name, nil
	}
	return "", fmt.Errorf("event %T has no stream name", evt)
}

func topicOf(v any) (string, error) {
	evt, ok := v.(event.Event)
	if !ok {
		return "", fmt.Errorf("%T is not a domain event", v)
	}
	return MessageTopic(evt)
}

func NewEventProcessor(
	router *message.Router,
	conn *pgxpool.Pool,
	logger watermill.LoggerAdapter,
	opts ProcessorOptions,
) (*cqrs.EventProcessor, error) {
	db := wsql.BeginnerFromPgx(conn)

	return cqrs.NewEventProcessorWithConfig(router, cqrs.EventProcessorConfig{
		GenerateSubscribeTopic: func(p cqrs.EventProcessorGenerateSubscribeTopicParams) (string, error) {
			return topicOf(p.EventHandler.NewEvent())
		},
		SubscriberConstructor: func(p cqrs.EventProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return wsql.NewSubscriber(db, subscriberConfig(p.EventHandler.HandlerName(), opts), logger)
		},
		Marshaler: marshaler,
		Logger:    logger,
		// Streams are shared by several event types; handlers only see theirs.
		AckOnUnknownEvent: true,
	})
}

// Publish writes evts to the outbox inside tx, so they become visible only
// if tx commits.
func Publish(ctx context.Context, tx pgx.Tx, logger watermill.LoggerAdapter, evts ...event.Event) error {
	if len(evts) == 0 {
		return nil
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	publisher, err := wsql.NewPublisher(
		wsql.TxFromPgx(tx),
		wsql.PublisherConfig{SchemaAdapter: wsql.DefaultPostgreSQLSchema{}},
		logger,
	)
	if err != nil {
		return fmt.Errorf("outbox publisher: %w", err)
	}
	bus, err := cqrs.NewEventBusWithConfig(publisher, cqrs.EventBusConfig{
		GeneratePublishTopic: func(p cqrs.GenerateEventPublishTopicParams) (string, error) {
			return topicOf(p.Event)
		},
		Marshaler: marshaler,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("outbox event bus: %w", err)
	}

	otelx.PropagateAll(ctx, evts...)
	for _, evt := range evts {
		if err := bus.Publish(ctx, evt); err != nil {
			return fmt.Errorf("publish %T: %w", evt, err)
		}
	}
	return nil
}

// InitializeEventSchema creates the outbox tables for Streams. Publishing
// inside a transaction requires them to exist beforehand.
func InitializeEventSchema(ctx context.Context, conn *pgxpool.Pool, logger watermill.LoggerAdapter) error {
	subscriber, err := wsql.NewSubscriber(
		wsql.BeginnerFromPgx(conn),
		subscriberConfig("", ProcessorOptions{InitializeSchema: true}),
		logger,
	)
	if err != nil {
		return fmt.Errorf("outbox schema subscriber: %w", err)
	}
	defer subscriber.Close()

	for _, stream := range Streams {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := subscriber.SubscribeInitialize(stream); err != nil {
			return fmt.Errorf("initialize outbox %s: %w", stream, err)
		}
	}
	return nil
}
