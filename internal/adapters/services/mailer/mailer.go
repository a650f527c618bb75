package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wneessen/go-mail"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/mails"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/logging"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/otelx"
)

var (
	tracer = otel.Tracer("sellcourse/internal/adapters/services/mailer")
	logger = otelslog.NewLogger("sellcourse/internal/adapters/services/mailer")
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Timeout bounds dialing and each SMTP command. Zero means 10s.
	Timeout time.Duration
}

type SMTP struct {
	tracer trace.Tracer
	logger *slog.Logger
	from   string
	send   func(ctx context.Context, msgs ...*mail.Msg) error
}

// NewSMTP builds a sender that upgrades to STARTTLS when the server offers
// it and authenticates with PLAIN when a username is configured.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	const op = "mailer.NewSMTP"

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	opts := []mail.Option{
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithPort(cfg.Port),
		mail.WithTimeout(timeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, errorx.Wrap(err, op)
	}

	return &SMTP{
		tracer: tracer,
		logger: logger,
		from:   cfg.From,
		send:   client.DialAndSendWithContext,
	}, nil
}

func (s *SMTP) SendMail(ctx context.Context, p mails.Payload) error {
	const op = "mailer.SMTP.SendMail"
	ctx, span := s.tracer.Start(ctx, "SMTP.SendMail")
	defer span.End()

	msg, err := buildMessage(s.from, p)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to build mail")
		return errorx.Wrap(errorx.NewMailDeliveryFailed().WithCause(err), op)
	}

	if err := s.send(ctx, msg); err != nil {
		otelx.RecordSpanError(span, err, "failed to send mail")
		s.logger.ErrorContext(ctx, "failed to send mail", logging.Email(p.To), slog.Any("error", err))
		return errorx.Wrap(errorx.NewMailDeliveryFailed().WithCause(err), op)
	}

	s.logger.DebugContext(ctx, "mail sent", logging.Email(p.To), slog.String("subject", p.Subject))
	return nil
}

func buildMessage(from string, p mails.Payload) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := msg.To(p.To); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	msg.Subject(p.Subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextHTML, p.Body)
	return msg, nil
}

// Log writes mails to the logger instead of sending them. Used in local
// and test modes; Sent keeps every payload for assertions.
type Log struct {
	logger *slog.Logger
	mu     sync.Mutex
	sent   []mails.Payload
}

func NewLog(l *slog.Logger) *Log {
	if l == nil {
		l = logger
	}
	return &Log{logger: l}
}

func (l *Log) SendMail(ctx context.Context, p mails.Payload) error {
	l.mu.Lock()
	l.sent = append(l.sent, p)
	l.mu.Unlock()

	l.logger.InfoContext(ctx, "mail",
		logging.Email(p.To),
		slog.String("subject", p.Subject),
		slog.String("body", p.Body),
	)
	return nil
}

func (l *Log) Sent() []mails.Payload {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]mails.Payload(nil), l.sent...)
}
