package mailevent

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/mails"
)

var (
	tracer = otel.Tracer("sellcourse/internal/application/mail/event")
	logger = otelslog.NewLogger("sellcourse/internal/application/mail/event")
)

type MailSender interface {
	SendMail(ctx context.Context, payload mails.Payload) error
}

// MailEventHandler turns outbox events into mails. Delivery failures are
// logged and acknowledged so they never block or replay the event stream.
type MailEventHandler struct {
	tracer     trace.Tracer
	logger     *slog.Logger
	mailsender MailSender

	verificationBaseURL string
	loginURL            string
}

type MailEventHandlerArgs struct {
	Tracer     trace.Tracer
	Logger     *slog.Logger
	Mailsender MailSender

	VerificationBaseURL string
	LoginURL            string
}

func NewMailEventHandler(args MailEventHandlerArgs) *MailEventHandler {
	if args.Mailsender == nil {
		panic("mail sender cannot be nil")
	}
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}

	return &MailEventHandler{
		tracer:     args.Tracer,
		logger:     args.Logger,
		mailsender: args.Mailsender,

		verificationBaseURL: args.VerificationBaseURL,
		loginURL:            args.LoginURL,
	}
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
