package mailevent

import (
	"context"
	"html/template"
	"log/slog"
	"time"

	"github.com/ARUMANDESU/validation"
	"github.com/ARUMANDESU/validation/is"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/emailverification"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/mails"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/logging"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/otelx"
)

const VerificationRequestedSubject = "Verify your email"

var verificationTmpl = template.Must(template.New("verification").Parse(
	`<p>Click the link below to verify your email address. It expires at {{.ExpiresAt.Format "2006-01-02 15:04 MST"}}.</p>` +
		`<p><a href="{{.URL}}">Verify email</a></p>`,
))

// HandleVerificationRequested mails the verification link.
func (h *MailEventHandler) HandleVerificationRequested(ctx context.Context, e *emailverification.VerificationRequested) error {
	if e == nil {
		return nil
	}
	const op = "mailevent.MailEventHandler.HandleVerificationRequested"

	l := h.logger.With(
		slog.String("event", "VerificationRequested"),
		slog.String("verification.id", e.VerificationID.String()),
		logging.Email(e.Email),
	)
	ctx, span := h.tracer.Start(
		ctx,
		"MailEventHandler.HandleVerificationRequested",
		trace.WithNewRoot(),
		trace.WithLinks(trace.LinkFromContext(e.Extract())),
		trace.WithAttributes(
			attribute.String("event.verification.id", e.VerificationID.String()),
			attribute.String("event.verification.email", logging.RedactEmail(e.Email)),
		),
	)
	defer span.End()

	err := validation.ValidateStruct(e,
		validation.Field(&e.Email, validation.Required, is.EmailFormat),
		validation.Field(&e.Token, validation.Required),
	)
	if err != nil {
		otelx.RecordSpanError(span, err, "validation failed")
		l.ErrorContext(ctx, "invalid verification event", slog.Any("error", err))
		return errorx.Wrap(err, op)
	}

	link, err := emailverification.Link(h.verificationBaseURL, e.Token, e.Email)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to build link")
		l.ErrorContext(ctx, "failed to build verification link", slog.Any("error", err))
		return errorx.Wrap(err, op)
	}
	body, err := render(verificationTmpl, struct {
		URL       string
		ExpiresAt time.Time
	}{URL: link, ExpiresAt: e.ExpiresAt})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to render mail")
		return errorx.Wrap(err, op)
	}

	payload := mails.Payload{
		To:      e.Email,
		Subject: VerificationRequestedSubject,
		Body:    body,
	}
	if err := h.mailsender.SendMail(ctx, payload); err != nil {
		otelx.RecordSpanError(span, err, "failed to send verification mail")
		l.ErrorContext(ctx, "failed to send verification mail", slog.Any("error", err))
		return nil
	}

	l.InfoContext(ctx, "verification mail sent")
	return nil
}
