package mailevent

import (
	"context"
	"html/template"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/mails"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/logging"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/otelx"
)

const UserRegisteredSubject = "Welcome to SellCourse"

var welcomeTmpl = template.Must(template.New("welcome").Parse(
	`<p>Hi {{.Username}},</p><p>Your account is ready.` +
		`{{if .LoginURL}} <a href="{{.LoginURL}}">Sign in</a> to start learning.{{end}}</p>`,
))

func (h *MailEventHandler) HandleUserRegistered(ctx context.Context, e *user.UserRegistered) error {
	if e == nil {
		return nil
	}
	const op = "mailevent.MailEventHandler.HandleUserRegistered"

	l := h.logger.With(
		slog.String("event", "UserRegistered"),
		slog.String("user.id", e.UserID.String()),
		logging.Email(e.Email),
	)
	ctx, span := h.tracer.Start(
		ctx,
		"MailEventHandler.HandleUserRegistered",
		trace.WithNewRoot(),
		trace.WithLinks(trace.LinkFromContext(e.Extract())),
		trace.WithAttributes(
			attribute.String("event.user.id", e.UserID.String()),
			attribute.String("event.user.email", logging.RedactEmail(e.Email)),
		),
	)
	defer span.End()

	if e.Email == "" {
		l.WarnContext(ctx, "user registered without email, skipping welcome mail")
		return nil
	}

	body, err := render(welcomeTmpl, struct {
		Username string
		LoginURL string
	}{Username: e.Username, LoginURL: h.loginURL})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to render mail")
		return errorx.Wrap(err, op)
	}

	err = h.mailsender.SendMail(ctx, mails.Payload{
		To:      e.Email,
		Subject: UserRegisteredSubject,
		Body:    body,
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to send welcome mail")
		l.ErrorContext(ctx, "failed to send welcome mail", slog.Any("error", err))
		return nil
	}

	l.InfoContext(ctx, "welcome mail sent")
	return nil
}
