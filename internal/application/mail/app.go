package mail

import (
	mailevent "gitlab.com/sellcourse/sellcourse-backend/internal/application/mail/event"
)

type App struct {
	Event *mailevent.MailEventHandler
}

type Args struct {
	Mailsender mailevent.MailSender
	// VerificationBaseURL is the page verification links point at.
	VerificationBaseURL string
	// LoginURL is linked from the welcome mail.
	LoginURL string
}

func NewApp(args Args) *App {
	return &App{
		Event: mailevent.NewMailEventHandler(mailevent.MailEventHandlerArgs{
			Mailsender:          args.Mailsender,
			VerificationBaseURL: args.VerificationBaseURL,
			LoginURL:            args.LoginURL,
		}),
	}
}
