package mails

// Payload is a single outgoing message. Body is HTML.
type Payload struct {
	To      string
	Subject string
	Body    string
}
