// Package transport implements the outbound delivery channels: SMTP email
// and Textfully SMS.
package transport

import "context"

// EmailSender delivers a single email message.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers a single SMS message.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}
