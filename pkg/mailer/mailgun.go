package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Mailgun delivers rendered messages through the Mailgun HTTP API.
type Mailgun struct {
	client  *mg.MailgunImpl
	sender  string
	timeout time.Duration
}

type MailgunOption func(*Mailgun)

// WithAPIBase points the client at another endpoint, e.g. the EU region.
func WithAPIBase(url string) MailgunOption {
	return func(m *Mailgun) {
		if url != "" {
			m.client.SetAPIBase(url)
		}
	}
}

func WithSendTimeout(d time.Duration) MailgunOption {
	return func(m *Mailgun) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func NewMailgun(domain, apiKey, sender string, opts ...MailgunOption) *Mailgun {
	m := &Mailgun{client: mg.NewMailgun(domain, apiKey), sender: sender, timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Send delivers one message. html is optional.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	c, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}

var _ Sender = (*Mailgun)(nil)
