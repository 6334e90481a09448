package mailer

import (
	"context"
	"errors"
	"fmt"

	tpl "github.com/oksasatya/go-hexagonal-users/pkg/mailer/templates"
)

// Sender delivers a rendered message. *Mailgun implements it.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// ErrPermanent marks a job that will never succeed and must not be requeued.
var ErrPermanent = errors.New("permanent email job failure")

// Process renders job (when it names a template) and hands it to s.
// Malformed or unrenderable jobs are wrapped with ErrPermanent; delivery
// errors are returned as is so the caller can retry.
func Process(ctx context.Context, s Sender, job EmailJob) error {
	if job.To == "" {
		return fmt.Errorf("%w: missing recipient", ErrPermanent)
	}
	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		job.EnsureRecipient()
		var err error
		subject, text, html, err = tpl.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: render %s: %v", ErrPermanent, job.Template, err)
		}
	} else if subject == "" || (text == "" && html == "") {
		return fmt.Errorf("%w: either template or subject with text/html is required", ErrPermanent)
	}
	return s.Send(ctx, job.To, subject, text, html)
}
