package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-hexagonal-users/config"
	"github.com/oksasatya/go-hexagonal-users/internal/application"
	"github.com/oksasatya/go-hexagonal-users/pkg/mailer"
	tpl "github.com/oksasatya/go-hexagonal-users/pkg/mailer/templates"
)

// Publisher puts a JSON job on a queue. *helpers.RabbitPublisher implements it.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueNotifier enqueues a welcome email job for the email worker.
// A nil error means the job was accepted by the broker, not that the
// email was delivered.
type QueueNotifier struct {
	pub    Publisher
	cfg    *config.Config
	logger *logrus.Logger
	now    func() time.Time
}

func NewQueueNotifier(pub Publisher, cfg *config.Config, logger *logrus.Logger) *QueueNotifier {
	return &QueueNotifier{pub: pub, cfg: cfg, logger: logger, now: time.Now}
}

func (n *QueueNotifier) SendWelcomeEmail(ctx context.Context, email, name string) error {
	data := tpl.NewWelcomeData(n.cfg, name, email, tpl.WithTime(n.now()))
	job := mailer.EmailJob{To: email, Template: tpl.Welcome, Data: data}
	if err := n.pub.PublishJSON(ctx, job); err != nil {
		if n.logger != nil {
			n.logger.WithError(err).WithField("to", email).Warn("failed to publish welcome email job")
		}
		return fmt.Errorf("enqueue welcome email: %w", err)
	}
	if n.logger != nil {
		n.logger.WithField("to", email).Debug("welcome email job enqueued")
	}
	return nil
}

// LogNotifier only logs. It is used when mail sending is disabled.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendWelcomeEmail(_ context.Context, email, name string) error {
	if n.logger != nil {
		n.logger.WithFields(logrus.Fields{"to": email, "name": name}).Info("welcome email skipped (mail sending disabled)")
	}
	return nil
}

var (
	_ application.Notifier = (*QueueNotifier)(nil)
	_ application.Notifier = (*LogNotifier)(nil)
)
