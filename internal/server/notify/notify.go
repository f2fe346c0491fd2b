// Package notify delivers 2FA codes to users.
package notify

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// LogNotifier writes messages to the log instead of sending them.
// It is meant for development and tests.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(l logging.Logger) *LogNotifier {
	return &LogNotifier{log: l.With("module", "notify")}
}

func (n *LogNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	n.log.Info(ctx, "message sent", "recipient", recipient, "subject", subject, "body", body)
	return nil
}
