package memory

import (
	"context"
	"log/slog"
	"sync"

	"staybook/internal/app/policies"
)

type SentNotification struct {
	To       string
	Template string
	Data     any
}

// Notifier logs notifications instead of delivering them and remembers what it sent.
type Notifier struct {
	Logger *slog.Logger

	mu   sync.Mutex
	sent []SentNotification
}

func (n *Notifier) Send(ctx context.Context, to string, template string, data any) error {
	n.mu.Lock()
	n.sent = append(n.sent, SentNotification{To: to, Template: template, Data: data})
	n.mu.Unlock()
	if n.Logger != nil {
		n.Logger.InfoContext(ctx, "notification", "to", to, "template", template)
	}
	return nil
}

func (n *Notifier) Sent() []SentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]SentNotification(nil), n.sent...)
}

var _ policies.Notifier = (*Notifier)(nil)
