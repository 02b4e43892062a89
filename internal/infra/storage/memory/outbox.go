package memory

import (
	"context"
	"log/slog"
	"sync"

	appoutbox "staybook/internal/app/outbox"
)

// EventHandler receives flushed events by name.
type EventHandler interface {
	HandleEvent(ctx context.Context, name string, payload []byte) error
}

// Outbox buffers events until the command commits, then hands them to Handler in
// order. It stands in for the Mongo outbox and Kafka relay in single-process setups.
type Outbox struct {
	Handler EventHandler
	Logger  *slog.Logger

	mu      sync.Mutex
	records []appoutbox.EventRecord
}

func NewOutbox(handler EventHandler, logger *slog.Logger) *Outbox {
	return &Outbox{Handler: handler, Logger: logger}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

// Discard drops the buffered events of a command that failed.
func (o *Outbox) Discard(ctx context.Context) {
	o.mu.Lock()
	dropped := len(o.records)
	o.records = nil
	o.mu.Unlock()
	if dropped > 0 && o.Logger != nil {
		o.Logger.DebugContext(ctx, "events of failed command dropped", "count", dropped)
	}
}

// Flush delivers the buffered events. Delivery failures are logged and do not fail the
// command that produced them.
func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	pending := o.records
	o.records = nil
	o.mu.Unlock()

	if o.Handler == nil {
		return nil
	}
	for _, rec := range pending {
		if err := o.Handler.HandleEvent(ctx, rec.Name, rec.Payload); err != nil && o.Logger != nil {
			o.Logger.WarnContext(ctx, "event delivery failed", "event", rec.Name, "event_id", rec.ID, "error", err)
		}
	}
	return nil
}

var _ appoutbox.Outbox = (*Outbox)(nil)
