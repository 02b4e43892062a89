package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"
)

// EventHandler receives a decoded event by its domain name.
type EventHandler interface {
	HandleEvent(ctx context.Context, name string, payload []byte) error
}

// Inbox records processed event ids per consumer.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

var ErrMalformedEvent = errors.New("kafka: malformed cloud event")

type cloudEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// CloudEventHandler unwraps CloudEvents relayed by the outbox worker and passes them on
// once per event id.
type CloudEventHandler struct {
	Events EventHandler
	Inbox  Inbox
	Logger *slog.Logger
}

func (h *CloudEventHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ce cloudEvent
	if err := json.Unmarshal(msg.Value, &ce); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ce.ID == "" || ce.Type == "" {
		return ErrMalformedEvent
	}
	name := strings.TrimSuffix(ce.Type, ".v1")

	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, ce.ID)
		if err != nil {
			return err
		}
		if seen {
			if h.Logger != nil {
				h.Logger.DebugContext(ctx, "duplicate event skipped", "event", name, "event_id", ce.ID)
			}
			return nil
		}
	}
	if err := h.Events.HandleEvent(ctx, name, ce.Data); err != nil {
		if h.Inbox != nil {
			if ferr := h.Inbox.Forget(ctx, ce.ID); ferr != nil {
				err = errors.Join(err, ferr)
			}
		}
		return err
	}
	return nil
}

var _ MessageHandler = (*CloudEventHandler)(nil)
