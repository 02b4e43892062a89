// Package notifications turns booking lifecycle events into guest and operator messages.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"staybook/internal/app/policies"
	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/shared/daterange"
)

var ErrNotifierMissing = errors.New("notifications: notifier not configured")

// Message is the data handed to notification templates.
type Message struct {
	RequestID    string `json:"request_id"`
	GuestName    string `json:"guest_name"`
	GuestEmail   string `json:"guest_email"`
	CheckIn      string `json:"check_in"`
	CheckOut     string `json:"check_out"`
	Nights       int    `json:"nights"`
	Adults       int    `json:"adults,omitempty"`
	Children     int    `json:"children,omitempty"`
	DogsIncluded bool   `json:"dogs_included,omitempty"`
	QuotedTotal  string `json:"quoted_total,omitempty"`
}

// BookingEventNotifier reacts to booking.* events. Unknown event names are ignored.
type BookingEventNotifier struct {
	Notifier      policies.Notifier
	OperatorEmail string
	Logger        *slog.Logger
}

func (n *BookingEventNotifier) HandleEvent(ctx context.Context, name string, payload []byte) error {
	if n.Notifier == nil {
		return ErrNotifierMissing
	}
	switch name {
	case domainbooking.EventRequested:
		var ev domainbooking.BookingRequested
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("notifications: decode %s: %w", name, err)
		}
		msg := Message{
			RequestID:    string(ev.RequestID),
			GuestName:    ev.GuestName,
			GuestEmail:   ev.GuestEmail,
			CheckIn:      ev.Range.CheckIn.Format(time.DateOnly),
			CheckOut:     ev.Range.CheckOut.Format(time.DateOnly),
			Nights:       ev.Range.Nights(),
			Adults:       ev.Adults,
			Children:     ev.Children,
			DogsIncluded: ev.DogsIncluded,
		}
		if ev.QuotedTotal.Currency != "" {
			msg.QuotedTotal = ev.QuotedTotal.Format()
		}
		if err := n.send(ctx, ev.GuestEmail, policies.TemplateRequestReceived, msg); err != nil {
			return err
		}
		if n.OperatorEmail != "" {
			return n.send(ctx, n.OperatorEmail, policies.TemplateOperatorNewLead, msg)
		}
		return nil
	case domainbooking.EventConfirmed:
		var ev domainbooking.BookingConfirmed
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("notifications: decode %s: %w", name, err)
		}
		return n.send(ctx, ev.GuestEmail, policies.TemplateRequestConfirmed, decisionMessage(ev.RequestID, ev.GuestName, ev.GuestEmail, ev.Range))
	case domainbooking.EventCancelled:
		var ev domainbooking.BookingCancelled
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("notifications: decode %s: %w", name, err)
		}
		return n.send(ctx, ev.GuestEmail, policies.TemplateRequestCancelled, decisionMessage(ev.RequestID, ev.GuestName, ev.GuestEmail, ev.Range))
	default:
		if n.Logger != nil {
			n.Logger.DebugContext(ctx, "event ignored", "event", name)
		}
		return nil
	}
}

func (n *BookingEventNotifier) send(ctx context.Context, to, template string, msg Message) error {
	if err := n.Notifier.Send(ctx, to, template, msg); err != nil {
		return fmt.Errorf("notifications: send %s: %w", template, err)
	}
	if n.Logger != nil {
		n.Logger.InfoContext(ctx, "notification sent", "template", template, "request_id", msg.RequestID)
	}
	return nil
}

func decisionMessage(id domainbooking.RequestID, name, email string, r daterange.DateRange) Message {
	return Message{
		RequestID:  string(id),
		GuestName:  name,
		GuestEmail: email,
		CheckIn:    r.CheckIn.Format(time.DateOnly),
		CheckOut:   r.CheckOut.Format(time.DateOnly),
		Nights:     r.Nights(),
	}
}
