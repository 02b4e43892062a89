package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"
)

func TestProducerPublishesPayload(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"id":"evt-1"}` {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})
	p := NewProducerWith(sp)

	err := p.Publish(context.Background(), "booking.events.v1", "req-1", []byte(`{"id":"evt-1"}`), map[string]string{"content-type": "application/cloudevents+json"})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestProducerSurfacesBrokerErrors(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)
	p := NewProducerWith(sp)

	err := p.Publish(context.Background(), "booking.events.v1", "req-1", []byte(`{}`), nil)
	require.ErrorIs(t, err, sarama.ErrNotLeaderForPartition)
	require.NoError(t, p.Close())
}

type recordingEvents struct {
	names    []string
	payloads []string
	err      error
}

func (r *recordingEvents) HandleEvent(_ context.Context, name string, payload []byte) error {
	if r.err != nil {
		return r.err
	}
	r.names = append(r.names, name)
	r.payloads = append(r.payloads, string(payload))
	return nil
}

type memoryInbox struct{ seen map[string]bool }

func (m *memoryInbox) Seen(_ context.Context, id string) (bool, error) {
	if m.seen[id] {
		return true, nil
	}
	m.seen[id] = true
	return false, nil
}

func (m *memoryInbox) Forget(_ context.Context, id string) error {
	delete(m.seen, id)
	return nil
}

func message(value string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{Topic: "booking.events.v1", Value: []byte(value)}
}

func TestCloudEventHandlerDeliversOnce(t *testing.T) {
	events := &recordingEvents{}
	h := &CloudEventHandler{Events: events, Inbox: &memoryInbox{seen: map[string]bool{}}}
	ce := `{"specversion":"1.0","id":"evt-1","type":"booking.confirmed.v1","data":{"request_id":"r1"}}`

	require.NoError(t, h.Handle(context.Background(), message(ce)))
	require.NoError(t, h.Handle(context.Background(), message(ce)))

	require.Equal(t, []string{"booking.confirmed"}, events.names)
	require.JSONEq(t, `{"request_id":"r1"}`, events.payloads[0])
}

func TestCloudEventHandlerForgetsFailedEvents(t *testing.T) {
	inbox := &memoryInbox{seen: map[string]bool{}}
	events := &recordingEvents{err: errors.New("smtp down")}
	h := &CloudEventHandler{Events: events, Inbox: inbox}
	ce := `{"id":"evt-2","type":"booking.requested.v1","data":{}}`

	require.Error(t, h.Handle(context.Background(), message(ce)))
	require.False(t, inbox.seen["evt-2"])

	events.err = nil
	require.NoError(t, h.Handle(context.Background(), message(ce)))
	require.Equal(t, []string{"booking.requested"}, events.names)
}

func TestCloudEventHandlerRejectsGarbage(t *testing.T) {
	h := &CloudEventHandler{Events: &recordingEvents{}}
	require.ErrorIs(t, h.Handle(context.Background(), message("not json")), ErrMalformedEvent)
	require.ErrorIs(t, h.Handle(context.Background(), message(`{"type":"x"}`)), ErrMalformedEvent)
}
