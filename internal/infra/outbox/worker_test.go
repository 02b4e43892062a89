package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	pending []*EventDocument
	sent    []string
	failed  map[string]string
}

func (q *fakeQueue) Claim(context.Context, string) (*EventDocument, error) {
	if len(q.pending) == 0 {
		return nil, nil
	}
	doc := q.pending[0]
	q.pending = q.pending[1:]
	return doc, nil
}

func (q *fakeQueue) MarkSent(_ context.Context, id string) error {
	q.sent = append(q.sent, id)
	return nil
}

func (q *fakeQueue) MarkFailed(_ context.Context, id string, _ time.Time, errMsg string) error {
	if q.failed == nil {
		q.failed = map[string]string{}
	}
	q.failed[id] = errMsg
	return nil
}

type published struct {
	topic, key string
	payload    []byte
	headers    map[string]string
}

type fakeProducer struct {
	out []published
	err error
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.out = append(p.out, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func event(id, name string) *EventDocument {
	return &EventDocument{
		ID:         id,
		Name:       name,
		Payload:    []byte(`{"request_id":"req-1"}`),
		OccurredAt: time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC),
		Aggregate:  "req-1",
	}
}

func TestWorkerRelaysCloudEvents(t *testing.T) {
	queue := &fakeQueue{pending: []*EventDocument{event("evt-1", "booking.requested"), event("evt-2", "booking.confirmed")}}
	producer := &fakeProducer{}
	w := &Worker{Store: queue, Producer: producer, TopicPrefix: "dev."}

	n, err := w.Drain(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []string{"evt-1", "evt-2"}, queue.sent)
	require.Len(t, producer.out, 2)

	first := producer.out[0]
	require.Equal(t, "dev.booking.events.v1", first.topic)
	require.Equal(t, "req-1", first.key)
	require.Equal(t, "application/cloudevents+json", first.headers["content-type"])

	var ce map[string]any
	require.NoError(t, json.Unmarshal(first.payload, &ce))
	require.Equal(t, "evt-1", ce["id"])
	require.Equal(t, "booking.requested.v1", ce["type"])
	require.Equal(t, "app://staybook", ce["source"])
	require.Equal(t, map[string]any{"request_id": "req-1"}, ce["data"])
}

func TestWorkerMarksFailedOnPublishError(t *testing.T) {
	queue := &fakeQueue{pending: []*EventDocument{event("evt-1", "booking.requested")}}
	w := &Worker{Store: queue, Producer: &fakeProducer{err: errors.New("broker down")}, Backoff: []time.Duration{time.Second}}

	n, err := w.Drain(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Empty(t, queue.sent)
	require.Equal(t, "broker down", queue.failed["evt-1"])
}

func TestWorkerRespectsBatchSize(t *testing.T) {
	queue := &fakeQueue{pending: []*EventDocument{event("a", "booking.requested"), event("b", "booking.requested"), event("c", "booking.requested")}}
	w := &Worker{Store: queue, Producer: &fakeProducer{}, BatchSize: 2}

	n, err := w.Drain(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Len(t, queue.pending, 1)
}

func TestTopicFor(t *testing.T) {
	require.Equal(t, "booking.events.v1", TopicFor("", "booking.cancelled"))
	require.Equal(t, "prod.pricing.events.v1", TopicFor("prod.", "pricing"))
}

func TestWorkerRequiresDependencies(t *testing.T) {
	require.ErrorIs(t, (&Worker{}).Run(context.Background()), ErrWorkerNotConfigured)
}
