package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"medtransit/pkg/requestcontext"
)

// Emitter is what the registries depend on to record a mutation. Record runs
// inside the mutation's transaction and its error aborts the mutation; Committed
// runs once the write is durable and cannot fail.
type Emitter interface {
	Record(ctx context.Context, event Event) (Event, error)
	Committed(ctx context.Context, event Event)
}

// Publisher appends events to the trail and, when a relay buffer is attached,
// queues them for delivery to the external sink.
type Publisher struct {
	store   Store
	buffer  *RingBuffer
	metrics *Metrics
}

type PublisherOption func(*Publisher)

// WithRelayBuffer queues every appended event for the relay.
func WithRelayBuffer(buffer *RingBuffer) PublisherOption {
	return func(p *Publisher) {
		p.buffer = buffer
	}
}

func WithPublisherMetrics(m *Metrics) PublisherOption {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Record stamps the event id and request id, then appends it. A store that
// joins the transaction in ctx discards the event if that transaction rolls back.
func (p *Publisher) Record(ctx context.Context, event Event) (Event, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if err := p.store.Append(ctx, event); err != nil {
		return Event{}, fmt.Errorf("append audit event: %w", err)
	}
	return event, nil
}

// Committed counts the event and queues it for the relay.
func (p *Publisher) Committed(_ context.Context, event Event) {
	if p.metrics != nil {
		p.metrics.Emitted.WithLabelValues(string(event.Kind)).Inc()
	}
	if p.buffer != nil {
		evicted := p.buffer.Enqueue(event)
		if p.metrics != nil {
			if evicted {
				p.metrics.BufferEvicted.Inc()
			}
			p.metrics.BufferDepth.Set(float64(p.buffer.Len()))
		}
	}
}

// Emit records an event outside any registry transaction.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	recorded, err := p.Record(ctx, event)
	if err != nil {
		return err
	}
	p.Committed(ctx, recorded)
	return nil
}

// List returns the trail for one subject id, oldest first.
func (p *Publisher) List(ctx context.Context, subject string) ([]Event, error) {
	return p.store.ListBySubject(ctx, subject)
}
