package audit

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultRelayInterval  = time.Second
	defaultRelayBatchSize = 500
	finalFlushTimeout     = 5 * time.Second
)

// Sink receives relayed batches. Publish either accepts the whole batch or
// returns an error; a rejected batch is not retried.
type Sink interface {
	Publish(ctx context.Context, events []Event) error
}

// Relay drains the ring buffer into a Sink on a fixed interval. Delivery is at
// most once: events evicted from the buffer or in a rejected batch are counted
// and logged, never replayed.
type Relay struct {
	buffer    *RingBuffer
	sink      Sink
	interval  time.Duration
	batchSize int
	metrics   *Metrics
	logger    *slog.Logger
}

type RelayOption func(*Relay)

func WithRelayInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithRelayBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithRelayMetrics(m *Metrics) RelayOption {
	return func(r *Relay) {
		r.metrics = m
	}
}

func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logger
	}
}

func NewRelay(buffer *RingBuffer, sink Sink, opts ...RelayOption) *Relay {
	r := &Relay{
		buffer:    buffer,
		sink:      sink,
		interval:  defaultRelayInterval,
		batchSize: defaultRelayBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run flushes until ctx is cancelled, then makes one last bounded flush.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalFlushTimeout)
			r.Flush(flushCtx)
			cancel()
			return nil
		case <-ticker.C:
			r.Flush(ctx)
		}
	}
}

// Flush drains everything currently buffered and returns how many events the
// sink accepted.
func (r *Relay) Flush(ctx context.Context) int {
	delivered := 0
	for {
		batch := r.buffer.DequeueBatch(r.batchSize)
		if len(batch) == 0 {
			break
		}
		if err := r.sink.Publish(ctx, batch); err != nil {
			r.logger.ErrorContext(ctx, "audit relay batch rejected",
				"error", err,
				"events", len(batch),
			)
			if r.metrics != nil {
				r.metrics.RelayFailures.Add(float64(len(batch)))
			}
			continue
		}
		delivered += len(batch)
		if r.metrics != nil {
			r.metrics.Relayed.Add(float64(len(batch)))
		}
	}
	if r.metrics != nil {
		r.metrics.BufferDepth.Set(float64(r.buffer.Len()))
	}
	return delivered
}
