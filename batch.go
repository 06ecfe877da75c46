package tracekit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/clockz"
)

const (
	defaultMaxQueueSize  = 2048
	defaultMaxBatchSize  = 512
	defaultFlushInterval = 5 * time.Second
)

// BatchSpanProcessor buffers finished spans on a bounded queue and exports
// them from a single background goroutine, either when a batch fills or
// when the flush interval elapses. When the queue is full spans are dropped
// and counted rather than blocking the ending goroutine.
type BatchSpanProcessor struct {
	exporter SpanExporter
	clock    clockz.Clock

	queue   chan Recordable
	flushCh chan chan struct{}
	stopCh  chan struct{}
	done    chan struct{}

	maxBatch int
	interval time.Duration

	dropped      atomic.Uint64
	shutdown     atomic.Bool
	shutdownOnce sync.Once
}

var _ SpanProcessor = (*BatchSpanProcessor)(nil)

// BatchOption configures a BatchSpanProcessor.
type BatchOption func(*BatchSpanProcessor)

// WithMaxQueueSize bounds the number of spans waiting to be batched.
func WithMaxQueueSize(n int) BatchOption {
	return func(p *BatchSpanProcessor) {
		if n > 0 {
			p.queue = make(chan Recordable, n)
		}
	}
}

// WithMaxBatchSize bounds the number of spans per export call.
func WithMaxBatchSize(n int) BatchOption {
	return func(p *BatchSpanProcessor) {
		if n > 0 {
			p.maxBatch = n
		}
	}
}

// WithFlushInterval sets how long a partial batch may wait before export.
func WithFlushInterval(d time.Duration) BatchOption {
	return func(p *BatchSpanProcessor) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithBatchClock injects the clock driving the flush interval.
// Enables deterministic testing with fake clocks.
func WithBatchClock(clock clockz.Clock) BatchOption {
	return func(p *BatchSpanProcessor) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// NewBatchSpanProcessor returns a running batch processor exporting through
// exporter, which may be nil for a null sink.
func NewBatchSpanProcessor(exporter SpanExporter, opts ...BatchOption) *BatchSpanProcessor {
	p := &BatchSpanProcessor{
		exporter: exporter,
		clock:    clockz.RealClock,
		queue:    make(chan Recordable, defaultMaxQueueSize),
		flushCh:  make(chan chan struct{}),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		maxBatch: defaultMaxBatchSize,
		interval: defaultFlushInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	go p.run()
	return p
}

// MakeRecordable implements SpanProcessor.
func (p *BatchSpanProcessor) MakeRecordable() Recordable {
	if p.exporter == nil {
		return NewSpanData()
	}
	return p.exporter.MakeRecordable()
}

// OnStart implements SpanProcessor. No-op for the batch variant.
func (p *BatchSpanProcessor) OnStart(*Span) {}

// OnEnd implements SpanProcessor. Never blocks: a full queue drops the span
// and increments the drop counter.
func (p *BatchSpanProcessor) OnEnd(r Recordable) {
	if r == nil || p.shutdown.Load() {
		return
	}

	select {
	case p.queue <- r:
	default:
		p.dropped.Add(1)
	}
}

// run is the export loop. It owns the batch slice exclusively.
func (p *BatchSpanProcessor) run() {
	defer close(p.done)

	batch := make([]Recordable, 0, p.maxBatch)
	timer := p.clock.After(p.interval)

	for {
		select {
		case r := <-p.queue:
			batch = append(batch, r)
			if len(batch) >= p.maxBatch {
				batch = p.export(batch)
				timer = p.clock.After(p.interval)
			}
		case <-timer:
			batch = p.export(batch)
			timer = p.clock.After(p.interval)
		case ack := <-p.flushCh:
			batch = p.export(p.drain(batch))
			close(ack)
			timer = p.clock.After(p.interval)
		case <-p.stopCh:
			p.export(p.drain(batch))
			return
		}
	}
}

// drain moves everything currently queued into the batch without blocking.
func (p *BatchSpanProcessor) drain(batch []Recordable) []Recordable {
	for {
		select {
		case r := <-p.queue:
			batch = append(batch, r)
		default:
			return batch
		}
	}
}

// export ships the batch and returns an empty slice reusing its capacity.
// Exporter failures and panics are swallowed.
func (p *BatchSpanProcessor) export(batch []Recordable) []Recordable {
	if len(batch) == 0 {
		return batch
	}
	if p.exporter != nil {
		out := make([]Recordable, len(batch))
		copy(out, batch)
		func() {
			defer func() {
				_ = recover()
			}()
			p.exporter.Export(context.Background(), out)
		}()
	}
	return batch[:0]
}

// ForceFlush implements SpanProcessor. Blocks until the loop has exported
// everything queued so far, or ctx expires.
func (p *BatchSpanProcessor) ForceFlush(ctx context.Context) error {
	if p.shutdown.Load() {
		return nil
	}

	ack := make(chan struct{})
	select {
	case p.flushCh <- ack:
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown implements SpanProcessor. Drains the queue, exports the final
// batch, then shuts the exporter down. Idempotent.
func (p *BatchSpanProcessor) Shutdown(ctx context.Context) error {
	var err error
	p.shutdownOnce.Do(func() {
		p.shutdown.Store(true)
		close(p.stopCh)

		select {
		case <-p.done:
		case <-ctx.Done():
			err = ctx.Err()
			return
		}

		if p.exporter != nil {
			err = p.exporter.Shutdown(ctx)
		}
	})
	return err
}

// Dropped returns the number of spans dropped because the queue was full.
func (p *BatchSpanProcessor) Dropped() uint64 {
	return p.dropped.Load()
}
