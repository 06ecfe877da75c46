package tracekit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBucketCapacity bounds each registry bucket unless overridden.
const DefaultBucketCapacity = 256

// RunningSpan is the registry's view of a span that has started but not yet
// ended, captured at start time.
type RunningSpan struct {
	TraceID   string
	SpanID    string
	ParentID  string
	Name      Key
	StartTime time.Time
}

// TracezSnapshot is a point-in-time copy of the registry, one consistent
// copy per bucket. Cross-bucket consistency is not guaranteed: a span
// ending during the snapshot may appear in both or neither view, which is
// acceptable for a diagnostic surface.
type TracezSnapshot struct {
	Running        []RunningSpan
	CompletedOK    []*SpanData
	CompletedError []*SpanData
}

// TracezSpanProcessor is an in-memory diagnostic registry of recent spans,
// partitioned into running, completed-ok and completed-error buckets. Each
// bucket is bounded; when full, the oldest entry is evicted. Entries are
// diagnostic, not authoritative — loss under pressure is expected.
//
// Many producer goroutines may insert while a reader enumerates; locking is
// per bucket and readers only hold a lock for the duration of a copy.
type TracezSpanProcessor struct {
	running   runningBucket
	okBucket  dataBucket
	errBucket dataBucket
	shutdown  atomic.Bool
}

var _ SpanProcessor = (*TracezSpanProcessor)(nil)

// TracezOption configures a TracezSpanProcessor.
type TracezOption func(*TracezSpanProcessor)

// WithBucketCapacity bounds each of the three buckets to n entries.
func WithBucketCapacity(n int) TracezOption {
	return func(p *TracezSpanProcessor) {
		if n > 0 {
			p.running.capacity = n
			p.okBucket.capacity = n
			p.errBucket.capacity = n
		}
	}
}

// NewTracezSpanProcessor returns a registry processor with default bucket
// capacity.
func NewTracezSpanProcessor(opts ...TracezOption) *TracezSpanProcessor {
	p := &TracezSpanProcessor{
		running:   runningBucket{capacity: DefaultBucketCapacity},
		okBucket:  dataBucket{capacity: DefaultBucketCapacity},
		errBucket: dataBucket{capacity: DefaultBucketCapacity},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MakeRecordable implements SpanProcessor. The registry keeps snapshots in
// their canonical SpanData form.
func (p *TracezSpanProcessor) MakeRecordable() Recordable {
	return NewSpanData()
}

// OnStart implements SpanProcessor: the span enters the running bucket.
func (p *TracezSpanProcessor) OnStart(s *Span) {
	if s == nil || p.shutdown.Load() {
		return
	}
	p.running.insert(RunningSpan{
		TraceID:   s.TraceID(),
		SpanID:    s.SpanID(),
		ParentID:  s.ParentID(),
		Name:      s.Name(),
		StartTime: s.StartTime(),
	})
}

// OnEnd implements SpanProcessor: the span leaves the running bucket and
// enters completed-ok or completed-error depending on its status.
func (p *TracezSpanProcessor) OnEnd(r Recordable) {
	sd, ok := r.(*SpanData)
	if !ok || sd == nil || p.shutdown.Load() {
		return
	}

	p.running.remove(sd.SpanID())
	if sd.Status().Code == StatusError {
		p.errBucket.insert(sd)
	} else {
		p.okBucket.insert(sd)
	}
}

// Snapshot returns a point-in-time copy of all three buckets, each ordered
// oldest first.
func (p *TracezSpanProcessor) Snapshot() TracezSnapshot {
	return TracezSnapshot{
		Running:        p.running.snapshot(),
		CompletedOK:    p.okBucket.snapshot(),
		CompletedError: p.errBucket.snapshot(),
	}
}

// RunningCount returns the number of spans currently in the running bucket.
func (p *TracezSpanProcessor) RunningCount() int {
	return p.running.count()
}

// ForceFlush implements SpanProcessor. The registry holds no exportable
// backlog.
func (p *TracezSpanProcessor) ForceFlush(context.Context) error {
	return nil
}

// Shutdown implements SpanProcessor. Further inserts drop silently.
func (p *TracezSpanProcessor) Shutdown(context.Context) error {
	p.shutdown.Store(true)
	return nil
}

// runningBucket holds running spans keyed by span ID with FIFO eviction.
type runningBucket struct {
	mu       sync.Mutex
	capacity int
	order    []string // span IDs, oldest first
	entries  map[string]RunningSpan
}

func (b *runningBucket) insert(rs RunningSpan) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.entries == nil {
		b.entries = make(map[string]RunningSpan, b.capacity)
	}
	if _, exists := b.entries[rs.SpanID]; !exists && len(b.order) >= b.capacity {
		oldest := b.order[0]
		b.order = b.order[1:]
		delete(b.entries, oldest)
	}
	if _, exists := b.entries[rs.SpanID]; !exists {
		b.order = append(b.order, rs.SpanID)
	}
	b.entries[rs.SpanID] = rs
}

func (b *runningBucket) remove(spanID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.entries[spanID]; !exists {
		return
	}
	delete(b.entries, spanID)
	for i, id := range b.order {
		if id == spanID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

func (b *runningBucket) snapshot() []RunningSpan {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]RunningSpan, 0, len(b.order))
	for _, id := range b.order {
		result = append(result, b.entries[id])
	}
	return result
}

func (b *runningBucket) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// dataBucket is a fixed-capacity ring of completed span snapshots.
type dataBucket struct {
	mu       sync.Mutex
	capacity int
	buf      []*SpanData
	next     int // ring write position once the buffer is full
}

func (b *dataBucket) insert(sd *SpanData) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.buf) < b.capacity {
		b.buf = append(b.buf, sd)
		return
	}
	b.buf[b.next] = sd
	b.next = (b.next + 1) % b.capacity
}

func (b *dataBucket) snapshot() []*SpanData {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]*SpanData, 0, len(b.buf))
	// next is the oldest entry once the ring has wrapped.
	result = append(result, b.buf[b.next:]...)
	result = append(result, b.buf[:b.next]...)
	return result
}
