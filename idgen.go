package tracekit

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"
)

// newTraceID returns a fresh 16-byte trace ID as 32 lowercase hex chars.
// Falls back to a clock-derived ID if the random source is unavailable.
func newTraceID(clock clockz.Clock) string {
	id, err := uuid.NewRandom()
	if err != nil {
		return hex.EncodeToString([]byte(clock.Now().Format(time.RFC3339Nano)))
	}
	return hex.EncodeToString(id[:])
}

// newSpanID returns a fresh 8-byte span ID as 16 lowercase hex chars.
func newSpanID(clock clockz.Clock) string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(clock.Now().Format("15:04:05.000000")))
	}
	return hex.EncodeToString(b)
}

// identitySource produces the trace and span IDs handed to new spans. Each
// kind is backed by its own pool of pre-generated IDs, topped up in the
// background, so StartSpan rarely pays for random generation inline.
type identitySource struct {
	traceIDs *idPool
	spanIDs  *idPool
}

func newIdentitySource(capacity int, clock clockz.Clock) *identitySource {
	return &identitySource{
		traceIDs: newIDPool(capacity, func() string { return newTraceID(clock) }),
		spanIDs:  newIDPool(capacity, func() string { return newSpanID(clock) }),
	}
}

// TraceID returns an ID for a new root trace.
func (s *identitySource) TraceID() string { return s.traceIDs.get() }

// SpanID returns an ID for a new span.
func (s *identitySource) SpanID() string { return s.spanIDs.get() }

// Close stops both refill goroutines. Idempotent.
func (s *identitySource) Close() {
	s.traceIDs.close()
	s.spanIDs.close()
}

// idPool buffers pre-generated IDs of one kind.
type idPool struct {
	factory   func() string
	ids       chan string
	stopCh    chan struct{}
	closeOnce sync.Once
}

func newIDPool(capacity int, factory func() string) *idPool {
	p := &idPool{
		factory: factory,
		ids:     make(chan string, capacity),
		stopCh:  make(chan struct{}),
	}
	go p.fill()
	return p
}

// get returns a pooled ID, or generates one inline when burst load has
// drained the pool. Never blocks.
func (p *idPool) get() string {
	select {
	case id := <-p.ids:
		return id
	default:
		return p.factory()
	}
}

func (p *idPool) fill() {
	for {
		select {
		case p.ids <- p.factory():
		case <-p.stopCh:
			return
		}
	}
}

func (p *idPool) close() {
	p.closeOnce.Do(func() { close(p.stopCh) })
}
