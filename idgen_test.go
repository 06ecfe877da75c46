package tracekit

import (
	"context"
	"fmt"
	"testing"

	"github.com/zoobzio/clockz"
)

func TestIDPoolGet(t *testing.T) {
	var counter int
	pool := newIDPool(4, func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	})
	defer pool.close()

	id := pool.get()
	if id == "" {
		t.Error("Expected non-empty ID from pool")
	}
}

func TestIDPoolZeroCapacity(t *testing.T) {
	// No buffer to draw from; get must still produce IDs without blocking.
	pool := newIDPool(0, func() string { return "direct" })
	defer pool.close()

	if got := pool.get(); got != "direct" {
		t.Errorf("Expected 'direct', got %s", got)
	}
}

func TestIDPoolCloseIdempotent(t *testing.T) {
	pool := newIDPool(2, func() string { return "x" })
	pool.close()
	pool.close() // must not panic
}

func TestIdentitySourceShapes(t *testing.T) {
	ids := newIdentitySource(4, clockz.RealClock)
	defer ids.Close()

	// 16-byte trace IDs and 8-byte span IDs, lowercase hex.
	traceID, spanID := ids.TraceID(), ids.SpanID()
	if len(traceID) != 32 {
		t.Errorf("Expected 32-char trace ID, got %d chars (%s)", len(traceID), traceID)
	}
	if len(spanID) != 16 {
		t.Errorf("Expected 16-char span ID, got %d chars (%s)", len(spanID), spanID)
	}
	for _, c := range traceID + spanID {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			t.Fatalf("Expected lowercase hex IDs, found %q", c)
		}
	}
}

func TestIdentitySourceCloseIdempotent(t *testing.T) {
	ids := newIdentitySource(2, clockz.RealClock)
	ids.Close()
	ids.Close() // must not panic
}

func TestTracerIDShapes(t *testing.T) {
	tracer := NewTracer(NewSimpleSpanProcessor(nil))
	defer tracer.Close()

	_, span := tracer.StartSpan(context.Background(), "op")
	defer span.End()

	if len(span.TraceID()) != 32 {
		t.Errorf("Expected 32-char trace ID, got %d chars (%s)", len(span.TraceID()), span.TraceID())
	}
	if len(span.SpanID()) != 16 {
		t.Errorf("Expected 16-char span ID, got %d chars (%s)", len(span.SpanID()), span.SpanID())
	}
}

func TestTracerIDUniqueness(t *testing.T) {
	tracer := NewTracer(NewSimpleSpanProcessor(nil))
	defer tracer.Close()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		_, span := tracer.StartSpan(context.Background(), "op")
		if seen[span.SpanID()] {
			t.Fatalf("Duplicate span ID %s", span.SpanID())
		}
		seen[span.SpanID()] = true
		span.End()
	}
}
