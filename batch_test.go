package tracekit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

func newTestSpanData(name Key) *SpanData {
	sd := NewSpanData()
	sd.SetIdentity("trace", "span-"+name, "")
	sd.SetName(name)
	sd.SetStartTime(time.Unix(1, 0))
	sd.SetDuration(time.Millisecond)
	return sd
}

func TestBatchProcessorExportsOnBatchSize(t *testing.T) {
	exporter := NewInMemoryExporter()
	processor := NewBatchSpanProcessor(exporter, WithMaxBatchSize(2))
	defer func() { _ = processor.Shutdown(context.Background()) }()

	processor.OnEnd(newTestSpanData("a"))
	processor.OnEnd(newTestSpanData("b"))

	require.Eventually(t, func() bool {
		return exporter.Count() == 2
	}, 2*time.Second, time.Millisecond, "full batch should export without waiting for the interval")
}

func TestBatchProcessorFlushInterval(t *testing.T) {
	fakeClock := clockz.NewFakeClock()
	exporter := NewInMemoryExporter()
	processor := NewBatchSpanProcessor(exporter,
		WithBatchClock(fakeClock),
		WithFlushInterval(time.Second))
	defer func() { _ = processor.Shutdown(context.Background()) }()

	processor.OnEnd(newTestSpanData("a"))
	assert.Equal(t, 0, exporter.Count(), "partial batch waits for the interval")

	// Advance repeatedly: the span may still be in flight between the queue
	// and the loop's batch when the first interval fires.
	require.Eventually(t, func() bool {
		fakeClock.BlockUntilReady()
		fakeClock.Advance(time.Second)
		return exporter.Count() == 1
	}, 2*time.Second, time.Millisecond)
}

func TestBatchProcessorForceFlush(t *testing.T) {
	exporter := NewInMemoryExporter()
	processor := NewBatchSpanProcessor(exporter)
	defer func() { _ = processor.Shutdown(context.Background()) }()

	for i := 0; i < 3; i++ {
		processor.OnEnd(newTestSpanData(fmt.Sprintf("s%d", i)))
	}

	require.NoError(t, processor.ForceFlush(context.Background()))
	assert.Equal(t, 3, exporter.Count())
}

func TestBatchProcessorShutdownDrains(t *testing.T) {
	exporter := NewInMemoryExporter()
	processor := NewBatchSpanProcessor(exporter)

	for i := 0; i < 5; i++ {
		processor.OnEnd(newTestSpanData(fmt.Sprintf("s%d", i)))
	}

	require.NoError(t, processor.Shutdown(context.Background()))
	assert.Equal(t, 5, exporter.Count(), "shutdown exports everything queued")

	// Idempotent, and late spans drop silently.
	require.NoError(t, processor.Shutdown(context.Background()))
	processor.OnEnd(newTestSpanData("late"))
	assert.Equal(t, 5, exporter.Count())
}

// blockingExporter holds Export until released, to back the queue up.
type blockingExporter struct {
	release chan struct{}
	inner   *InMemoryExporter
}

func (e *blockingExporter) MakeRecordable() Recordable { return NewSpanData() }

func (e *blockingExporter) Export(ctx context.Context, batch []Recordable) ExportResult {
	<-e.release
	return e.inner.Export(ctx, batch)
}

func (e *blockingExporter) Shutdown(ctx context.Context) error {
	return e.inner.Shutdown(ctx)
}

func TestBatchProcessorDropsWhenQueueFull(t *testing.T) {
	blocking := &blockingExporter{
		release: make(chan struct{}),
		inner:   NewInMemoryExporter(),
	}
	processor := NewBatchSpanProcessor(blocking,
		WithMaxQueueSize(1),
		WithMaxBatchSize(1))

	// The loop pulls at most one span into a blocked export and one more
	// fits in the queue; everything beyond that must drop, not block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			processor.OnEnd(newTestSpanData(fmt.Sprintf("s%d", i)))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("OnEnd blocked on a full queue")
	}
	assert.Greater(t, processor.Dropped(), uint64(0))

	close(blocking.release)
	require.NoError(t, processor.Shutdown(context.Background()))
}

func TestBatchProcessorNullExporter(t *testing.T) {
	processor := NewBatchSpanProcessor(nil)

	processor.OnEnd(newTestSpanData("a"))
	require.NoError(t, processor.ForceFlush(context.Background()))
	require.NoError(t, processor.Shutdown(context.Background()))
}

// End-to-end through a tracer: batch processors implement the same
// SpanProcessor contract the simple processor does.
func TestBatchProcessorWithTracer(t *testing.T) {
	exporter := NewInMemoryExporter()
	processor := NewBatchSpanProcessor(exporter, WithMaxBatchSize(1))
	tracer := NewTracer(processor)
	defer tracer.Close()

	_, span := tracer.StartSpan(context.Background(), "batched-op")
	span.SetAttribute("k", StringValue("v"))
	span.End()

	require.Eventually(t, func() bool {
		return exporter.Count() == 1
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, Key("batched-op"), exporter.Spans()[0].Name())

	require.NoError(t, processor.Shutdown(context.Background()))
}
