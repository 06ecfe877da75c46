package tracekit

import (
	"context"
	"sync"
	"sync/atomic"
)

// SpanProcessor sits between span lifecycle and export. OnStart and OnEnd
// may be invoked concurrently from many span-owning goroutines; processors
// serialize access to any shared exporter or registry state internally.
type SpanProcessor interface {
	// MakeRecordable returns the buffer a new recording span will fill.
	MakeRecordable() Recordable

	// OnStart is called synchronously when a recording span starts. It must
	// not block.
	OnStart(s *Span)

	// OnEnd receives exclusive ownership of a finalized recordable. It is
	// called synchronously on the ending goroutine and must not let
	// failures escape to the caller.
	OnEnd(r Recordable)

	// ForceFlush exports any buffered spans, best-effort within ctx.
	ForceFlush(ctx context.Context) error

	// Shutdown flushes, forwards shutdown to the exporter and releases
	// resources. Idempotent; OnEnd after shutdown drops silently.
	Shutdown(ctx context.Context) error
}

// SimpleSpanProcessor exports each span synchronously on the ending
// goroutine, one single-element batch per span. Best-effort: export
// failures and panics are swallowed, never retried, never surfaced to the
// instrumented code.
//
// A nil exporter is accepted; the processor then drops every span, which is
// the intended configuration for tracers that only exercise sampling.
type SimpleSpanProcessor struct {
	exporter SpanExporter
	mu       sync.Mutex // serializes Export against itself and Shutdown
	shutdown atomic.Bool
}

var _ SpanProcessor = (*SimpleSpanProcessor)(nil)

// NewSimpleSpanProcessor returns a processor exporting through exporter,
// which may be nil for a null sink.
func NewSimpleSpanProcessor(exporter SpanExporter) *SimpleSpanProcessor {
	return &SimpleSpanProcessor{exporter: exporter}
}

// MakeRecordable implements SpanProcessor.
func (p *SimpleSpanProcessor) MakeRecordable() Recordable {
	if p.exporter == nil {
		return NewSpanData()
	}
	return p.exporter.MakeRecordable()
}

// OnStart implements SpanProcessor. The simple variant does nothing at
// span start.
func (p *SimpleSpanProcessor) OnStart(*Span) {}

// OnEnd implements SpanProcessor.
func (p *SimpleSpanProcessor) OnEnd(r Recordable) {
	if r == nil || p.exporter == nil || p.shutdown.Load() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shutdown.Load() {
		return
	}
	p.export(r)
}

// export runs a single-element export with panic containment. Tracing must
// never perturb the instrumented application's control flow.
func (p *SimpleSpanProcessor) export(r Recordable) {
	defer func() {
		_ = recover()
	}()
	p.exporter.Export(context.Background(), []Recordable{r})
}

// ForceFlush implements SpanProcessor. Nothing is buffered.
func (p *SimpleSpanProcessor) ForceFlush(context.Context) error {
	return nil
}

// Shutdown implements SpanProcessor.
func (p *SimpleSpanProcessor) Shutdown(ctx context.Context) error {
	if p.shutdown.Swap(true) {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exporter == nil {
		return nil
	}
	return p.exporter.Shutdown(ctx)
}
