// Package tracekit provides the in-process span pipeline of a distributed
// tracing library: samplers, spans, processors and exporters.
//
// tracekit focuses on span lifecycle and export without the complexity of
// full OpenTelemetry. A Tracer owns one Sampler and one SpanProcessor;
// StartSpan makes the sampling decision, returns a live Span, and End hands
// the frozen SpanData to the processor exactly once.
//
// Core Components:
//   - Tracer: composition root, creates spans and applies sampling.
//   - Span: mutable handle for a single unit of work.
//   - Recordable/SpanData: frozen snapshot exchanged with processors.
//   - SpanProcessor: routes snapshots (SimpleSpanProcessor,
//     BatchSpanProcessor, TracezSpanProcessor).
//   - SpanExporter: pluggable sink for finished span batches.
//
// Basic Usage:
//
//	exporter := tracekit.NewInMemoryExporter()
//	tracer := tracekit.NewTracer(tracekit.NewSimpleSpanProcessor(exporter))
//	defer tracer.Close()
//
//	ctx, span := tracer.StartSpan(ctx, "operation-name")
//	span.SetAttribute("user.id", tracekit.StringValue("123"))
//	defer span.End()
//
//	// Pass ctx to child operations; child spans link automatically.
//	_, child := tracer.StartSpan(ctx, "child-operation")
//	defer child.End()
//
// Thread Safety:
//
// Tracer, Sampler and every SpanProcessor are safe for concurrent use by
// multiple goroutines. A Span serializes its own mutations internally; End
// is safe to race with itself and freezes exactly once.
//
// Failure Policy:
//
// Nothing in this package panics or returns an error across the
// instrumentation boundary. Export failures are swallowed by processors,
// post-shutdown calls become silent drops, and diagnostic counters are the
// only visible residue.
package tracekit

// Key represents a span operation name.
type Key = string

// SpanKind describes the role a span plays in a trace.
type SpanKind int

const (
	SpanKindInternal SpanKind = iota
	SpanKindServer
	SpanKindClient
	SpanKindProducer
	SpanKindConsumer
)

// String returns the lowercase name of the kind.
func (k SpanKind) String() string {
	switch k {
	case SpanKindServer:
		return "server"
	case SpanKindClient:
		return "client"
	case SpanKindProducer:
		return "producer"
	case SpanKindConsumer:
		return "consumer"
	default:
		return "internal"
	}
}

// StatusCode is the coarse outcome recorded on a span.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

// String returns the canonical name of the status code.
func (c StatusCode) String() string {
	switch c {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "unset"
	}
}

// Status pairs a status code with an optional description.
type Status struct {
	Code        StatusCode `json:"code"`
	Description string     `json:"description,omitempty"`
}
