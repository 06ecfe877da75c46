package tracekit

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// contextBundle holds both tracer and span to reduce context allocations.
type contextBundle struct {
	tracer *Tracer
	span   *Span
}

// Tracer is the composition root of the pipeline: it owns a Sampler and a
// SpanProcessor, creates spans, and applies the sampling decision.
// Safe for concurrent use by multiple goroutines; the Tracer itself holds
// no per-span mutable state.
type Tracer struct {
	processor SpanProcessor
	sampler   Sampler
	clock     clockz.Clock
	ids       *identitySource
	idsOnce   sync.Once
}

// TracerOption configures a Tracer.
type TracerOption func(*Tracer)

// WithSampler sets the sampler. The default is AlwaysOnSampler.
func WithSampler(s Sampler) TracerOption {
	return func(t *Tracer) {
		if s != nil {
			t.sampler = s
		}
	}
}

// WithClock injects the time source used for span start, end and event
// timestamps. Enables deterministic testing with fake clocks.
func WithClock(clock clockz.Clock) TracerOption {
	return func(t *Tracer) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// NewTracer creates a tracer routing spans through processor. A nil
// processor is replaced by a simple processor with a null sink, so a tracer
// built only to exercise sampling still works.
func NewTracer(processor SpanProcessor, opts ...TracerOption) *Tracer {
	if processor == nil {
		processor = NewSimpleSpanProcessor(nil)
	}
	t := &Tracer{
		processor: processor,
		sampler:   AlwaysOnSampler{},
		clock:     clockz.RealClock,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Sampler returns the tracer's sampler.
func (t *Tracer) Sampler() Sampler {
	return t.sampler
}

// Processor returns the tracer's span processor.
func (t *Tracer) Processor() SpanProcessor {
	return t.processor
}

// ensureIdentitySource initializes the ID pools if not already created.
func (t *Tracer) ensureIdentitySource() {
	t.idsOnce.Do(func() {
		// Pool size based on number of CPUs for optimal contention balance.
		t.ids = newIdentitySource(runtime.NumCPU()*100, t.clock)
	})
}

// startOptions collects the recognized StartSpan options.
type startOptions struct {
	startTime      time.Time
	steadyTime     time.Duration
	hasSteadyTime  bool
	kind           SpanKind
	parentTraceID  string
	parentSpanID   string
	parentOverride bool
	attributes     Attributes
}

// SpanStartOption configures a StartSpan call.
type SpanStartOption func(*startOptions)

// WithStartTime sets an explicit wall-clock start timestamp.
func WithStartTime(ts time.Time) SpanStartOption {
	return func(o *startOptions) { o.startTime = ts }
}

// WithStartSteadyTime sets an explicit monotonic start timestamp, expressed
// as an offset on the steady clock. When both start and end steady times
// are supplied the duration is their difference.
func WithStartSteadyTime(d time.Duration) SpanStartOption {
	return func(o *startOptions) {
		o.steadyTime = d
		o.hasSteadyTime = true
	}
}

// WithSpanKind sets the span kind. The default is SpanKindInternal.
func WithSpanKind(kind SpanKind) SpanStartOption {
	return func(o *startOptions) { o.kind = kind }
}

// WithParent overrides parent resolution from the context with an explicit
// trace and span ID, e.g. one extracted from a remote caller.
func WithParent(traceID, spanID string) SpanStartOption {
	return func(o *startOptions) {
		o.parentTraceID = traceID
		o.parentSpanID = spanID
		o.parentOverride = true
	}
}

// WithAttributes sets the span's initial attributes. They are visible to
// the sampler and win over sampler-injected attributes on key collision.
func WithAttributes(attrs Attributes) SpanStartOption {
	return func(o *startOptions) { o.attributes = attrs }
}

// StartSpan runs the sampler, creates a span in the resulting state and
// returns it along with a context carrying it. If the context contains an
// existing span and no parent override is given, the new span is its child.
//
// Non-recording spans (sampler decision Drop) still carry identity and
// accept the full mutation API, silently discarding it; no processor call
// is ever made for them.
func (t *Tracer) StartSpan(ctx context.Context, name Key, opts ...SpanStartOption) (context.Context, *Span) {
	// Handle nil context by creating a new one.
	if ctx == nil {
		ctx = context.Background()
	}

	var cfg startOptions
	for _, opt := range opts {
		opt(&cfg)
	}

	t.ensureIdentitySource()

	var parentTraceID, parentSpanID string
	switch {
	case cfg.parentOverride:
		parentTraceID, parentSpanID = cfg.parentTraceID, cfg.parentSpanID
	default:
		if parent := GetSpan(ctx); parent != nil {
			parentTraceID, parentSpanID = parent.TraceID(), parent.SpanID()
		}
	}

	traceID := parentTraceID
	if traceID == "" {
		traceID = t.ids.TraceID()
	}
	spanID := t.ids.SpanID()

	result := t.sampler.ShouldSample(SamplingParameters{
		ParentContext: ctx,
		TraceID:       traceID,
		Name:          name,
		Kind:          cfg.kind,
		Attributes:    cfg.attributes,
	})

	startTime := cfg.startTime
	if startTime.IsZero() {
		startTime = t.clock.Now()
	}

	span := &Span{
		tracer:         t,
		traceID:        traceID,
		spanID:         spanID,
		parentID:       parentSpanID,
		name:           name,
		kind:           cfg.kind,
		startTime:      startTime,
		startSteady:    cfg.steadyTime,
		hasStartSteady: cfg.hasSteadyTime,
		sampled:        result.Decision == RecordAndSample,
	}

	if result.Decision != Drop {
		rec := t.processor.MakeRecordable()
		if rec == nil {
			rec = NewSpanData()
		}
		rec.SetIdentity(traceID, spanID, parentSpanID)
		rec.SetName(name)
		rec.SetKind(cfg.kind)
		rec.SetStartTime(startTime)

		// Sampler attributes first so caller attributes win on collision.
		for k, v := range result.Attributes {
			rec.SetAttribute(k, v)
		}
		for k, v := range cfg.attributes {
			rec.SetAttribute(k, v)
		}

		span.rec = rec
		t.processor.OnStart(span)
	}

	// Create new context with bundled tracer and span (single allocation).
	bundle := &contextBundle{tracer: t, span: span}
	newCtx := context.WithValue(ctx, bundleKey, bundle)

	return newCtx, span
}

// Close releases the tracer's ID pools. It does not shut down the
// processor; callers owning the processor shut it down separately.
func (t *Tracer) Close() {
	if t.ids != nil {
		t.ids.Close()
	}
}
