package tracekit

import (
	"context"
	"sync"
	"time"
)

// bundleKeyType is a private type for context keys to avoid collisions.
type bundleKeyType string

const (
	bundleKey bundleKeyType = "tracekit"
)

// Span is the mutable, user-facing handle for a single unit of work. It is
// exclusively owned by the caller that received it from StartSpan; End
// freezes its contents and moves ownership of the snapshot to the
// processor.
//
// Mutations serialize internally, and End is safe to race with itself:
// exactly one of N concurrent End calls produces the snapshot.
type Span struct {
	tracer *Tracer
	rec    Recordable // nil when non-recording; moved out at End

	traceID  string
	spanID   string
	parentID string
	kind     SpanKind

	startTime      time.Time
	startSteady    time.Duration
	hasStartSteady bool
	sampled        bool

	mu    sync.Mutex
	name  Key
	ended bool
}

// TraceID returns the trace ID of this span.
func (s *Span) TraceID() string { return s.traceID }

// SpanID returns the span ID of this span.
func (s *Span) SpanID() string { return s.spanID }

// ParentID returns the parent span ID, or "" for a root span.
func (s *Span) ParentID() string { return s.parentID }

// Kind returns the span kind.
func (s *Span) Kind() SpanKind { return s.kind }

// StartTime returns the wall-clock start timestamp.
func (s *Span) StartTime() time.Time { return s.startTime }

// Name returns the span's current name.
func (s *Span) Name() Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// IsSampled reports whether the sampler chose RecordAndSample.
func (s *Span) IsSampled() bool { return s.sampled }

// IsRecording reports whether mutations still reach a recordable.
func (s *Span) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec != nil && !s.ended
}

// SetAttribute records an attribute. Last write per key wins. Silently
// discarded on non-recording or ended spans, so call sites never branch on
// sampling state.
func (s *Span) SetAttribute(key string, value AttributeValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec == nil || s.ended {
		return
	}
	s.rec.SetAttribute(key, value)
}

// AddEvent records a timed event, stamped with the tracer's clock.
func (s *Span) AddEvent(name string, attrs Attributes) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec == nil || s.ended {
		return
	}
	s.rec.AddEvent(Event{
		Name:       name,
		Time:       s.tracer.clock.Now(),
		Attributes: attrs,
	})
}

// AddLink records a link to another span.
func (s *Span) AddLink(l Link) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec == nil || s.ended {
		return
	}
	s.rec.AddLink(l)
}

// SetStatus records the span status. Last write wins.
func (s *Span) SetStatus(code StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec == nil || s.ended {
		return
	}
	s.rec.SetStatus(code, description)
}

// UpdateName renames the span while it is still recording.
func (s *Span) UpdateName(name Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec == nil || s.ended {
		return
	}
	s.name = name
	s.rec.SetName(name)
}

// endOptions collects the recognized End options.
type endOptions struct {
	endTime       time.Time
	steadyTime    time.Duration
	hasSteadyTime bool
}

// SpanEndOption configures an End call.
type SpanEndOption func(*endOptions)

// WithEndTime sets an explicit wall-clock end timestamp.
func WithEndTime(ts time.Time) SpanEndOption {
	return func(o *endOptions) { o.endTime = ts }
}

// WithEndSteadyTime sets an explicit monotonic end timestamp. Used verbatim
// for duration computation when the span also has a steady start time.
func WithEndSteadyTime(d time.Duration) SpanEndOption {
	return func(o *endOptions) {
		o.steadyTime = d
		o.hasSteadyTime = true
	}
}

// End freezes the span and hands the snapshot to the processor exactly
// once. Subsequent calls are no-ops, as is ending a non-recording span.
//
// Duration comes from the steady pair when both ends supplied one;
// otherwise from the wall-clock pair. Wall-clock values read from the real
// clock carry Go's monotonic reading, so the subtraction stays correct
// under clock adjustment.
func (s *Span) End(opts ...SpanEndOption) {
	var cfg endOptions
	for _, opt := range opts {
		opt(&cfg)
	}

	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true

	rec := s.rec
	s.rec = nil

	var duration time.Duration
	if rec != nil {
		if cfg.hasSteadyTime && s.hasStartSteady {
			duration = cfg.steadyTime - s.startSteady
		} else {
			endTime := cfg.endTime
			if endTime.IsZero() {
				endTime = s.tracer.clock.Now()
			}
			duration = endTime.Sub(s.startTime)
		}
	}
	s.mu.Unlock()

	if rec == nil {
		return
	}

	// Exclusive ownership of rec has passed to this call; finalize and move
	// it to the processor.
	rec.SetDuration(duration)
	s.tracer.processor.OnEnd(rec)
}

// Context returns a new context with this span embedded. The returned
// context can be used to start child spans.
func (s *Span) Context(parent context.Context) context.Context {
	bundle := &contextBundle{tracer: s.tracer, span: s}
	return context.WithValue(parent, bundleKey, bundle)
}

// GetSpan extracts the current span from a context.
// Returns nil if no span is present.
func GetSpan(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}

	if bundle, ok := ctx.Value(bundleKey).(*contextBundle); ok {
		return bundle.span
	}

	return nil
}
