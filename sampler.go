package tracekit

import "context"

// SamplingDecision is the verdict a Sampler renders at span creation.
type SamplingDecision int

const (
	// Drop makes the span non-recording; no processor ever sees it.
	Drop SamplingDecision = iota
	// RecordOnly makes the span recording but not sampled.
	RecordOnly
	// RecordAndSample makes the span recording and sampled.
	RecordAndSample
)

// SamplingParameters carries everything a Sampler may inspect. Attributes
// are the caller-supplied initial attributes; samplers must not mutate them.
type SamplingParameters struct {
	ParentContext context.Context
	TraceID       string
	Name          Key
	Kind          SpanKind
	Attributes    Attributes
}

// SamplingResult is the decision plus any attributes the sampler wants
// merged into the span. Sampler attributes are applied before caller
// attributes, so callers win on key collision. When the decision is Drop
// the attributes are discarded; a dropped span never records anything.
type SamplingResult struct {
	Decision   SamplingDecision
	Attributes Attributes
}

// Sampler decides, once per StartSpan and on the caller's goroutine,
// whether a span records. Implementations must be safe for concurrent use
// and must not perform I/O with unbounded latency.
type Sampler interface {
	ShouldSample(p SamplingParameters) SamplingResult

	// Description identifies the sampler, e.g. "AlwaysOnSampler".
	Description() string
}

// AlwaysOnSampler samples every span.
type AlwaysOnSampler struct{}

// ShouldSample implements Sampler.
func (AlwaysOnSampler) ShouldSample(SamplingParameters) SamplingResult {
	return SamplingResult{Decision: RecordAndSample}
}

// Description implements Sampler.
func (AlwaysOnSampler) Description() string { return "AlwaysOnSampler" }

// AlwaysOffSampler drops every span.
type AlwaysOffSampler struct{}

// ShouldSample implements Sampler.
func (AlwaysOffSampler) ShouldSample(SamplingParameters) SamplingResult {
	return SamplingResult{Decision: Drop}
}

// Description implements Sampler.
func (AlwaysOffSampler) Description() string { return "AlwaysOffSampler" }
