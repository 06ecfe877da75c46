package tracekit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// ExportResult is the coarse outcome of an export call.
type ExportResult int

const (
	ExportSuccess ExportResult = iota
	ExportFailure
)

// SpanExporter is the pluggable sink at the end of the pipeline. A single
// processor never calls Export concurrently with itself; exporters shared
// between processors must tolerate concurrent calls. After Shutdown, Export
// must report ExportFailure without performing work.
type SpanExporter interface {
	// MakeRecordable returns the buffer a new recording span will fill.
	// Exporters may return their own Recordable implementation to avoid a
	// conversion step at export time.
	MakeRecordable() Recordable

	// Export consumes a batch of finalized recordables. Ownership of the
	// batch transfers to the exporter. Timeouts and cancellation arrive via
	// ctx; retries are the exporter's business, the pipeline never retries.
	Export(ctx context.Context, batch []Recordable) ExportResult

	// Shutdown releases resources, best-effort within ctx. Idempotent.
	Shutdown(ctx context.Context) error
}

// InMemoryExporter collects exported spans for inspection. Intended for
// tests and diagnostics. Safe for concurrent use.
type InMemoryExporter struct {
	mu       sync.Mutex
	spans    []*SpanData
	shutdown atomic.Bool
}

var _ SpanExporter = (*InMemoryExporter)(nil)

// NewInMemoryExporter returns an empty in-memory exporter.
func NewInMemoryExporter() *InMemoryExporter {
	return &InMemoryExporter{}
}

// MakeRecordable implements SpanExporter.
func (e *InMemoryExporter) MakeRecordable() Recordable {
	return NewSpanData()
}

// Export implements SpanExporter.
func (e *InMemoryExporter) Export(_ context.Context, batch []Recordable) ExportResult {
	if e.shutdown.Load() {
		return ExportFailure
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range batch {
		if sd, ok := r.(*SpanData); ok && sd != nil {
			e.spans = append(e.spans, sd)
		}
	}
	return ExportSuccess
}

// Shutdown implements SpanExporter. Subsequent exports report failure.
func (e *InMemoryExporter) Shutdown(context.Context) error {
	e.shutdown.Store(true)
	return nil
}

// Spans returns a copy of the collected spans in export order.
func (e *InMemoryExporter) Spans() []*SpanData {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make([]*SpanData, len(e.spans))
	copy(result, e.spans)
	return result
}

// Count returns the number of spans collected so far.
func (e *InMemoryExporter) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.spans)
}

// Reset discards all collected spans.
func (e *InMemoryExporter) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.spans = e.spans[:0]
}

// WriterExporter serializes each span as one JSON object per line to an
// io.Writer. The wire shape is this exporter's own; the pipeline defines no
// on-wire format.
type WriterExporter struct {
	mu       sync.Mutex
	enc      *json.Encoder
	shutdown atomic.Bool
}

var _ SpanExporter = (*WriterExporter)(nil)

// spanRecord is the JSON shape emitted by WriterExporter.
type spanRecord struct {
	TraceID    string        `json:"trace_id"`
	SpanID     string        `json:"span_id"`
	ParentID   string        `json:"parent_id,omitempty"`
	Name       string        `json:"name"`
	Kind       string        `json:"kind"`
	StartTime  time.Time     `json:"start_time"`
	Duration   time.Duration `json:"duration"`
	Status     Status        `json:"status"`
	Attributes Attributes    `json:"attributes,omitempty"`
	Events     []Event       `json:"events,omitempty"`
	Links      []Link        `json:"links,omitempty"`
}

// NewWriterExporter returns an exporter that writes JSON lines to w.
func NewWriterExporter(w io.Writer) *WriterExporter {
	return &WriterExporter{enc: json.NewEncoder(w)}
}

// MakeRecordable implements SpanExporter.
func (e *WriterExporter) MakeRecordable() Recordable {
	return NewSpanData()
}

// Export implements SpanExporter.
func (e *WriterExporter) Export(_ context.Context, batch []Recordable) ExportResult {
	if e.shutdown.Load() {
		return ExportFailure
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	result := ExportSuccess
	for _, r := range batch {
		sd, ok := r.(*SpanData)
		if !ok || sd == nil {
			continue
		}

		rec := spanRecord{
			TraceID:    sd.TraceID(),
			SpanID:     sd.SpanID(),
			ParentID:   sd.ParentID(),
			Name:       sd.Name(),
			Kind:       sd.Kind().String(),
			StartTime:  sd.StartTime(),
			Duration:   sd.Duration(),
			Status:     sd.Status(),
			Attributes: sd.Attributes(),
			Events:     sd.Events(),
			Links:      sd.Links(),
		}
		if err := e.enc.Encode(rec); err != nil {
			result = ExportFailure
		}
	}
	return result
}

// Shutdown implements SpanExporter. Subsequent exports report failure.
func (e *WriterExporter) Shutdown(context.Context) error {
	e.shutdown.Store(true)
	return nil
}
