package tracekit

import "time"

// Event is a timed annotation recorded on a span.
type Event struct {
	Name       string     `json:"name"`
	Time       time.Time  `json:"time"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// Link references another span, with optional attributes describing the
// relationship.
type Link struct {
	TraceID    string     `json:"trace_id"`
	SpanID     string     `json:"span_id"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// Recordable is the mutable buffer a live span fills in place. A processor
// supplies one per recording span (typically from its exporter), the span
// writes through it while alive, and End freezes it and moves ownership to
// the processor. Implementations are only ever written from the owning
// span's goroutine; they do not need internal synchronization.
type Recordable interface {
	// SetIdentity records the span's trace ID, span ID and parent span ID.
	// parentID is empty for root spans.
	SetIdentity(traceID, spanID, parentID string)

	// SetName records the span name. Called again if the name is updated.
	SetName(name Key)

	// SetKind records the span kind.
	SetKind(kind SpanKind)

	// SetStartTime records the wall-clock start timestamp.
	SetStartTime(t time.Time)

	// SetDuration records the final duration. Called exactly once, at end.
	SetDuration(d time.Duration)

	// SetStatus records the span status. Last write wins.
	SetStatus(code StatusCode, description string)

	// SetAttribute records one attribute. Last write per key wins.
	SetAttribute(key string, value AttributeValue)

	// AddEvent appends a timed event.
	AddEvent(e Event)

	// AddLink appends a link to another span.
	AddLink(l Link)
}

// SpanData is the canonical Recordable implementation and the immutable
// snapshot exchanged with processors and exporters. Readers may hold a
// *SpanData indefinitely; nothing mutates it after the owning span ends.
type SpanData struct {
	traceID    string
	spanID     string
	parentID   string
	name       Key
	kind       SpanKind
	startTime  time.Time
	duration   time.Duration
	status     Status
	attributes Attributes
	events     []Event
	links      []Link
}

var _ Recordable = (*SpanData)(nil)

// NewSpanData returns an empty SpanData ready to be filled by a span.
func NewSpanData() *SpanData {
	return &SpanData{}
}

// SetIdentity implements Recordable.
func (d *SpanData) SetIdentity(traceID, spanID, parentID string) {
	d.traceID = traceID
	d.spanID = spanID
	d.parentID = parentID
}

// SetName implements Recordable.
func (d *SpanData) SetName(name Key) { d.name = name }

// SetKind implements Recordable.
func (d *SpanData) SetKind(kind SpanKind) { d.kind = kind }

// SetStartTime implements Recordable.
func (d *SpanData) SetStartTime(t time.Time) { d.startTime = t }

// SetDuration implements Recordable.
func (d *SpanData) SetDuration(dur time.Duration) { d.duration = dur }

// SetStatus implements Recordable.
func (d *SpanData) SetStatus(code StatusCode, description string) {
	d.status = Status{Code: code, Description: description}
}

// SetAttribute implements Recordable.
func (d *SpanData) SetAttribute(key string, value AttributeValue) {
	if d.attributes == nil {
		d.attributes = make(Attributes)
	}
	d.attributes[key] = value
}

// AddEvent implements Recordable.
func (d *SpanData) AddEvent(e Event) {
	e.Attributes = copyAttributes(e.Attributes)
	d.events = append(d.events, e)
}

// AddLink implements Recordable.
func (d *SpanData) AddLink(l Link) {
	l.Attributes = copyAttributes(l.Attributes)
	d.links = append(d.links, l)
}

// TraceID returns the trace this span belongs to.
func (d *SpanData) TraceID() string { return d.traceID }

// SpanID returns the span's own ID.
func (d *SpanData) SpanID() string { return d.spanID }

// ParentID returns the parent span ID, or "" for a root span.
func (d *SpanData) ParentID() string { return d.parentID }

// Name returns the span name.
func (d *SpanData) Name() Key { return d.name }

// Kind returns the span kind.
func (d *SpanData) Kind() SpanKind { return d.kind }

// StartTime returns the wall-clock start timestamp.
func (d *SpanData) StartTime() time.Time { return d.startTime }

// Duration returns the final duration, computed from the monotonic pair.
func (d *SpanData) Duration() time.Duration { return d.duration }

// EndTime returns the wall-clock start time plus the duration.
func (d *SpanData) EndTime() time.Time { return d.startTime.Add(d.duration) }

// Status returns the final status.
func (d *SpanData) Status() Status { return d.status }

// Attributes returns a copy of the attribute map.
func (d *SpanData) Attributes() Attributes {
	return copyAttributes(d.attributes)
}

// Events returns a copy of the recorded events.
func (d *SpanData) Events() []Event {
	cp := make([]Event, len(d.events))
	copy(cp, d.events)
	return cp
}

// Links returns a copy of the recorded links.
func (d *SpanData) Links() []Link {
	cp := make([]Link, len(d.links))
	copy(cp, d.links)
	return cp
}
