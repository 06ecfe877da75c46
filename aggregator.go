package tracekit

import "time"

// LatencyBandCount is the number of duration bands completed spans are
// grouped into: [0, 10µs), [10µs, 100µs), ... [100s, ∞).
const LatencyBandCount = 9

// maxSampleSpans bounds the example spans retained per band and per error
// set in aggregated data.
const maxSampleSpans = 5

var latencyBoundaries = [LatencyBandCount - 1]time.Duration{
	10 * time.Microsecond,
	100 * time.Microsecond,
	1 * time.Millisecond,
	10 * time.Millisecond,
	100 * time.Millisecond,
	1 * time.Second,
	10 * time.Second,
	100 * time.Second,
}

// LatencyBand returns the index of the band d falls into.
func LatencyBand(d time.Duration) int {
	for i, boundary := range latencyBoundaries {
		if d < boundary {
			return i
		}
	}
	return LatencyBandCount - 1
}

// TracezData summarizes all spans sharing one name within a registry
// snapshot: how many are running, how many ended in error, and a latency
// histogram of the rest, with a few sample spans per cell.
type TracezData struct {
	RunningCount   int
	ErrorCount     int
	LatencyCounts  [LatencyBandCount]int
	ErrorSamples   []*SpanData
	LatencySamples [LatencyBandCount][]*SpanData
}

// TracezDataAggregator groups a TracezSpanProcessor snapshot by span name.
// Each Aggregate call works on a fresh point-in-time snapshot, so the
// aggregator itself carries no state and is safe for concurrent use.
type TracezDataAggregator struct {
	processor *TracezSpanProcessor
}

// NewTracezDataAggregator returns an aggregator reading from p.
func NewTracezDataAggregator(p *TracezSpanProcessor) *TracezDataAggregator {
	return &TracezDataAggregator{processor: p}
}

// Aggregate takes a registry snapshot and groups it by span name.
func (a *TracezDataAggregator) Aggregate() map[Key]*TracezData {
	snap := a.processor.Snapshot()
	result := make(map[Key]*TracezData)

	group := func(name Key) *TracezData {
		td, ok := result[name]
		if !ok {
			td = &TracezData{}
			result[name] = td
		}
		return td
	}

	for _, rs := range snap.Running {
		group(rs.Name).RunningCount++
	}

	for _, sd := range snap.CompletedError {
		td := group(sd.Name())
		td.ErrorCount++
		td.ErrorSamples = appendSample(td.ErrorSamples, sd)
	}

	for _, sd := range snap.CompletedOK {
		td := group(sd.Name())
		band := LatencyBand(sd.Duration())
		td.LatencyCounts[band]++
		td.LatencySamples[band] = appendSample(td.LatencySamples[band], sd)
	}

	return result
}

// appendSample keeps the most recent maxSampleSpans entries.
func appendSample(samples []*SpanData, sd *SpanData) []*SpanData {
	samples = append(samples, sd)
	if len(samples) > maxSampleSpans {
		samples = samples[1:]
	}
	return samples
}
