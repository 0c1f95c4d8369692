// Package metrics defines the observability hooks of the injector. The
// Prometheus implementation lives in infra/metrics; NopRecorder is used when
// metrics are disabled.
package metrics

import "time"

// Recorder collects injector activity.
type Recorder interface {
	// RecordReadinessPoll counts one done? round trip by outcome.
	RecordReadinessPoll(status string)
	// RecordReady marks the transition to the ready state.
	RecordReady()
	// RecordEmission counts one event forwarded to channel.
	RecordEmission(channel string)
	// RecordParseError counts a malformed record.
	RecordParseError()
	// RecordPass records a completed pass over the data file.
	RecordPass(emitted int, d time.Duration)
}

// NopRecorder implements Recorder with no-op methods.
type NopRecorder struct{}

func (NopRecorder) RecordReadinessPoll(string)    {}
func (NopRecorder) RecordReady()                  {}
func (NopRecorder) RecordEmission(string)         {}
func (NopRecorder) RecordParseError()             {}
func (NopRecorder) RecordPass(int, time.Duration) {}
