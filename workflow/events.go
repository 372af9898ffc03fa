// ABOUTME: Lifecycle events emitted by the pipeline during a run.
// ABOUTME: An EventSink callback receives every event; sinks fan out to logs, NDJSON, and the run store.

package workflow

import "time"

// EventType identifies the kind of pipeline lifecycle event.
type EventType string

const (
	EventPipelineStarted   EventType = "pipeline.started"
	EventPipelineCompleted EventType = "pipeline.completed"
	EventPipelineFailed    EventType = "pipeline.failed"
	EventStageStarted      EventType = "stage.started"
	EventStageCompleted    EventType = "stage.completed"
	EventStageFailed       EventType = "stage.failed"

	// Build repair loop observability events.
	EventBuildAttempt   EventType = "build.attempt"
	EventBuildSucceeded EventType = "build.succeeded"
	EventBuildFailed    EventType = "build.failed"
	EventFixApplied     EventType = "fix.applied"
	EventFixFailed      EventType = "fix.failed"

	// Theme extraction and generation events.
	EventFileProcessed EventType = "file.processed"
	EventThemeWritten  EventType = "theme.written"
)

// Event represents one lifecycle event emitted during pipeline execution.
type Event struct {
	Type      EventType
	Stage     string
	Data      map[string]any
	Timestamp time.Time
}

// EventSink receives pipeline events. A nil sink is valid and drops events.
type EventSink func(Event)

// emit sends an event through the sink if one is set, stamping the time.
func emit(sink EventSink, typ EventType, stage string, data map[string]any) {
	if sink == nil {
		return
	}
	sink(Event{Type: typ, Stage: stage, Data: data, Timestamp: time.Now()})
}
