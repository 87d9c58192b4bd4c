package output

import "time"

// Metrics receives the application's counters. Labels are plain strings so
// adapters can forward them as-is.
type Metrics interface {
	EventCreated()
	EventArchived(trigger string)
	ResponseChanged(response, action string)
	Transition(stage string)
	TrackedEvents(n int)
	SweepObserved(d time.Duration)
}
