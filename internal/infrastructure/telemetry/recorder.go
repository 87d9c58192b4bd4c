package telemetry

import (
	"time"

	"ctfbot/internal/ports/output"
)

var _ output.Metrics = Recorder{}

// Recorder forwards application metrics to the Prometheus collectors.
type Recorder struct{}

func (Recorder) EventCreated() { IncEventsCreated() }
func (Recorder) EventArchived(trigger string) { IncEventsArchived(trigger) }
func (Recorder) Transition(stage string) { IncTransition(stage) }
func (Recorder) TrackedEvents(n int) { SetTrackedEvents(n) }
func (Recorder) ResponseChanged(r, act string) { IncResponse(r, act) }

func (Recorder) SweepObserved(d time.Duration) {
	if SweepDuration != nil {
		SweepDuration.Observe(d.Seconds())
	}
}
