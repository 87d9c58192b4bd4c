package application

import (
	"time"

	"ctfbot/internal/ports/output"
)

type noopMetrics struct{}

func (noopMetrics) EventCreated() {}
func (noopMetrics) EventArchived(string) {}
func (noopMetrics) ResponseChanged(string, string) {}
func (noopMetrics) Transition(string) {}
func (noopMetrics) TrackedEvents(int) {}
func (noopMetrics) SweepObserved(time.Duration) {}

// metricsOrNoop lets callers pass nil when they do not export metrics.
func metricsOrNoop(m output.Metrics) output.Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
