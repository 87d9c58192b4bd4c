// Package telemetry exposes the bot's Prometheus metrics.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	EventsCreated  prometheus.Counter
	EventsArchived *prometheus.CounterVec // by trigger: sweep, manual
	Responses      *prometheus.CounterVec // by response and action
	Transitions    *prometheus.CounterVec // by stage: imminent, started
	PlatformRetry  *prometheus.CounterVec // by operation
	SweepDuration  prometheus.Observer
	TrackedEvents  prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		EventsCreated = promauto.NewCounter(prometheus.CounterOpts{Name: "ctfbot_events_created_total", Help: "Number of announced events"})
		EventsArchived = promauto.NewCounterVec(prometheus.CounterOpts{Name: "ctfbot_events_archived_total", Help: "Number of archived events"}, []string{"trigger"})
		Responses = promauto.NewCounterVec(prometheus.CounterOpts{Name: "ctfbot_responses_total", Help: "RSVP changes"}, []string{"response", "action"})
		Transitions = promauto.NewCounterVec(prometheus.CounterOpts{Name: "ctfbot_lifecycle_transitions_total", Help: "Lifecycle notices fired by the sweep"}, []string{"stage"})
		PlatformRetry = promauto.NewCounterVec(prometheus.CounterOpts{Name: "ctfbot_platform_retries_total", Help: "Retried Discord API calls"}, []string{"operation"})
		SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "ctfbot_sweep_duration_seconds", Help: "Duration of one sweep tick", Buckets: prometheus.DefBuckets})
		TrackedEvents = promauto.NewGauge(prometheus.GaugeOpts{Name: "ctfbot_tracked_events", Help: "Events currently tracked in memory"})
	})
}

// The helpers below are no-ops until Init has run, so tests and tools can
// use the application layer without a registry.

func IncEventsCreated() {
	if EventsCreated != nil {
		EventsCreated.Inc()
	}
}

func IncEventsArchived(trigger string) {
	if EventsArchived != nil {
		EventsArchived.WithLabelValues(trigger).Inc()
	}
}

func IncResponse(response, action string) {
	if Responses != nil {
		Responses.WithLabelValues(response, action).Inc()
	}
}

func IncTransition(stage string) {
	if Transitions != nil {
		Transitions.WithLabelValues(stage).Inc()
	}
}

func IncPlatformRetry(operation string) {
	if PlatformRetry != nil {
		PlatformRetry.WithLabelValues(operation).Inc()
	}
}

func SetTrackedEvents(n int) {
	if TrackedEvents != nil {
		TrackedEvents.Set(float64(n))
	}
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
