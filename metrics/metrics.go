// Package metrics exports playback diagnostics in the Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vidtune-cli/vidtune/constant"
	"github.com/vidtune-cli/vidtune/log"
	"github.com/vidtune-cli/vidtune/playback"
)

const (
	saveImmediate = "immediate"
	savePeriodic  = "periodic"
)

// Collector implements playback.Diagnostics. Labels never carry video ids.
type Collector struct {
	commands   *prometheus.CounterVec
	outcomes   *prometheus.CounterVec
	retries    *prometheus.CounterVec
	retryDelay prometheus.Histogram
	queued     *prometheus.CounterVec
	discarded  prometheus.Counter
	saves      *prometheus.CounterVec
	phases     *prometheus.CounterVec
}

var _ playback.Diagnostics = (*Collector)(nil)

// NewCollector registers the playback metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	ns := constant.Vidtune

	return &Collector{
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "playback_commands_total",
			Help:      "Play and pause commands sent to the player",
		}, []string{"kind"}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "playback_command_outcomes_total",
			Help:      "Settled commands by kind and outcome",
		}, []string{"kind", "outcome"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "playback_command_retries_total",
			Help:      "Commands retried after a failure",
		}, []string{"kind"}),
		retryDelay: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "playback_retry_delay_seconds",
			Help:      "Backoff applied before a retry",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4},
		}),
		queued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "playback_commands_queued_total",
			Help:      "Commands deferred while the app was in the background",
		}, []string{"kind"}),
		discarded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "playback_events_discarded_total",
			Help:      "Player events that did not belong to the current video",
		}),
		saves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "position_saves_total",
			Help:      "Position writes by mode",
		}, []string{"mode"}),
		phases: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "playback_phase_transitions_total",
			Help:      "Session phase changes by target phase",
		}, []string{"phase"}),
	}
}

func (c *Collector) CommandIssued(_ string, kind playback.CommandKind) {
	c.commands.WithLabelValues(string(kind)).Inc()
}

func (c *Collector) CommandSettled(_ string, kind playback.CommandKind, outcome playback.Outcome) {
	c.outcomes.WithLabelValues(string(kind), string(outcome)).Inc()
}

func (c *Collector) CommandRetried(_ string, kind playback.CommandKind, _ int, delay time.Duration) {
	c.retries.WithLabelValues(string(kind)).Inc()
	c.retryDelay.Observe(delay.Seconds())
}

func (c *Collector) CommandQueued(_ string, kind playback.CommandKind) {
	c.queued.WithLabelValues(string(kind)).Inc()
}

func (c *Collector) EventDiscarded(string) {
	c.discarded.Inc()
}

func (c *Collector) PositionSaved(_ string, _ float64, immediate bool) {
	mode := savePeriodic
	if immediate {
		mode = saveImmediate
	}
	c.saves.WithLabelValues(mode).Inc()
}

func (c *Collector) PhaseChanged(_ string, phase playback.Phase) {
	c.phases.WithLabelValues(phase.String()).Inc()
}

// Handler serves the metrics gathered from g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Infof("serving metrics on %s", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
