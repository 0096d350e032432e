package metricsService

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthFunc func(ctx context.Context) error

// Metrics holds the bet tracker collectors. A nil *Metrics is valid and
// records nothing, which keeps tests and optional wiring simple.
type Metrics struct {
	reconcileOutcomes      *prometheus.CounterVec
	settlements            *prometheus.CounterVec
	classificationFallback *prometheus.CounterVec
	betsCreated            *prometheus.CounterVec
	matchConfidence        prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		reconcileOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bettracker_reconcile_outcomes_total",
			Help: "Settlement screenshots by reconciliation outcome.",
		}, []string{"outcome"}),
		settlements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bettracker_settlements_total",
			Help: "Bet records settled, by terminal status.",
		}, []string{"status"}),
		classificationFallback: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bettracker_classification_fallbacks_total",
			Help: "Extracted values that matched no classification rule and fell back to a default.",
		}, []string{"field"}),
		betsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bettracker_bets_created_total",
			Help: "Bet records created, by initial status.",
		}, []string{"status"}),
		matchConfidence: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bettracker_match_confidence",
			Help:    "Confidence of every candidate returned by the matcher.",
			Buckets: []float64{60, 70, 80, 90, 100, 110},
		}),
	}
}

func (m *Metrics) ReconcileOutcome(outcome string) {
	if m == nil {
		return
	}
	m.reconcileOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Settled(status string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(status).Inc()
}

func (m *Metrics) ClassificationFallback(field string) {
	if m == nil {
		return
	}
	m.classificationFallback.WithLabelValues(field).Inc()
}

func (m *Metrics) BetCreated(status string) {
	if m == nil {
		return
	}
	m.betsCreated.WithLabelValues(status).Inc()
}

func (m *Metrics) MatchConfidence(confidence int) {
	if m == nil {
		return
	}
	m.matchConfidence.Observe(float64(confidence))
}

// StartMetricsServer serves /metrics and /healthz on its own port in a
// background goroutine. The caller owns shutdown.
func StartMetricsServer(port string, gatherer prometheus.Gatherer, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(fmt.Sprintf("unhealthy: %v", err)))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
