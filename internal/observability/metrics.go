// File: internal/observability/metrics.go
package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	ListingsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quickapply",
		Name:      "listings_processed_total",
		Help:      "Listings moved into a processed stage.",
	}, []string{"stage"}) // stage: ineligible, submitted, failed

	WizardSteps = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quickapply",
		Name:      "wizard_steps",
		Help:      "Steps taken per wizard run.",
		Buckets:   prometheus.LinearBuckets(1, 3, 10),
	}, []string{"outcome"})

	FieldsFilled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quickapply",
		Name:      "fields_filled_total",
		Help:      "Form controls handled by the fill pass.",
	}, []string{"tag", "result"}) // result: filled, skipped, error

	CampaignDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quickapply",
		Name:      "campaign_duration_seconds",
		Help:      "Wall time of a campaign run.",
		Buckets:   prometheus.ExponentialBuckets(30, 2, 8),
	})
)

// MetricsServer exposes the default registry on /metrics.
type MetricsServer struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewMetricsServer prepares a server listening on addr.
func NewMetricsServer(addr string, logger *zap.Logger) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &MetricsServer{
		srv:    &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		logger: logger.Named("metrics"),
	}
}

// Handler returns the underlying HTTP handler.
func (m *MetricsServer) Handler() http.Handler { return m.srv.Handler }

// Start serves in the background until Shutdown.
func (m *MetricsServer) Start() {
	go func() {
		m.logger.Info("Metrics endpoint listening.", zap.String("addr", m.srv.Addr))
		if err := m.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("Metrics server failed.", zap.Error(err))
		}
	}()
}

// Shutdown stops the server gracefully.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
