// Package metrics exposes tally's Prometheus instruments on a private
// registry and optionally serves them over HTTP.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/five82/tally/internal/inventory"
)

const namespace = "tally"

// Metrics groups the instruments. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	malformed  prometheus.Counter
	recorded   prometheus.Counter
	reconciled prometheus.Gauge
	products   prometheus.Gauge
}

// New registers every instrument on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Backend requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_malformed_records_total",
			Help:      "Sale records dropped because they had no identity.",
		}),
		recorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_recorded_total",
			Help:      "Sales recorded from this client.",
		}),
		reconciled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sales_reconciled_records",
			Help:      "Distinct sale records held in memory.",
		}),
		products: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "products_loaded",
			Help:      "Products in the latest successful poll.",
		}),
	}
	reg.MustRegister(
		m.requests, m.malformed, m.recorded, m.reconciled, m.products,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest counts one backend request. It matches inventory.Observer.
func (m *Metrics) ObserveRequest(endpoint string, err error) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, inventory.Kind(err)).Inc()
}

// AddMalformed counts dropped sale records.
func (m *Metrics) AddMalformed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.malformed.Add(float64(n))
}

// SaleRecorded counts one successful sale.
func (m *Metrics) SaleRecorded() {
	if m == nil {
		return
	}
	m.recorded.Inc()
}

// SetReconciled reports the size of the reconciled collection.
func (m *Metrics) SetReconciled(n int) {
	if m == nil {
		return
	}
	m.reconciled.Set(float64(n))
}

// SetProducts reports the number of products loaded.
func (m *Metrics) SetProducts(n int) {
	if m == nil {
		return
	}
	m.products.Set(float64(n))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns a gin engine serving /metrics and /healthz.
func (m *Metrics) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})))
	}
	return router
}

// Serve listens on addr until ctx is cancelled. An empty addr returns
// immediately.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	if addr == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
