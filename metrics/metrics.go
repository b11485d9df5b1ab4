package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "objbench"

// Metrics collects request, check and virtual user figures of a run.
type Metrics struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	checks    *prometheus.CounterVec
	activeVUs prometheus.Gauge
}

// New registers the run metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "HTTP requests issued against the object store, by method and status code.",
		}, []string{"method", "status"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests issued against the object store.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}, []string{"method"}),
		checks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Check outcomes recorded by virtual users.",
		}, []string{"check", "result"}),
		activeVUs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_vus",
			Help:      "Virtual users currently iterating.",
		}),
	}
}

// ObserveRequest records one request. A status of 0 means the request failed before a response arrived.
func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	statusLabel := "error"
	if status > 0 {
		statusLabel = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, statusLabel).Inc()
	m.latency.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveCheck counts one outcome of the named check.
func (m *Metrics) ObserveCheck(name string, ok bool) {
	result := "fail"
	if ok {
		result = "pass"
	}
	m.checks.WithLabelValues(name, result).Inc()
}

// VUStarted marks a virtual user as iterating.
func (m *Metrics) VUStarted() { m.activeVUs.Inc() }

// VUStopped undoes VUStarted.
func (m *Metrics) VUStopped() { m.activeVUs.Dec() }

// Serve exposes the gathered metrics on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, sugar *zap.SugaredLogger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %v: %w", addr, err)
	}
	return ServeListener(ctx, ln, g, sugar)
}

// ServeListener is Serve on an already bound listener. It returns nil after a clean shutdown.
func ServeListener(ctx context.Context, ln net.Listener, g prometheus.Gatherer, sugar *zap.SugaredLogger) error {
	addr := ln.Addr().String()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			sugar.Warnw("Failed to shut down metrics server", "err", err, "addr", addr)
		}
	}()

	sugar.Infow("Serving metrics", "addr", addr, "path", "/metrics")
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics on %v: %w", addr, err)
	}
	return nil
}
