// Package metricsserver exposes outaged's own process metrics on a
// loopback-only Prometheus endpoint (§1 EXPANDED), the way teacher
// daemons expose counters via daemon/httpmetric. This is local process
// visibility only — no cross-host aggregation, per the Non-goals.
package metricsserver

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AlertsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outaged_alerts_active_total",
		Help: "Number of assets currently holding an ACTIVE outage alert.",
	})
	AlertsRaised = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outaged_alerts_raised_total",
		Help: "Total number of ACTIVE outage alerts raised.",
	})
	AlertsResolved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outaged_alerts_resolved_total",
		Help: "Total number of outage alerts resolved.",
	})
	DeadDeviceScans = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outaged_dead_device_scans_total",
		Help: "Total number of dead-device scans run by OutageServer.",
	})
	PollerTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outaged_poller_ticks_total",
		Help: "Total number of OutageMetricPoller ticks processed.",
	})
)

func init() {
	prometheus.MustRegister(AlertsActive, AlertsRaised, AlertsResolved, DeadDeviceScans, PollerTicks)
}

// Server is the loopback-only /metrics HTTP endpoint.
type Server struct {
	http *http.Server
}

// New returns an unstarted metrics server bound to addr.
func New(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{http: &http.Server{Addr: addr, Handler: mux}}
}

// ListenAndServe blocks serving /metrics until Shutdown is called.
func (s *Server) ListenAndServe() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
