// Package metrics exposes planner and HTTP counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

// Recorder owns the InsightMiner collectors on one registry.
type Recorder struct {
	gatherer prometheus.Gatherer

	BuildInfo           *prometheus.GaugeVec
	PlansTotal          *prometheus.CounterVec
	FallbacksTotal      *prometheus.CounterVec
	PlanDuration        *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		gatherer: reg,
		BuildInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "insightminer_build_info",
				Help: "Build information of InsightMiner",
			},
			[]string{"version", "commit", "date"},
		),
		PlansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insightminer_plans_total",
				Help: "Plans served, by provenance and KPI",
			},
			[]string{"planner", "kpi"},
		),
		FallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insightminer_fallbacks_total",
				Help: "Generative attempts that fell back to the registry, by reason",
			},
			[]string{"reason"},
		),
		PlanDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "insightminer_plan_duration_seconds",
				Help:    "Time spent producing a plan",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"planner"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insightminer_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "insightminer_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// SetBuildInfo publishes the running build.
func (r *Recorder) SetBuildInfo(version, commit, date string) {
	r.BuildInfo.WithLabelValues(version, commit, date).Set(1)
}

// ObservePlan implements ports.PlanRecorder.
func (r *Recorder) ObservePlan(result domain.PlanResult, durationSeconds float64) {
	provenance := string(result.Meta.Provenance())
	r.PlansTotal.WithLabelValues(provenance, result.Meta.KPI).Inc()
	r.PlanDuration.WithLabelValues(provenance).Observe(durationSeconds)
	if result.Meta.FallbackReason != domain.ReasonNone {
		r.FallbacksTotal.WithLabelValues(string(result.Meta.FallbackReason)).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per chi route pattern.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		path := req.URL.Path
		if rctx := chi.RouteContext(req.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		r.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(ww.Status())).Inc()
		r.HTTPRequestDuration.WithLabelValues(req.Method, path).Observe(time.Since(start).Seconds())
	})
}

var _ ports.PlanRecorder = (*Recorder)(nil)
