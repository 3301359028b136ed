package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/supertrooper/backend/internal/model"
	"github.com/supertrooper/backend/internal/service"
)

// MetricsHandler owns a private registry with request metrics and gauges
// that are recomputed from the database on every scrape.
type MetricsHandler struct {
	auditService *service.AuditService
	registry     *prometheus.Registry
	promHTTP     http.Handler

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	projects *prometheus.GaugeVec
	users    *prometheus.GaugeVec
}

func NewMetricsHandler(auditService *service.AuditService) *MetricsHandler {
	h := &MetricsHandler{
		auditService: auditService,
		registry:     prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supertrooper_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "supertrooper_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		projects: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "supertrooper_projects",
			Help: "Number of projects per status",
		}, []string{"status"}),
		users: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "supertrooper_users",
			Help: "Number of users per role",
		}, []string{"role"}),
	}
	h.registry.MustRegister(h.requests, h.latency, h.projects, h.users)
	h.promHTTP = promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{Registry: h.registry})
	return h
}

// Instrument records every request that reached a route.
func (h *MetricsHandler) Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		h.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		h.latency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// GET /metrics
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	stats, err := h.auditService.Stats(c.Request.Context())
	if err != nil {
		InternalError(c, err)
		return
	}
	for _, s := range []model.ProjectStatus{model.ProjectActive, model.ProjectInactive, model.ProjectArchived} {
		h.projects.WithLabelValues(string(s)).Set(float64(stats.ProjectsByStatus[s]))
	}
	for _, r := range []model.Role{model.RoleAdmin, model.RoleUser, model.RoleGuest} {
		h.users.WithLabelValues(string(r)).Set(float64(stats.UsersByRole[r]))
	}
	h.promHTTP.ServeHTTP(c.Writer, c.Request)
}
