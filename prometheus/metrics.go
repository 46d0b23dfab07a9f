package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Invite lifecycle counter
	InviteCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iflowx_invites_total",
			Help: "Total number of invite lifecycle events",
		},
		[]string{"event"}, // created, verified, accepted, email_failed
	)

	// Engine error counter
	EngineErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iflowx_engine_errors_total",
			Help: "Total number of licensing engine errors by code",
		},
		[]string{"code"},
	)

	// Navigation resolutions
	NavResolveCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iflowx_nav_resolutions_total",
			Help: "Total number of navigation tree resolutions",
		},
		[]string{"outcome"}, // empty, populated
	)

	// License status outcomes
	LicenseStatusCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iflowx_license_status_total",
			Help: "Total number of license status evaluations by resulting state",
		},
		[]string{"state"},
	)

	// Tenant operation counter
	TenantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iflowx_tenant_operations_total",
			Help: "Total number of tenant operations",
		},
		[]string{"operation"}, // create, update, delete, grant, revoke
	)

	// Login counter
	LoginCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iflowx_login_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// Authentication errors
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iflowx_auth_errors_total",
			Help: "Total number of rejected API credentials",
		},
		[]string{"type"},
	)

	// Responses by status category (2xx, 4xx, 5xx)
	StatusCategoryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iflowx_http_status_category_total",
			Help: "Total number of responses by status category",
		},
		[]string{"category", "method", "endpoint"},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iflowx_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "iflowx_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Store operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "iflowx_db_operation_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // query, insert, update, upsert, delete
	)
)

// Gauge metrics
var (
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "iflowx_info",
			Help: "Information about the licensing service",
		},
		[]string{"version"},
	)

	// Active tenants, refreshed by the dashboard
	ActiveTenantsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "iflowx_active_tenants",
			Help: "Number of tenants with a currently active license window",
		},
	)
)

func init() {
	prometheus.MustRegister(InviteCounter)
	prometheus.MustRegister(EngineErrorCounter)
	prometheus.MustRegister(NavResolveCounter)
	prometheus.MustRegister(LicenseStatusCounter)
	prometheus.MustRegister(TenantOperationCounter)
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(StatusCategoryCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(InfoGauge)
	prometheus.MustRegister(ActiveTenantsGauge)

	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures a store operation; call the result with time.Now() when done
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(endTime.Sub(startTime).Seconds())
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			if category := statusCategory(c.Response().Status); category != "" {
				StatusCategoryCounter.With(prometheus.Labels{
					"category": category,
					"method":   method,
					"endpoint": endpoint,
				}).Inc()
			}

			return err
		}
	}
}

func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return ""
}

// RecordInviteEvent records an invite lifecycle event
func RecordInviteEvent(event string) {
	InviteCounter.With(prometheus.Labels{"event": event}).Inc()
}

// RecordEngineError records an engine error by code
func RecordEngineError(code string) {
	EngineErrorCounter.With(prometheus.Labels{"code": code}).Inc()
}

// RecordNavResolve records a navigation resolution
func RecordNavResolve(groups int) {
	outcome := "populated"
	if groups == 0 {
		outcome = "empty"
	}
	NavResolveCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordLicenseStatus records the state a license evaluation produced
func RecordLicenseStatus(state string) {
	LicenseStatusCounter.With(prometheus.Labels{"state": state}).Inc()
}

// RecordTenantOperation records a tenant operation
func RecordTenantOperation(operation string) {
	TenantOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordLogin records a login attempt result
func RecordLogin(result string) {
	LoginCounter.With(prometheus.Labels{"result": result}).Inc()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// UpdateActiveTenants updates the active tenants gauge
func UpdateActiveTenants(count int) {
	ActiveTenantsGauge.Set(float64(count))
}
