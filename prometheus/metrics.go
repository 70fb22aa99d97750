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
	// Login counter
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_login_total",
			Help: "Total number of login attempts",
		},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Authentication error counter
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "invalid_token", "missing_token", "invalid_credentials" etc.
	)

	// Tenant resolution error counter
	TenantErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_tenant_errors_total",
			Help: "Total number of tenant resolution errors",
		},
		[]string{"type"}, // "missing_tenant_context", "tenant_not_found" etc.
	)

	// License operation counter
	LicenseOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_license_operations_total",
			Help: "Total number of license ledger operations",
		},
		[]string{"operation"}, // "list", "grant", "revoke"
	)

	// Seat limit rejection counter
	SeatLimitExceededCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_seat_limit_exceeded_total",
			Help: "Total number of grants rejected by the seat limit",
		},
	)

	// Transcription usage counters
	TranscriptionMinutesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_transcription_minutes_total",
			Help: "Total transcription minutes recorded",
		},
		[]string{"tenant_id"},
	)

	QuotaOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_quota_operations_total",
			Help: "Total number of quota engine operations",
		},
		[]string{"operation"}, // "get_usage", "record_usage", "update_config"
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hub_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hub_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// Active tenants
	ActiveTenantsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_active_tenants",
			Help: "Number of currently active tenants",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hub_info",
			Help: "Information about the hub service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(TenantErrorCounter)
	prometheus.MustRegister(LicenseOperationCounter)
	prometheus.MustRegister(SeatLimitExceededCounter)
	prometheus.MustRegister(TranscriptionMinutesCounter)
	prometheus.MustRegister(QuotaOperationCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(ActiveTenantsGauge)
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// RecordAuthError increments the auth error counter for the given type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordTenantError increments the tenant error counter for the given type
func RecordTenantError(errorType string) {
	TenantErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordLicenseOperation increments the license operation counter
func RecordLicenseOperation(operation string) {
	LicenseOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordQuotaOperation increments the quota operation counter
func RecordQuotaOperation(operation string) {
	QuotaOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordTranscriptionMinutes adds recorded minutes for a tenant
func RecordTranscriptionMinutes(tenantID uint, minutes int) {
	TranscriptionMinutesCounter.With(prometheus.Labels{
		"tenant_id": strconv.FormatUint(uint64(tenantID), 10),
	}).Add(float64(minutes))
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration and count
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

			return err
		}
	}
}
