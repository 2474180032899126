package prometheus

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultPrefix = "kitchen_service"

var (
	initOnce sync.Once

	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthErrorsCounter           *prometheus.CounterVec
	TenantContextMissingCounter prometheus.Counter

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Domain operation metrics
	IngredientOperationsCounter *prometheus.CounterVec
	ProductOperationsCounter    *prometheus.CounterVec

	// Sale metrics
	SalesCounter         *prometheus.CounterVec
	SaleUnitsCounter     *prometheus.CounterVec
	IngredientStockGauge *prometheus.GaugeVec

	// Cache metrics
	CacheRequestsCounter *prometheus.CounterVec
)

// InitMetrics registers all metrics under prefix. Only the first call has any effect.
func InitMetrics(prefix string) {
	initOnce.Do(func() {
		register(sanitize(prefix))
	})
}

func ensure() {
	InitMetrics(defaultPrefix)
}

func sanitize(prefix string) string {
	if prefix == "" {
		return defaultPrefix
	}
	return strings.NewReplacer("-", "_", ".", "_").Replace(prefix)
}

func register(prefix string) {
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthErrorsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of rejected bearer tokens",
		},
		[]string{"reason"},
	)

	TenantContextMissingCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_context_missing_total",
			Help: "Total number of requests without tenant context",
		},
	)

	DbOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	IngredientOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_ingredient_operations_total",
			Help: "Total number of ingredient operations",
		},
		[]string{"operation"},
	)

	ProductOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_product_operations_total",
			Help: "Total number of product operations",
		},
		[]string{"operation"},
	)

	SalesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_sales_total",
			Help: "Total number of sale attempts by outcome",
		},
		[]string{"outcome"},
	)

	SaleUnitsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_sale_units_total",
			Help: "Total number of product units sold",
		},
		[]string{"tenant_id"},
	)

	IngredientStockGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_ingredient_stock",
			Help: "Current stock level of ingredients in base units",
		},
		[]string{"tenant_id", "ingredient_id", "ingredient_name"},
	)

	CacheRequestsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_cache_requests_total",
			Help: "Product listing cache lookups by result",
		},
		[]string{"result"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	ensure()
	return func(startTime time.Time) {
		DbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordHTTPRequest records a served request
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	ensure()
	statusStr := strconv.Itoa(status)
	HttpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	HttpRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration.Seconds())
}

// RecordAuthError increments the rejected token counter
func RecordAuthError(reason string) {
	ensure()
	AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// RecordTenantContextMissing increments the missing tenant counter
func RecordTenantContextMissing() {
	ensure()
	TenantContextMissingCounter.Inc()
}

// RecordIngredientOperation increments the counter for ingredient operations
func RecordIngredientOperation(operation string) {
	ensure()
	IngredientOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordProductOperation increments the counter for product operations
func RecordProductOperation(operation string) {
	ensure()
	ProductOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordSale records a sale attempt. outcome is one of success, insufficient_stock, not_found, invalid, error.
func RecordSale(tenantID uint, outcome string, units int64) {
	ensure()
	SalesCounter.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		SaleUnitsCounter.WithLabelValues(strconv.FormatUint(uint64(tenantID), 10)).Add(float64(units))
	}
}

// UpdateIngredientStock sets the stock gauge for one ingredient
func UpdateIngredientStock(tenantID, ingredientID uint, name string, quantity int64) {
	ensure()
	IngredientStockGauge.WithLabelValues(
		strconv.FormatUint(uint64(tenantID), 10),
		strconv.FormatUint(uint64(ingredientID), 10),
		name,
	).Set(float64(quantity))
}

// RemoveIngredientStock drops the gauge series of a deleted ingredient
func RemoveIngredientStock(tenantID, ingredientID uint, name string) {
	ensure()
	IngredientStockGauge.DeleteLabelValues(
		strconv.FormatUint(uint64(tenantID), 10),
		strconv.FormatUint(uint64(ingredientID), 10),
		name,
	)
}

// RecordCacheLookup counts product cache hits and misses
func RecordCacheLookup(hit bool) {
	ensure()
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheRequestsCounter.WithLabelValues(result).Inc()
}
