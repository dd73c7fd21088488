// Package metrics holds the Prometheus collectors of the sweet shop.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Purchase outcomes.
const (
	PurchaseOK           = "ok"
	PurchaseInsufficient = "insufficient"
	PurchaseRejected     = "rejected"
	PurchaseError        = "error"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sweet_shop",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sweet_shop",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	purchases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sweet_shop",
			Subsystem: "inventory",
			Name:      "purchases_total",
			Help:      "Purchase attempts by outcome.",
		},
		[]string{"result"},
	)

	unitsSold = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sweet_shop",
			Subsystem: "inventory",
			Name:      "units_sold_total",
			Help:      "Units removed from stock by purchases.",
		},
	)

	unitsRestocked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sweet_shop",
			Subsystem: "inventory",
			Name:      "units_restocked_total",
			Help:      "Units added to stock by restocks.",
		},
	)
)

func init() {
	Registry.MustRegister(httpRequests, httpDuration, purchases, unitsSold, unitsRestocked)
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one handled request. path should be the route
// template, not the raw URL, to keep label cardinality bounded.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordPurchase counts a purchase attempt; units is added to the sold
// counter only for successful purchases.
func RecordPurchase(result string, units int) {
	purchases.WithLabelValues(result).Inc()
	if result == PurchaseOK && units > 0 {
		unitsSold.Add(float64(units))
	}
}

func RecordRestock(units int) {
	if units > 0 {
		unitsRestocked.Add(float64(units))
	}
}
