package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RegisterMetrics содержит метрики кассового регистратора (сервер).
type RegisterMetrics struct {
	productsAdded   prometheus.Counter
	productsCleared prometheus.Counter
	clearConflicts  prometheus.Counter
	ordersRecorded  prometheus.Counter
	cartSize        prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewRegisterMetrics регистрирует метрики в DefaultRegisterer.
func NewRegisterMetrics() *RegisterMetrics {
	return NewRegisterMetricsWith(prometheus.DefaultRegisterer)
}

// NewRegisterMetricsWith регистрирует метрики в переданном registerer.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewRegisterMetricsWith(registerer prometheus.Registerer) *RegisterMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &RegisterMetrics{
		productsAdded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_products_added_total",
			Help: "Total number of scanned products added to the register",
		}),
		productsCleared: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_products_cleared_total",
			Help: "Total number of product list clears",
		}),
		clearConflicts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_clear_conflicts_total",
			Help: "Total number of conditional clears rejected because of a stale version",
		}),
		ordersRecorded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_orders_recorded_total",
			Help: "Total number of recorded checkouts",
		}),
		cartSize: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "checkout_cart_products",
			Help: "Number of products currently in the register",
		}),
		httpRequests: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "checkout_http_requests_total",
			Help: "Total number of HTTP requests grouped by route and status code",
		}, []string{"method", "route", "code"}),
		httpDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "checkout_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method", "route"}),
	}
}

// RecordProductAdded учитывает добавленный товар.
func (m *RegisterMetrics) RecordProductAdded(cartSize int) {
	m.productsAdded.Inc()
	m.cartSize.Set(float64(cartSize))
}

// RecordProductsCleared учитывает очистку списка.
func (m *RegisterMetrics) RecordProductsCleared() {
	m.productsCleared.Inc()
	m.cartSize.Set(0)
}

// RecordClearConflict учитывает отклонённую условную очистку.
func (m *RegisterMetrics) RecordClearConflict() {
	m.clearConflicts.Inc()
}

// RecordOrder учитывает записанную оплату.
func (m *RegisterMetrics) RecordOrder() {
	m.ordersRecorded.Inc()
}

// RecordHTTPRequest учитывает обработанный HTTP-запрос.
func (m *RegisterMetrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
