package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BoardMetrics собирает метрики клиента-табло.
type BoardMetrics struct {
	polls            *prometheus.CounterVec
	renderedCards    prometheus.Gauge
	checkouts        *prometheus.CounterVec
	checkoutDuration prometheus.Histogram
}

// NewBoardMetrics регистрирует метрики табло в переданном registerer.
func NewBoardMetrics(registerer prometheus.Registerer) *BoardMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &BoardMetrics{
		polls: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "checkout_board_polls_total",
			Help: "Total number of product list polls grouped by result",
		}, []string{"result"}),
		renderedCards: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "checkout_board_rendered_cards",
			Help: "Number of product cards currently rendered on the board",
		}),
		checkouts: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "checkout_board_checkouts_total",
			Help: "Total number of checkout flows grouped by result",
		}, []string{"result"}),
		checkoutDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "checkout_board_checkout_duration_seconds",
			Help:    "Duration of checkout flows from click to idle",
			Buckets: []float64{1, 5, 10, 13, 15, 20, 30, 60},
		}),
	}
}

// RecordPoll учитывает результат одного тика опроса.
func (m *BoardMetrics) RecordPoll(result string) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(result).Inc()
}

// SetRenderedCards выставляет число отрисованных карточек.
func (m *BoardMetrics) SetRenderedCards(n int) {
	if m == nil {
		return
	}
	m.renderedCards.Set(float64(n))
}

// RecordCheckout учитывает завершение сценария оплаты.
func (m *BoardMetrics) RecordCheckout(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(result).Inc()
	if result == "completed" {
		m.checkoutDuration.Observe(duration.Seconds())
	}
}
