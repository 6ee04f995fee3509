package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestRegisterMetrics_ProductLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegisterMetricsWith(reg)

	m.RecordProductAdded(1)
	m.RecordProductAdded(2)

	require.Equal(t, float64(2), testutil.ToFloat64(m.productsAdded))
	require.Equal(t, float64(2), testutil.ToFloat64(m.cartSize))

	m.RecordProductsCleared()
	require.Equal(t, float64(1), testutil.ToFloat64(m.productsCleared))
	require.Equal(t, float64(0), testutil.ToFloat64(m.cartSize))

	m.RecordClearConflict()
	m.RecordOrder()
	require.Equal(t, float64(1), testutil.ToFloat64(m.clearConflicts))
	require.Equal(t, float64(1), testutil.ToFloat64(m.ordersRecorded))
}

func TestRegisterMetrics_HTTPRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegisterMetricsWith(reg)

	m.RecordHTTPRequest(http.MethodGet, "/product", http.StatusOK, 5*time.Millisecond)
	m.RecordHTTPRequest(http.MethodGet, "/product", http.StatusOK, 5*time.Millisecond)
	m.RecordHTTPRequest(http.MethodPost, "/product", http.StatusBadRequest, time.Millisecond)

	require.Equal(t, float64(2), testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/product", "200")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/product", "400")))

	metric := &dto.Metric{}
	observer, err := m.httpDuration.GetMetricWithLabelValues("GET", "/product")
	require.NoError(t, err)
	require.NoError(t, observer.(prometheus.Histogram).Write(metric))
	require.Equal(t, uint64(2), metric.GetHistogram().GetSampleCount())
}

func TestRegisterMetrics_ReRegisterReturnsExisting(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := NewRegisterMetricsWith(reg)
	first.RecordOrder()

	second := NewRegisterMetricsWith(reg)
	second.RecordOrder()

	require.Equal(t, float64(2), testutil.ToFloat64(first.ordersRecorded))
}

func TestBoardMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBoardMetrics(reg)

	m.RecordPoll("rendered")
	m.RecordPoll("noop")
	m.RecordPoll("noop")
	m.SetRenderedCards(3)
	m.RecordCheckout("completed", 13*time.Second)
	m.RecordCheckout("failed", time.Second)

	require.Equal(t, float64(2), testutil.ToFloat64(m.polls.WithLabelValues("noop")))
	require.Equal(t, float64(3), testutil.ToFloat64(m.renderedCards))
	require.Equal(t, float64(1), testutil.ToFloat64(m.checkouts.WithLabelValues("failed")))

	metric := &dto.Metric{}
	require.NoError(t, m.checkoutDuration.Write(metric))
	require.Equal(t, uint64(1), metric.GetHistogram().GetSampleCount())
}

func TestBoardMetrics_NilSafe(t *testing.T) {
	var m *BoardMetrics

	require.NotPanics(t, func() {
		m.RecordPoll("noop")
		m.SetRenderedCards(1)
		m.RecordCheckout("completed", time.Second)
	})
}
