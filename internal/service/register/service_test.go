package register

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite

	ctx      context.Context
	orders   domain.OrderRepository
	outbox   domain.OutboxRepository
	registry *prometheus.Registry
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.orders = memory.NewOrderRepository()
	s.outbox = memory.NewOutboxRepository()
	s.registry = prometheus.NewRegistry()
	s.service = NewService(
		memory.NewProductRepository(),
		s.orders,
		WithOutbox(s.outbox),
		WithMetrics(metrics.NewRegisterMetricsWith(s.registry)),
	)
}

func (s *ServiceSuite) TestAddAndList() {
	rice := json.RawMessage(`{"id":1,"name":"Rice","price":"250.00","taken":"2","unit":"kg","payable":"500.00"}`)
	dhal := json.RawMessage(`{"id":2,"name":"Dhal","payable":"150.50"}`)

	v1, err := s.service.AddProduct(s.ctx, rice)
	s.Require().NoError(err)
	v2, err := s.service.AddProduct(s.ctx, dhal)
	s.Require().NoError(err)
	s.Require().Greater(v2, v1)

	items, version, err := s.service.ListProducts(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(v2, version)
	s.Require().Len(items, 2)
	s.Require().JSONEq(string(rice), string(items[0]))
	s.Require().JSONEq(string(dhal), string(items[1]))
}

func (s *ServiceSuite) TestListEmpty() {
	items, _, err := s.service.ListProducts(s.ctx)
	s.Require().NoError(err)
	s.Require().NotNil(items)
	s.Require().Empty(items)
}

func (s *ServiceSuite) TestClearIsIdempotent() {
	_, err := s.service.AddProduct(s.ctx, json.RawMessage(`{"id":1}`))
	s.Require().NoError(err)

	_, err = s.service.ClearProducts(s.ctx)
	s.Require().NoError(err)
	_, err = s.service.ClearProducts(s.ctx)
	s.Require().NoError(err)

	items, _, err := s.service.ListProducts(s.ctx)
	s.Require().NoError(err)
	s.Require().Empty(items)
}

func (s *ServiceSuite) TestClearDoesNotTouchOrders() {
	_, err := s.service.RecordCheckout(s.ctx, json.RawMessage(`{"total":"650.50"}`))
	s.Require().NoError(err)

	_, err = s.service.ClearProducts(s.ctx)
	s.Require().NoError(err)

	count, err := s.service.OrdersCount()
	s.Require().NoError(err)
	s.Require().Equal(1, count)
}

func (s *ServiceSuite) TestClearIfVersionConflict() {
	version, err := s.service.AddProduct(s.ctx, json.RawMessage(`{"id":1}`))
	s.Require().NoError(err)
	_, err = s.service.AddProduct(s.ctx, json.RawMessage(`{"id":2}`))
	s.Require().NoError(err)

	current, err := s.service.ClearProductsIfVersion(s.ctx, version)
	s.Require().True(errors.Is(err, domain.ErrVersionConflict))
	s.Require().Equal(version+1, current)

	items, _, err := s.service.ListProducts(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(items, 2)

	_, err = s.service.ClearProductsIfVersion(s.ctx, current)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestRecordCheckoutAssignsID() {
	order, err := s.service.RecordCheckout(s.ctx, json.RawMessage(`{}`))
	s.Require().NoError(err)
	s.Require().NotEmpty(order.ID)
	s.Require().False(order.ReceivedAt.IsZero())
}

func (s *ServiceSuite) TestEventsEnqueuedInOrder() {
	_, err := s.service.AddProduct(s.ctx, json.RawMessage(`{"id":1}`))
	s.Require().NoError(err)
	_, err = s.service.RecordCheckout(s.ctx, json.RawMessage(`{"total":"500.00"}`))
	s.Require().NoError(err)
	_, err = s.service.ClearProducts(s.ctx)
	s.Require().NoError(err)

	pending, err := s.outbox.PullPending(10)
	s.Require().NoError(err)
	s.Require().Len(pending, 3)
	s.Require().Equal(domain.EventProductAdded, pending[0].EventType)
	s.Require().Equal(domain.EventCheckoutRecorded, pending[1].EventType)
	s.Require().Equal(domain.EventProductsCleared, pending[2].EventType)

	var added struct {
		Version uint64          `json:"version"`
		Product json.RawMessage `json:"product"`
	}
	s.Require().NoError(json.Unmarshal(pending[0].Payload, &added))
	s.Require().Equal(uint64(1), added.Version)
	s.Require().JSONEq(`{"id":1}`, string(added.Product))
}

func (s *ServiceSuite) TestCartGaugeFollowsConcurrentAddAndClear() {
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%10 == 0 {
				_, err := s.service.ClearProducts(s.ctx)
				s.NoError(err)
				return
			}
			_, err := s.service.AddProduct(s.ctx, json.RawMessage(`{"id":1}`))
			s.NoError(err)
		}(i)
	}
	wg.Wait()

	items, _, err := s.service.ListProducts(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(float64(len(items)), s.gauge("checkout_cart_products"))

	// версии в outbox идут строго по возрастанию
	pending, err := s.outbox.PullPending(1000)
	s.Require().NoError(err)
	s.Require().Len(pending, 100)
	var last uint64
	for _, event := range pending {
		var payload struct {
			Version uint64 `json:"version"`
		}
		s.Require().NoError(json.Unmarshal(event.Payload, &payload))
		s.Require().Greater(payload.Version, last)
		last = payload.Version
	}
}

func (s *ServiceSuite) gauge(name string) float64 {
	families, err := s.registry.Gather()
	s.Require().NoError(err)
	for _, family := range families {
		if family.GetName() == name {
			s.Require().Len(family.GetMetric(), 1)
			return family.GetMetric()[0].GetGauge().GetValue()
		}
	}
	s.FailNow("metric not found", name)
	return 0
}

func (s *ServiceSuite) TestWorksWithoutOptionalDependencies() {
	service := NewService(memory.NewProductRepository(), memory.NewOrderRepository())

	_, err := service.AddProduct(s.ctx, json.RawMessage(`[]`))
	s.Require().NoError(err)
	_, err = service.ClearProducts(s.ctx)
	s.Require().NoError(err)
}
