// Package register реализует операции кассового регистратора поверх хранилища.
package register

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
)

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics подключает prometheus-метрики.
func WithMetrics(m *metrics.RegisterMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithOutbox включает запись событий в outbox.
func WithOutbox(repo domain.OutboxRepository) Option {
	return func(s *Service) {
		s.outbox = repo
	}
}

// Service управляет списком товаров текущего чека и журналом оплат.
type Service struct {
	products domain.ProductRepository
	orders   domain.OrderRepository
	outbox   domain.OutboxRepository
	metrics  *metrics.RegisterMetrics
	logger   *log.Entry
	now      func() time.Time

	// mu упорядочивает изменения списка вместе с метрикой и событиями outbox.
	mu sync.Mutex
}

// NewService создаёт сервис регистратора.
func NewService(products domain.ProductRepository, orders domain.OrderRepository, opts ...Option) *Service {
	s := &Service{
		products: products,
		orders:   orders,
		logger:   log.WithField("component", "register"),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddProduct добавляет сырое тело товара в конец списка.
func (s *Service) AddProduct(_ context.Context, body json.RawMessage) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	version, size, err := s.products.Append(body)
	if err != nil {
		return 0, fmt.Errorf("append product: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordProductAdded(size)
	}
	s.enqueue(domain.EventProductAdded, productAddedEvent{Version: version, Product: body})

	s.logger.WithField("version", version).Debug("product added")
	return version, nil
}

// ListProducts возвращает тела товаров в порядке добавления.
func (s *Service) ListProducts(_ context.Context) ([]json.RawMessage, uint64, error) {
	records, version, err := s.products.List()
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	bodies := make([]json.RawMessage, 0, len(records))
	for _, record := range records {
		bodies = append(bodies, record.Body)
	}
	return bodies, version, nil
}

// ClearProducts безусловно очищает список.
func (s *Service) ClearProducts(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	version, err := s.products.Clear()
	if err != nil {
		return 0, fmt.Errorf("clear products: %w", err)
	}
	s.afterClear(version)
	return version, nil
}

// ClearProductsIfVersion очищает список, только если с момента чтения
// версии он не менялся. При конфликте возвращает актуальную версию.
func (s *Service) ClearProductsIfVersion(_ context.Context, expected uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	version, err := s.products.ClearIfVersion(expected)
	if err != nil {
		if domain.IsVersionConflict(err) {
			if s.metrics != nil {
				s.metrics.RecordClearConflict()
			}
			s.logger.WithFields(log.Fields{
				"expected": expected,
				"current":  version,
			}).Info("conditional clear rejected")
			return version, err
		}
		return 0, fmt.Errorf("clear products: %w", err)
	}
	s.afterClear(version)
	return version, nil
}

// RecordCheckout сохраняет запись об оплате. Тело не интерпретируется.
func (s *Service) RecordCheckout(_ context.Context, body json.RawMessage) (domain.OrderRecord, error) {
	stored := make(json.RawMessage, len(body))
	copy(stored, body)

	order := domain.OrderRecord{
		ID:         uuid.NewString(),
		Body:       stored,
		ReceivedAt: s.now(),
	}
	if err := s.orders.Append(order); err != nil {
		return domain.OrderRecord{}, fmt.Errorf("append order: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordOrder()
	}
	s.enqueue(domain.EventCheckoutRecorded, checkoutRecordedEvent{
		OrderID:    order.ID,
		Order:      order.Body,
		ReceivedAt: order.ReceivedAt,
	})

	s.logger.WithField("order_id", order.ID).Info("checkout recorded")
	return order, nil
}

// OrdersCount возвращает число записанных оплат.
func (s *Service) OrdersCount() (int, error) {
	return s.orders.Count()
}

func (s *Service) afterClear(version uint64) {
	if s.metrics != nil {
		s.metrics.RecordProductsCleared()
	}
	s.enqueue(domain.EventProductsCleared, productsClearedEvent{Version: version})
	s.logger.WithField("version", version).Info("products cleared")
}

// enqueue пишет событие в outbox. Ошибка outbox не ломает операцию.
func (s *Service) enqueue(eventType domain.EventType, payload any) {
	if s.outbox == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.WithError(err).WithField("event_type", eventType).Warn("failed to marshal register event")
		return
	}

	if _, err := s.outbox.Enqueue(domain.OutboxMessage{
		EventType:  eventType,
		Payload:    raw,
		OccurredAt: s.now(),
	}); err != nil {
		s.logger.WithError(err).WithField("event_type", eventType).Warn("failed to enqueue register event")
	}
}

type productAddedEvent struct {
	Version uint64          `json:"version"`
	Product json.RawMessage `json:"product"`
}

type productsClearedEvent struct {
	Version uint64 `json:"version"`
}

type checkoutRecordedEvent struct {
	OrderID    string          `json:"order_id"`
	Order      json.RawMessage `json:"order"`
	ReceivedAt time.Time       `json:"received_at"`
}
