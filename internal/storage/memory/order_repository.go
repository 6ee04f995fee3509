package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// orderRepositoryInMemory накапливает записи об оплатах. Очистка товаров
// на этот список не влияет.
type orderRepositoryInMemory struct {
	mu     sync.Mutex
	orders []domain.OrderRecord
}

// NewOrderRepository возвращает in-memory журнал оплат.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{}
}

// Append добавляет запись в конец журнала.
func (r *orderRepositoryInMemory) Append(order domain.OrderRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.orders = append(r.orders, order)
	return nil
}

// Count возвращает количество записей.
func (r *orderRepositoryInMemory) Count() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.orders), nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
