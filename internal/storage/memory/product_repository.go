package memory

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// productRepositoryInMemory хранит список товаров текущего чека. Живёт столько же,
// сколько процесс; при рестарте теряется.
type productRepositoryInMemory struct {
	mu      sync.RWMutex
	items   []domain.ProductRecord
	version uint64
}

// NewProductRepository создаёт пустой in-memory список товаров.
func NewProductRepository() domain.ProductRepository {
	return &productRepositoryInMemory{}
}

// Append добавляет товар в конец списка.
func (r *productRepositoryInMemory) Append(body json.RawMessage) (uint64, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Копируем тело, чтобы вызывающий мог переиспользовать буфер.
	stored := make(json.RawMessage, len(body))
	copy(stored, body)

	r.items = append(r.items, domain.ProductRecord{Body: stored, AddedAt: time.Now().UTC()})
	r.version++
	return r.version, len(r.items), nil
}

// List возвращает копию списка в порядке добавления.
func (r *productRepositoryInMemory) List() ([]domain.ProductRecord, uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.ProductRecord, len(r.items))
	copy(result, r.items)
	return result, r.version, nil
}

// Clear заменяет список пустым. Повторный вызов ничего не меняет, кроме версии.
func (r *productRepositoryInMemory) Clear() (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = nil
	r.version++
	return r.version, nil
}

// ClearIfVersion очищает список только при совпадении версии.
func (r *productRepositoryInMemory) ClearIfVersion(version uint64) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.version != version {
		return r.version, domain.ErrVersionConflict
	}
	r.items = nil
	r.version++
	return r.version, nil
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
