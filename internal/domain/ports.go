package domain

import (
	"context"
	"encoding/json"
	"time"
)

// ProductRepository описывает хранилище отсканированных товаров.
type ProductRepository interface {
	// Append добавляет товар в конец списка и возвращает новую версию и длину списка.
	Append(body json.RawMessage) (version uint64, size int, err error)
	// List возвращает все товары в порядке добавления и текущую версию.
	List() ([]ProductRecord, uint64, error)
	// Clear очищает список и возвращает новую версию.
	Clear() (uint64, error)
	// ClearIfVersion очищает список, только если версия не изменилась.
	// Иначе возвращает ErrVersionConflict и актуальную версию.
	ClearIfVersion(version uint64) (uint64, error)
}

// OrderRepository хранит записи об оплатах. Чтение наружу не предоставляется.
type OrderRepository interface {
	Append(order OrderRecord) error
	Count() (int, error)
}

// OutboxPublisher публикует события регистратора во внешний брокер.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(ctx context.Context, event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxPruner удаляет события, которые больше не будут публиковаться:
// отправленные и окончательно упавшие.
type OutboxPruner interface {
	DeleteFinishedBefore(before time.Time, limit int) (int, error)
}

// EventType задаёт тип события регистратора.
type EventType string

const (
	EventProductAdded     EventType = "product.added"
	EventProductsCleared  EventType = "products.cleared"
	EventCheckoutRecorded EventType = "checkout.recorded"
)

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID         string
	EventType  EventType
	Payload    []byte
	OccurredAt time.Time
}

// OutboxStats описывает текущее состояние backlog outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
	FailedCount     int
}
