package domain

import "errors"

var (
	// ErrInvalidBody возвращается, если тело запроса не является JSON-объектом или массивом.
	ErrInvalidBody = errors.New("request body must be a JSON object or array")
	// ErrBodyTooLarge возвращается, если тело запроса превышает допустимый размер.
	ErrBodyTooLarge = errors.New("request body too large")
	// ErrVersionConflict сигнализирует, что список товаров изменился с момента чтения.
	ErrVersionConflict = errors.New("products version conflict")
	// ErrPayableInvalid возвращается, если поле payable не содержит числового префикса.
	ErrPayableInvalid = errors.New("payable is not a number")
	// ErrOutboxPublish оборачивает ошибку публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
	// ErrOutboxMessageNotFound возвращается, если сообщения с таким ID нет в outbox.
	ErrOutboxMessageNotFound = errors.New("outbox message not found")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}
