package domain

import "errors"

var (
	// ErrUnknownBody возвращается для идентификатора тела вне таблицы.
	ErrUnknownBody = errors.New("unknown body")
	// ErrNoObserver возвращается, когда координаты наблюдателя неизвестны.
	ErrNoObserver = errors.New("observer is required")
	// ErrInvalidObserver возвращается для координат вне диапазона.
	ErrInvalidObserver = errors.New("observer out of range")
	// ErrEventNotFound означает, что поиск эфемерид не нашёл событие.
	ErrEventNotFound = errors.New("event not found")
	// ErrCacheMiss возвращается хранилищем, если записи нет.
	ErrCacheMiss = errors.New("cache miss")
)
