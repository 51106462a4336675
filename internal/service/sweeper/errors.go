package sweeper

import "errors"

var (
	// ErrListExpired возвращается, когда не удалось выбрать просроченные бронирования
	ErrListExpired = errors.New("sweeper: failed to list expired holds")
)
