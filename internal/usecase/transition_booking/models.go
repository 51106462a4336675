package transition_booking

import "time"

// Request модель запроса на переход жизненного цикла
type Request struct {
	BookingID int64   // ID бронирования
	Action    string  // approve | reject | pay | expire | confirm_pickup | complete | cancel
	ActorID   int64   // ID участника (0 для system)
	ActorRole string  // requester | owner | system
	Reason    *string // Причина отмены (только для cancel, опционально)
}

// Response модель ответа с бронированием после перехода
type Response struct {
	ID           int64      // ID бронирования
	ResourceType string     // Тип ресурса
	ResourceID   int64      // ID ресурса
	RequesterID  int64      // ID запрашивающего
	OwnerID      int64      // ID владельца ресурса
	Seats        int        // Количество мест
	StartDate    *time.Time // Начало аренды
	EndDate      *time.Time // Конец аренды

	PriceSnapshot float64 // Снапшот цены
	Currency      string  // Валюта

	FromStatus      string     // Статус до перехода
	Status          string     // Статус после перехода
	Noop            bool       // true, если действие было идемпотентным повтором
	PaymentDeadline *time.Time // Дедлайн оплаты (только в awaiting_payment)

	UpdatedAt time.Time // Время обновления
}
