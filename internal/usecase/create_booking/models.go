package create_booking

import "time"

// Request модель запроса на создание бронирования
type Request struct {
	ResourceType string     // "vehicle" | "trip"
	ResourceID   int64      // ID ресурса
	RequesterID  int64      // ID запрашивающего (renter / passenger)
	Seats        int        // Количество мест (только для trip)
	StartDate    *time.Time // Начало аренды (только для vehicle)
	EndDate      *time.Time // Конец аренды, exclusive (только для vehicle)
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID           int64      // ID созданного бронирования
	ResourceType string     // Тип ресурса
	ResourceID   int64      // ID ресурса
	RequesterID  int64      // ID запрашивающего
	OwnerID      int64      // ID владельца ресурса
	Seats        int        // Количество мест
	StartDate    *time.Time // Начало аренды
	EndDate      *time.Time // Конец аренды

	PriceSnapshot float64 // Снапшот цены на момент запроса
	Currency      string  // Валюта снапшота

	Status string // Статус бронирования (pending)

	CreatedAt time.Time // Время создания
	UpdatedAt time.Time // Время обновления
}
