package transition_booking

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("transition_booking: booking not found")

	// ErrInvalidTransition возвращается, когда действие недопустимо
	// из текущего статуса
	ErrInvalidTransition = errors.New("transition_booking: invalid transition")

	// ErrCapacityExceeded возвращается, когда леджер не может зафиксировать
	// количество бронирования (мест не хватает / даты пересекаются)
	ErrCapacityExceeded = errors.New("transition_booking: capacity exceeded")

	// ErrAccessDenied возвращается, когда участник не имеет права
	// на действие над этим бронированием
	ErrAccessDenied = errors.New("transition_booking: access denied")

	// ErrStaleWrite возвращается, когда условное обновление дважды проиграло
	// гонку (после одного прозрачного повтора)
	ErrStaleWrite = errors.New("transition_booking: stale write")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("transition_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("transition_booking: internal error")
)

// RejectionError ошибка отклонённого действия вместе с текущим
// авторитетным статусом бронирования - клиент может синхронизировать
// своё представление без повторного запроса
type RejectionError struct {
	Err           error
	CurrentStatus domain.BookingStatus
}

// Error реализует интерфейс error
func (e *RejectionError) Error() string {
	return fmt.Sprintf("%v (current status: %s)", e.Err, e.CurrentStatus)
}

// Unwrap отдаёт вложенную sentinel-ошибку для errors.Is
func (e *RejectionError) Unwrap() error {
	return e.Err
}

// reject оборачивает sentinel-ошибку текущим статусом бронирования
func reject(err error, status domain.BookingStatus) error {
	return &RejectionError{Err: err, CurrentStatus: status}
}
