package transition_booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	"github.com/m04kA/SMC-RentalService/internal/domain"
	transitionBooking "github.com/m04kA/SMC-RentalService/internal/usecase/transition_booking"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgSystemRoleDenied   = "роль system недоступна через API"
	msgNotFound           = "бронирование не найдено"
	msgForbidden          = "доступ запрещен"
	msgInvalidTransition  = "действие недопустимо из текущего статуса"
	msgCapacityExceeded   = "ресурс недоступен в запрошенном объеме"
	msgConflictRetry      = "конкурентное изменение бронирования, повторите запрос"
	msgInvalidInput       = "некорректные параметры перехода"
)

type Handler struct {
	useCase TransitionBookingUseCase
	logger  Logger
}

func NewHandler(useCase TransitionBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/transition
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgForbidden)
		return
	}

	// Извлекаем bookingId из URL
	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/transition - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req TransitionRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/{id}/transition - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	if req.Role == "" {
		req.Role, _ = middleware.GetUserRole(r.Context())
	}

	// System-действия (expire) применяет только свипер, не внешний клиент
	if req.Role == string(domain.RoleSystem) || req.Action == string(domain.ActionExpire) {
		h.logger.Warn("POST /bookings/{id}/transition - System action rejected: actor=%d, action=%s",
			actorID, req.Action)
		handlers.RespondForbidden(w, msgSystemRoleDenied)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(bookingID, actorID))
	if err != nil {
		h.respondError(w, bookingID, actorID, req.Action, err)
		return
	}

	h.logger.Info("POST /bookings/{id}/transition - Transition applied: booking_id=%d, action=%s, status=%s",
		bookingID, req.Action, result.Status)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}

// respondError переводит ошибку use case в HTTP ответ
// Отклонённые действия несут актуальный статус бронирования
func (h *Handler) respondError(w http.ResponseWriter, bookingID, actorID int64, action string, err error) {
	currentStatus := ""
	var rejection *transitionBooking.RejectionError
	if errors.As(err, &rejection) {
		currentStatus = string(rejection.CurrentStatus)
	}

	switch {
	case errors.Is(err, transitionBooking.ErrBookingNotFound):
		h.logger.Warn("POST /bookings/{id}/transition - Booking not found: booking_id=%d", bookingID)
		handlers.RespondNotFound(w, msgNotFound)

	case errors.Is(err, transitionBooking.ErrAccessDenied):
		h.logger.Warn("POST /bookings/{id}/transition - Access denied: booking_id=%d, actor=%d",
			bookingID, actorID)
		handlers.RespondJSON(w, http.StatusForbidden, ErrorWithStatusResponse{
			Error:         msgForbidden,
			CurrentStatus: currentStatus,
		})

	case errors.Is(err, transitionBooking.ErrInvalidTransition):
		h.logger.Warn("POST /bookings/{id}/transition - Invalid transition: booking_id=%d, action=%s, status=%s",
			bookingID, action, currentStatus)
		handlers.RespondJSON(w, http.StatusConflict, ErrorWithStatusResponse{
			Error:         msgInvalidTransition,
			CurrentStatus: currentStatus,
		})

	case errors.Is(err, transitionBooking.ErrCapacityExceeded):
		h.logger.Warn("POST /bookings/{id}/transition - Capacity exceeded: booking_id=%d", bookingID)
		handlers.RespondJSON(w, http.StatusConflict, ErrorWithStatusResponse{
			Error:         msgCapacityExceeded,
			CurrentStatus: currentStatus,
		})

	case errors.Is(err, transitionBooking.ErrStaleWrite):
		h.logger.Warn("POST /bookings/{id}/transition - Stale write after retry: booking_id=%d", bookingID)
		handlers.RespondError(w, http.StatusConflict, msgConflictRetry)

	case errors.Is(err, transitionBooking.ErrInvalidInput):
		h.logger.Warn("POST /bookings/{id}/transition - Invalid input: booking_id=%d, error=%v", bookingID, err)
		handlers.RespondBadRequest(w, msgInvalidInput)

	default:
		h.logger.Error("POST /bookings/{id}/transition - Failed to apply transition: booking_id=%d, error=%v",
			bookingID, err)
		handlers.RespondInternalError(w)
	}
}
