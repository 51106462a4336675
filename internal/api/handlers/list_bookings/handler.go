package list_bookings

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	"github.com/m04kA/SMC-RentalService/internal/service/bookings"
	"github.com/m04kA/SMC-RentalService/internal/service/bookings/models"
)

const (
	msgInvalidResourceID = "некорректный ID ресурса"
	msgInvalidFilter     = "некорректные параметры фильтрации"
	msgForbidden         = "доступ запрещен"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/bookings?resourceType=&resourceId=&role=&status=
// Выборка всегда ограничена бронированиями, стороной которых является
// вызывающий участник
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgForbidden)
		return
	}

	req := &models.ListBookingsRequest{
		ActorID: &actorID,
	}

	q := r.URL.Query()
	if v := q.Get("resourceType"); v != "" {
		req.ResourceType = &v
	}
	if v := q.Get("resourceId"); v != "" {
		resourceID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.logger.Warn("GET /bookings - Invalid resource ID: %v", err)
			handlers.RespondBadRequest(w, msgInvalidResourceID)
			return
		}
		req.ResourceID = &resourceID
	}
	if v := q.Get("role"); v != "" {
		req.ActorRole = &v
	}
	if v := q.Get("status"); v != "" {
		req.Status = &v
	}

	result, err := h.service.List(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /bookings - Invalid filter: actor=%d, error=%v", actorID, err)
			handlers.RespondBadRequest(w, msgInvalidFilter)

		default:
			h.logger.Error("GET /bookings - Failed to list bookings: actor=%d, error=%v", actorID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
