package run_expiry_sweep

import (
	"net/http"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
)

const msgSweepFailed = "не удалось выполнить прогон свипера"

// SweepResponse результат прогона свипера
type SweepResponse struct {
	Expired int `json:"expired"`
}

type Handler struct {
	sweeper Sweeper
	logger  Logger
}

func NewHandler(sweeper Sweeper, logger Logger) *Handler {
	return &Handler{
		sweeper: sweeper,
		logger:  logger,
	}
}

// Handle POST /api/v1/sweeps/expired
// Ручной запуск прогона, основной путь - расписание cron
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	expired, err := h.sweeper.Run(r.Context())
	if err != nil {
		h.logger.Error("POST /sweeps/expired - Sweep failed: %v", err)
		handlers.RespondError(w, http.StatusInternalServerError, msgSweepFailed)
		return
	}

	h.logger.Info("POST /sweeps/expired - Sweep completed: expired=%d", expired)
	handlers.RespondJSON(w, http.StatusOK, SweepResponse{Expired: expired})
}
