package rollover

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/finplan/finplan/internal/rest"
	"github.com/finplan/finplan/pkg/plan"
	"github.com/finplan/finplan/pkg/user"
)

type ResultDTO struct {
	Rolled       bool          `json:"rolled"`
	CreatedCount int           `json:"createdCount"`
	ActivePlan   *plan.PlanDTO `json:"activePlan,omitempty"`
	Reason       string        `json:"reason,omitempty"`
}

type Handler struct {
	service     Service
	planService plan.Service
}

func NewHandler(service Service, planService plan.Service) *Handler {
	return &Handler{service: service, planService: planService}
}

// Rollover advances the caller's active plan to the period containing now.
func (h *Handler) Rollover(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	result, err := h.service.Rollover(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNoUser):
			http.Error(w, "user not found", http.StatusForbidden)
		case errors.Is(err, plan.ErrNoActivePlan):
			w.WriteHeader(http.StatusNotFound)
			rest.EncodeError(w, rest.ErrorResponse{Error: err.Error()})
		default:
			log.Errorf("rollover handler: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	dto := ResultDTO{Rolled: result.Rolled, CreatedCount: result.CreatedCount, Reason: result.Reason}
	if result.ActivePlan != nil {
		// Re-read through the plan service to include the goals.
		full, err := h.planService.GetPlan(r.Context(), result.ActivePlan.Id)
		if err != nil {
			full = plan.PlanWithGoals{Plan: *result.ActivePlan}
		}
		planDTO := plan.ToDTO(full)
		dto.ActivePlan = &planDTO
	}
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
