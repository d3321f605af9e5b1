package plan

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/finplan/finplan/internal/rest"
	"github.com/finplan/finplan/pkg/user"
)

type BudgetGoalDTO struct {
	Category   string `json:"category"`
	LimitMinor int64  `json:"limitMinor"`
}

type SavingsGoalDTO struct {
	Name        string `json:"name"`
	TargetMinor int64  `json:"targetMinor"`
}

type PlanDTO struct {
	Id                    string           `json:"id"`
	PeriodType            string           `json:"periodType"`
	PeriodAnchor          string           `json:"periodAnchor"`
	PeriodStart           string           `json:"periodStart"`
	PeriodEnd             string           `json:"periodEnd,omitempty"`
	Currency              string           `json:"currency"`
	Language              string           `json:"language"`
	TotalBudgetLimitMinor int64            `json:"totalBudgetLimitMinor"`
	BudgetGoals           []BudgetGoalDTO  `json:"budgetGoals"`
	SavingsGoals          []SavingsGoalDTO `json:"savingsGoals"`
}

// ToDTO shapes a plan with goals for the wire. Shared by the rollover and
// switch handlers.
func ToDTO(p PlanWithGoals) PlanDTO {
	dto := PlanDTO{
		Id:                    p.Id,
		PeriodType:            string(p.PeriodType),
		PeriodAnchor:          p.PeriodAnchor.Format(time.RFC3339),
		PeriodStart:           p.PeriodStart.Format(time.RFC3339),
		Currency:              string(p.Currency),
		Language:              p.Language,
		TotalBudgetLimitMinor: p.TotalBudgetLimitMinor,
		BudgetGoals:           make([]BudgetGoalDTO, 0, len(p.BudgetGoals)),
		SavingsGoals:          make([]SavingsGoalDTO, 0, len(p.SavingsGoals)),
	}
	if p.PeriodEnd != nil {
		dto.PeriodEnd = p.PeriodEnd.Format(time.RFC3339)
	}
	for _, g := range p.BudgetGoals {
		dto.BudgetGoals = append(dto.BudgetGoals, BudgetGoalDTO{Category: g.Category, LimitMinor: g.LimitMinor})
	}
	for _, g := range p.SavingsGoals {
		dto.SavingsGoals = append(dto.SavingsGoals, SavingsGoalDTO{Name: g.Name, TargetMinor: g.TargetMinor})
	}
	return dto
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetCurrentPlan(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	p, err := h.service.GetCurrentPlan(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(ToDTO(p)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) SetBudgetLimit(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var dto struct {
		TotalBudgetLimitMinor int64 `json:"totalBudgetLimitMinor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.EncodeError(w, rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}

	p, err := h.service.SetTotalBudgetLimit(r.Context(), dto.TotalBudgetLimitMinor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(ToDTO(p)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) UpsertBudgetGoal(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var dto BudgetGoalDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.EncodeError(w, rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}
	if NormalizeCategory(dto.Category) == "" {
		w.WriteHeader(http.StatusBadRequest)
		rest.EncodeError(w, rest.ErrorResponse{Error: "Category must not be empty"})
		return
	}

	p, err := h.service.UpsertBudgetGoal(r.Context(), dto.Category, dto.LimitMinor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(ToDTO(p)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) UpsertSavingsGoal(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var dto SavingsGoalDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.EncodeError(w, rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}
	if dto.Name == "" {
		w.WriteHeader(http.StatusBadRequest)
		rest.EncodeError(w, rest.ErrorResponse{Error: "Name must not be empty"})
		return
	}

	p, err := h.service.UpsertSavingsGoal(r.Context(), dto.Name, dto.TargetMinor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(ToDTO(p)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, "user not found", http.StatusForbidden)
	case errors.Is(err, ErrNoActivePlan), errors.Is(err, ErrPlanNotFound):
		w.WriteHeader(http.StatusNotFound)
		rest.EncodeError(w, rest.ErrorResponse{Error: err.Error()})
	default:
		log.Errorf("plan handler: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
