package plan_switch

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/finplan/finplan/internal/rest"
	"github.com/finplan/finplan/pkg/currency"
	"github.com/finplan/finplan/pkg/period"
	"github.com/finplan/finplan/pkg/plan"
	"github.com/finplan/finplan/pkg/user"
)

type SwitchRequestDTO struct {
	PeriodType string  `json:"periodType,omitempty"`
	Currency   string  `json:"currency,omitempty"`
	SwitchMode string  `json:"switchMode"`
	GoalsMode  string  `json:"goalsMode"`
	FxRate     float64 `json:"fxRate,omitempty"`
	Timezone   string  `json:"timezone,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Switch changes the caller's plan period type and/or currency for the period
// containing now.
func (h *Handler) Switch(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var dto SwitchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.EncodeError(w, rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}

	req, err := dtoToRequest(dto)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.EncodeError(w, rest.ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.service.Switch(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNoUser):
			http.Error(w, "user not found", http.StatusForbidden)
		case errors.Is(err, plan.ErrNoActivePlan):
			w.WriteHeader(http.StatusNotFound)
			rest.EncodeError(w, rest.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrInvalidMode):
			w.WriteHeader(http.StatusBadRequest)
			rest.EncodeError(w, rest.ErrorResponse{Error: err.Error()})
		default:
			log.Errorf("switch handler: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	if err := json.NewEncoder(w).Encode(plan.ToDTO(result)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func dtoToRequest(dto SwitchRequestDTO) (Request, error) {
	mode, err := ParseMode(dto.SwitchMode)
	if err != nil {
		return Request{}, err
	}
	goalsMode, err := plan.ParseGoalsMode(dto.GoalsMode)
	if err != nil {
		return Request{}, err
	}

	req := Request{
		Mode:      mode,
		GoalsMode: goalsMode,
		Timezone:  dto.Timezone,
	}
	if dto.PeriodType != "" {
		pt, err := period.ParseType(dto.PeriodType)
		if err != nil {
			return Request{}, err
		}
		req.PeriodType = pt
	}
	if dto.Currency != "" {
		code, err := currency.ParseCode(dto.Currency)
		if err != nil {
			return Request{}, err
		}
		req.Currency = code
	}
	if dto.FxRate > 0 {
		req.FxRate = decimal.NewFromFloat(dto.FxRate)
	}
	return req, nil
}
