package fxrate

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/finplan/finplan/internal/rest"
	"github.com/finplan/finplan/pkg/currency"
)

type RateDTO struct {
	From string `json:"from"`
	To   string `json:"to"`
	Rate string `json:"rate"`
}

type Handler struct {
	provider Provider
}

func NewHandler(provider Provider) *Handler {
	return &Handler{provider: provider}
}

func (h *Handler) GetRate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	from, err := currency.ParseCode(r.URL.Query().Get("from"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.EncodeError(w, rest.ErrorResponse{Error: err.Error()})
		return
	}
	to, err := currency.ParseCode(r.URL.Query().Get("to"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.EncodeError(w, rest.ErrorResponse{Error: err.Error()})
		return
	}

	rate, err := h.provider.Rate(r.Context(), from, to)
	if err != nil {
		if errors.Is(err, ErrRateUnavailable) {
			w.WriteHeader(http.StatusNotFound)
			rest.EncodeError(w, rest.ErrorResponse{Error: "no rate for requested pair"})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(RateDTO{From: string(from), To: string(to), Rate: rate.String()}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
