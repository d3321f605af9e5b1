package user

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/finplan/finplan/internal/rest"
	"github.com/finplan/finplan/pkg/currency"
	"github.com/finplan/finplan/pkg/period"
)

type UserDTO struct {
	Id           string `json:"id"`
	DisplayName  string `json:"displayName"`
	Timezone     string `json:"timezone"`
	Currency     string `json:"currency"`
	Language     string `json:"language"`
	PeriodType   string `json:"periodType"`
	ActivePlanId string `json:"activePlanId,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var dto UserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.EncodeError(w, rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}
	u, err := dtoToUser(dto)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.EncodeError(w, rest.ErrorResponse{Error: err.Error()})
		return
	}

	created, err := h.service.CreateUser(r.Context(), u)
	if err != nil {
		log.Errorf("failed to create user: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(userToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	u, err := h.service.GetCurrentUser(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoUser) || errors.Is(err, ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusForbidden)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := json.NewEncoder(w).Encode(userToDTO(u)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var dto UserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.EncodeError(w, rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}
	u, err := dtoToUser(dto)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.EncodeError(w, rest.ErrorResponse{Error: err.Error()})
		return
	}

	updated, err := h.service.UpdateCurrentUser(r.Context(), u)
	if err != nil {
		if errors.Is(err, ErrNoUser) || errors.Is(err, ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusForbidden)
			return
		}
		log.Errorf("failed to update user: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := json.NewEncoder(w).Encode(userToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func userToDTO(u User) UserDTO {
	return UserDTO{
		Id:           u.Id,
		DisplayName:  u.DisplayName,
		Timezone:     u.Settings.Timezone,
		Currency:     string(u.Settings.Currency),
		Language:     u.Settings.Language,
		PeriodType:   string(u.Settings.PeriodType),
		ActivePlanId: u.ActivePlanId,
	}
}

func dtoToUser(dto UserDTO) (User, error) {
	u := User{
		Id:          dto.Id,
		DisplayName: dto.DisplayName,
		Settings: Settings{
			Timezone: dto.Timezone,
			Language: dto.Language,
		},
	}
	if dto.Currency != "" {
		code, err := currency.ParseCode(dto.Currency)
		if err != nil {
			return User{}, err
		}
		u.Settings.Currency = code
	}
	if dto.PeriodType != "" {
		pt, err := period.ParseType(dto.PeriodType)
		if err != nil {
			return User{}, err
		}
		u.Settings.PeriodType = pt
	}
	return u, nil
}
