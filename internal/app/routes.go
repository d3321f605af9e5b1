package app

import (
	"github.com/gorilla/mux"

	"github.com/finplan/finplan/internal/config"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Plan
	r.HandleFunc("/api/plan/current", deps.PlanHandler.GetCurrentPlan).Methods("GET")
	r.HandleFunc("/api/plan/current/budget-limit", deps.PlanHandler.SetBudgetLimit).Methods("PUT")
	r.HandleFunc("/api/plan/current/goals/budget", deps.PlanHandler.UpsertBudgetGoal).Methods("PUT")
	r.HandleFunc("/api/plan/current/goals/savings", deps.PlanHandler.UpsertSavingsGoal).Methods("PUT")

	// Plan lifecycle
	r.HandleFunc("/api/plan/rollover", deps.RolloverHandler.Rollover).Methods("POST")
	r.HandleFunc("/api/plan/switch", deps.SwitchHandler.Switch).Methods("POST")

	// FX rates
	r.HandleFunc("/api/fx/rate", deps.FxHandler.GetRate).Queries("from", "{from}", "to", "{to}").Methods("GET")

	// User management
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user/current", deps.UserHandler.UpdateUser).Methods("PUT")
}
