package app

import (
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/finplan/finplan/internal/config"
	"github.com/finplan/finplan/internal/event_bus"
	"github.com/finplan/finplan/internal/utils"
	"github.com/finplan/finplan/pkg/fxrate"
	"github.com/finplan/finplan/pkg/plan"
	"github.com/finplan/finplan/pkg/plan_switch"
	"github.com/finplan/finplan/pkg/rollover"
	"github.com/finplan/finplan/pkg/user"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus *event_bus.EventBus
	Clock    utils.Clock

	UserService user.Service
	UserHandler *user.Handler

	PlanRepo    plan.Repository
	PlanService plan.Service
	PlanHandler *plan.Handler

	FxProvider fxrate.Provider
	FxHandler  *fxrate.Handler

	RolloverService rollover.Service
	RolloverHandler *rollover.Handler

	SwitchService plan_switch.Service
	SwitchHandler *plan_switch.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = utils.SystemClock{}

	deps.UserService = user.NewService(user.NewRepository(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.PlanRepo = plan.NewRepository(db)
	deps.PlanService = plan.NewService(deps.PlanRepo, deps.Clock)
	deps.PlanHandler = plan.NewHandler(deps.PlanService)

	deps.FxProvider = buildFxProvider(cfg)
	deps.FxHandler = fxrate.NewHandler(deps.FxProvider)

	deps.RolloverService = rollover.NewService(deps.PlanRepo, deps.UserService, deps.Clock, deps.EventBus)
	deps.RolloverHandler = rollover.NewHandler(deps.RolloverService, deps.PlanService)

	deps.SwitchService = plan_switch.NewService(deps.PlanRepo, deps.FxProvider, deps.Clock, deps.EventBus)
	deps.SwitchHandler = plan_switch.NewHandler(deps.SwitchService)

	subscribeAuditLog(deps.EventBus)

	return deps
}

func buildFxProvider(cfg config.Application) fxrate.Provider {
	static := fxrate.NewStaticProvider(cfg.Fx.UsdKrw)
	if !cfg.Redis.Enabled {
		return static
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Pass,
		DB:       cfg.Redis.Db,
	})
	ttl := time.Duration(cfg.Fx.CacheTtlSeconds) * time.Second
	return fxrate.NewCachedProvider(static, rdb, ttl)
}

// subscribeAuditLog records every plan lifecycle event. Kept in-process; a
// durable audit trail would subscribe here instead.
func subscribeAuditLog(bus *event_bus.EventBus) {
	event_bus.SubscribeTyped[event_bus.PlanRolledOver](bus, event_bus.PlanRolledOverEvent,
		func(e event_bus.EventT[event_bus.PlanRolledOver]) error {
			log.Infof("audit: user %s rolled over to plan %s (%s starting %s), %d periods created",
				e.Data.UserId, e.Data.PlanId, e.Data.PeriodType, e.Data.PeriodStart.Format(time.RFC3339), e.Data.CreatedCount)
			return nil
		})
	event_bus.SubscribeTyped[event_bus.PlanSwitched](bus, event_bus.PlanSwitchedEvent,
		func(e event_bus.EventT[event_bus.PlanSwitched]) error {
			log.Infof("audit: user %s switched to plan %s (%s, %s, starting %s)",
				e.Data.UserId, e.Data.PlanId, e.Data.PeriodType, e.Data.Currency, e.Data.PeriodStart.Format(time.RFC3339))
			return nil
		})
}
