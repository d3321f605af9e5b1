package event_bus

import "time"

const (
	PlanRolledOverEvent EventType = "plan.rolled_over"
	PlanSwitchedEvent   EventType = "plan.switched"
)

// PlanRolledOver is published after a rollover transaction commits having
// created at least one new plan period.
type PlanRolledOver struct {
	UserId       string
	PlanId       string
	PeriodType   string
	PeriodStart  time.Time
	CreatedCount int
}

// PlanSwitched is published after a period/currency switch commits.
type PlanSwitched struct {
	UserId      string
	PlanId      string
	PeriodType  string
	Currency    string
	PeriodStart time.Time
}
