package test_utils

import (
	"context"

	"github.com/finplan/finplan/pkg/currency"
	"github.com/finplan/finplan/pkg/period"
	"github.com/finplan/finplan/pkg/user"
)

// TestUser is a fixed user for service tests: monthly cadence, USD, Seoul time.
func TestUser() user.User {
	return user.User{
		Id:          "user-1",
		DisplayName: "Test User",
		Settings: user.Settings{
			Timezone:   "Asia/Seoul",
			Currency:   currency.USD,
			Language:   "en",
			PeriodType: period.Monthly,
		},
	}
}

// TestContext returns a context carrying TestUser as the authenticated user.
func TestContext() context.Context {
	return user.WithUser(context.Background(), TestUser())
}
