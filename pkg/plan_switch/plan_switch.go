package plan_switch

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finplan/finplan/pkg/currency"
	"github.com/finplan/finplan/pkg/period"
	"github.com/finplan/finplan/pkg/plan"
)

// Mode selects which plan parameters a switch actually changes. Parameters the
// mode keeps fixed are taken from the active plan regardless of the request.
type Mode string

const (
	ModePeriodOnly        Mode = "PERIOD_ONLY"
	ModeCurrencyOnly      Mode = "CURRENCY_ONLY"
	ModePeriodAndCurrency Mode = "PERIOD_AND_CURRENCY"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModePeriodOnly:
		return ModePeriodOnly, nil
	case ModeCurrencyOnly:
		return ModeCurrencyOnly, nil
	case ModePeriodAndCurrency:
		return ModePeriodAndCurrency, nil
	}
	return "", fmt.Errorf("unknown switch mode: %q", s)
}

// Request carries the desired target parameters. PeriodType, Currency and
// Timezone are optional; empty values fall back to the active plan and the
// user's settings. A zero FxRate means "not supplied" and makes the engine
// resolve the rate itself when the goals mode needs one.
type Request struct {
	PeriodType period.Type
	Currency   currency.Code
	Mode       Mode
	GoalsMode  plan.GoalsMode
	FxRate     decimal.Decimal
	Timezone   string
}

// resolveTarget applies the mode to pick the effective period type and
// currency, falling back to the active plan's values where the request is
// silent.
func (r Request) resolveTarget(active plan.Plan) (period.Type, currency.Code) {
	targetType := active.PeriodType
	targetCurrency := active.Currency

	switch r.Mode {
	case ModePeriodOnly:
		if r.PeriodType.Valid() {
			targetType = r.PeriodType
		}
	case ModeCurrencyOnly:
		if r.Currency.Valid() {
			targetCurrency = r.Currency
		}
	case ModePeriodAndCurrency:
		if r.PeriodType.Valid() {
			targetType = r.PeriodType
		}
		if r.Currency.Valid() {
			targetCurrency = r.Currency
		}
	}
	return targetType, targetCurrency
}
