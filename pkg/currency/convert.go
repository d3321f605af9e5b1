package currency

import (
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ConvertMinor converts a minor-unit amount between currencies using fxRate,
// which quotes how many KRW major units one USD major unit buys. The only
// supported conversion pair is USD<->KRW. The function never fails: identity
// pairs return the amount unchanged, and a missing or non-positive rate, or an
// unsupported pair, skips conversion and returns the amount unchanged as well.
// Results are rounded half away from zero to the nearest minor unit.
func ConvertMinor(amountMinor int64, from, to Code, fxRate decimal.Decimal) int64 {
	if from == to {
		return amountMinor
	}
	if fxRate.Sign() <= 0 {
		log.Debugf("currency: no usable fx rate for %s->%s, keeping amount unconverted", from, to)
		return amountMinor
	}

	amount := decimal.NewFromInt(amountMinor)
	switch {
	case from == USD && to == KRW:
		// minor -> USD major -> KRW major -> minor
		major := amount.Div(decimal.NewFromInt(USD.MinorPerMajor()))
		return major.Mul(fxRate).Mul(decimal.NewFromInt(KRW.MinorPerMajor())).Round(0).IntPart()
	case from == KRW && to == USD:
		major := amount.Div(decimal.NewFromInt(KRW.MinorPerMajor()))
		return major.Div(fxRate).Mul(decimal.NewFromInt(USD.MinorPerMajor())).Round(0).IntPart()
	}

	log.Debugf("currency: unsupported conversion pair %s->%s, keeping amount unconverted", from, to)
	return amountMinor
}
