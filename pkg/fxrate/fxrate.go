package fxrate

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/finplan/finplan/pkg/currency"
)

var ErrRateUnavailable = errors.New("exchange rate unavailable")

// Provider supplies the exchange rate for a currency pair. For the USD/KRW
// pair (either order) the returned rate always quotes KRW major units per one
// USD major unit, matching what currency.ConvertMinor expects; the conversion
// direction is the converter's concern, not the provider's.
type Provider interface {
	Rate(ctx context.Context, from, to currency.Code) (decimal.Decimal, error)
}

// StaticProvider serves the single configured USD/KRW rate. A zero or negative
// configured rate makes every lookup fail with ErrRateUnavailable, which
// callers translate into the unconverted-copy fallback.
type StaticProvider struct {
	usdKrw decimal.Decimal
}

func NewStaticProvider(usdKrw float64) *StaticProvider {
	return &StaticProvider{usdKrw: decimal.NewFromFloat(usdKrw)}
}

func (p *StaticProvider) Rate(ctx context.Context, from, to currency.Code) (decimal.Decimal, error) {
	if !isUsdKrwPair(from, to) {
		return decimal.Zero, ErrRateUnavailable
	}
	if p.usdKrw.Sign() <= 0 {
		return decimal.Zero, ErrRateUnavailable
	}
	return p.usdKrw, nil
}

func isUsdKrwPair(from, to currency.Code) bool {
	return (from == currency.USD && to == currency.KRW) ||
		(from == currency.KRW && to == currency.USD)
}
