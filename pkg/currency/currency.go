package currency

import (
	"fmt"
	"strings"
)

// Code is an ISO-like currency code.
type Code string

const (
	USD Code = "USD"
	KRW Code = "KRW"
)

// ParseCode converts a wire value (e.g. "usd") to a Code.
func ParseCode(s string) (Code, error) {
	switch Code(strings.ToUpper(strings.TrimSpace(s))) {
	case USD:
		return USD, nil
	case KRW:
		return KRW, nil
	}
	return "", fmt.Errorf("unknown currency: %q", s)
}

// Valid reports whether c is one of the supported currencies.
func (c Code) Valid() bool {
	return c == USD || c == KRW
}

func (c Code) String() string {
	return string(c)
}

// MinorPerMajor returns how many minor units make up one major unit.
// Amounts are stored in minor units: cents for USD, won for KRW.
func (c Code) MinorPerMajor() int64 {
	if c == USD {
		return 100
	}
	return 1
}
