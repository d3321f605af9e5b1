package period

import (
	"fmt"
	"strings"
)

// Type is the cadence of a plan period.
type Type string

const (
	Weekly   Type = "WEEKLY"
	Biweekly Type = "BIWEEKLY"
	Monthly  Type = "MONTHLY"
)

// ParseType converts a wire value (e.g. "weekly", "MONTHLY") to a Type.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToUpper(strings.TrimSpace(s))) {
	case Weekly:
		return Weekly, nil
	case Biweekly:
		return Biweekly, nil
	case Monthly:
		return Monthly, nil
	}
	return "", fmt.Errorf("unknown period type: %q", s)
}

// Valid reports whether t is one of the known cadences.
func (t Type) Valid() bool {
	return t == Weekly || t == Biweekly || t == Monthly
}

func (t Type) String() string {
	return string(t)
}

// lengthDays returns the fixed period length for day-based cadences.
// Monthly periods have no fixed day length and return 0.
func (t Type) lengthDays() int {
	switch t {
	case Weekly:
		return 7
	case Biweekly:
		return 14
	}
	return 0
}
