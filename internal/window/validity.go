package window

import (
	"fmt"
	"strings"
	"time"
)

// Unit of an invite validity period
type Unit string

const (
	Days   Unit = "DAYS"
	Months Unit = "MONTHS"
	Years  Unit = "YEARS"
)

// MaxValidityDays caps any validity period, in days-equivalent
const MaxValidityDays = 3650

// ParseUnit accepts a case-insensitive unit label
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(strings.ToUpper(strings.TrimSpace(s))); u {
	case Days, Months, Years:
		return u, nil
	case "":
		return Days, nil
	default:
		return "", fmt.Errorf("unknown validity unit %q", s)
	}
}

// Validity is an amount of calendar units, e.g. 3 MONTHS
type Validity struct {
	Amount int  `json:"amount"`
	Unit   Unit `json:"unit"`
}

// DefaultValidity is used when the caller does not pick one
var DefaultValidity = Validity{Amount: 7, Unit: Days}

// Normalize clamps the amount to [1, MaxValidityDays] days-equivalent for its unit
func (v Validity) Normalize() Validity {
	if v.Unit == "" {
		v.Unit = Days
	}
	upper := MaxValidityDays
	switch v.Unit {
	case Months:
		upper = MaxValidityDays / 365 * 12
	case Years:
		upper = MaxValidityDays / 365
	}
	if v.Amount < 1 {
		v.Amount = 1
	}
	if v.Amount > upper {
		v.Amount = upper
	}
	return v
}

// ExpiresAt returns now advanced by the normalized validity
func (v Validity) ExpiresAt(now time.Time) time.Time {
	v = v.Normalize()
	switch v.Unit {
	case Months:
		return AddMonths(now, v.Amount)
	case Years:
		return AddYears(now, v.Amount)
	default:
		return AddDays(now, v.Amount)
	}
}

func (v Validity) String() string {
	return fmt.Sprintf("%d %s", v.Amount, v.Unit)
}
