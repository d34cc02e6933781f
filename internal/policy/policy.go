// Package policy holds the pure business rules for donation eligibility and
// unit bounds. No I/O, no side effects; services feed it history and clocks.
package policy

import (
	"time"

	"bloodbank/internal/domain"
)

// Defaults mirror the bank's operating rules: donors rest 90 days between
// donations and a single visit moves at most 5 units.
const (
	DefaultCooldownDays        = 90
	DefaultMaxUnitsPerDonation = 5
	DefaultMaxUnitsPerRequest  = 5
)

// CanDonate reports whether a donor whose most recent donation happened on
// lastDonation may donate again on asOf. A nil lastDonation means a
// first-time donor. The comparison works at calendar-date resolution: exactly
// cooldownDays ago is allowed, one day fewer is not.
func CanDonate(lastDonation *time.Time, asOf time.Time, cooldownDays int) bool {
	if lastDonation == nil {
		return true
	}
	last := domain.DateOf(*lastDonation)
	today := domain.DateOf(asOf)
	return today.Sub(last) >= time.Duration(cooldownDays)*24*time.Hour
}

// UnitsInRange reports whether a requested unit count is within 1..max.
func UnitsInRange(units, max int) bool {
	return units >= 1 && units <= max
}
