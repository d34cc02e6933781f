// Package eligibility answers "may this donor donate now" for callers
// outside the donation transaction, e.g. the dashboard. The donation
// processor re-evaluates the same rule inside its atomic boundary; this
// read-only view is advisory by nature.
package eligibility

import (
	"context"
	"fmt"
	"time"

	"bloodbank/internal/domain"
	"bloodbank/internal/policy"
	dErrors "bloodbank/pkg/domain-errors"
)

// DonationHistory is the slice of the donation store this service needs.
type DonationHistory interface {
	LastDonationDate(ctx context.Context, donorID domain.DonorID) (*time.Time, error)
}

type Service struct {
	history      DonationHistory
	cooldownDays int
}

type Option func(*Service)

func WithCooldownDays(days int) Option {
	return func(s *Service) { s.cooldownDays = days }
}

func New(history DonationHistory, opts ...Option) (*Service, error) {
	if history == nil {
		return nil, fmt.Errorf("donation history is required")
	}
	svc := &Service{history: history, cooldownDays: policy.DefaultCooldownDays}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Status describes a donor's standing as of a given date.
type Status struct {
	Eligible     bool
	LastDonation *time.Time
	NextEligible *time.Time
}

// CanDonate reports whether the donor may donate on asOf. Pure function of
// history: true for first-time donors, otherwise the cooldown must have
// elapsed at calendar-date resolution.
func (s *Service) CanDonate(ctx context.Context, donorID domain.DonorID, asOf time.Time) (bool, error) {
	status, err := s.Status(ctx, donorID, asOf)
	if err != nil {
		return false, err
	}
	return status.Eligible, nil
}

// Status additionally reports the last donation and the first eligible date,
// which the dashboard shows to waiting donors.
func (s *Service) Status(ctx context.Context, donorID domain.DonorID, asOf time.Time) (Status, error) {
	last, err := s.history.LastDonationDate(ctx, donorID)
	if err != nil {
		return Status{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read donation history")
	}
	status := Status{
		Eligible:     policy.CanDonate(last, asOf, s.cooldownDays),
		LastDonation: last,
	}
	if last != nil {
		next := domain.DateOf(*last).AddDate(0, 0, s.cooldownDays)
		status.NextEligible = &next
	}
	return status, nil
}
