package donation

import (
	"context"
	"time"

	"bloodbank/internal/domain"
)

// Store persists the append-only donation history. Records are immutable once
// created; there is no update or delete surface.
type Store interface {
	Append(ctx context.Context, record domain.DonationRecord) error

	// LastDonationDate returns the maximal donation date for a donor, or nil
	// when the donor has never donated. Ties on the same date are
	// indistinguishable and equally valid: eligibility only needs "is there
	// a record inside the cooldown window".
	LastDonationDate(ctx context.Context, donorID domain.DonorID) (*time.Time, error)

	ListByDonor(ctx context.Context, donorID domain.DonorID) ([]domain.DonationRecord, error)
	ListAll(ctx context.Context) ([]domain.DonationRecord, error)
}
