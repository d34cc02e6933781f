// Package profile stores donor and patient profiles. Ownership of identity
// and approval lives with the admin workflow; the transaction engine only
// ever reads the typed profiles resolved from here.
package profile

import (
	"context"

	"bloodbank/internal/domain"
)

type Store interface {
	SaveDonor(ctx context.Context, donor domain.DonorProfile) error
	FindDonor(ctx context.Context, id domain.DonorID) (domain.DonorProfile, error)
	ListDonors(ctx context.Context) ([]domain.DonorProfile, error)

	SavePatient(ctx context.Context, patient domain.PatientProfile) error
	FindPatient(ctx context.Context, id domain.PatientID) (domain.PatientProfile, error)
	ListPatients(ctx context.Context) ([]domain.PatientProfile, error)
}
