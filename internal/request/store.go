package request

import (
	"context"

	"bloodbank/internal/domain"
)

// Store persists the append-only request history. Approved records join the
// debit's atomic unit; Rejected records are written afterwards and are never
// gated by the stock check.
type Store interface {
	Append(ctx context.Context, record domain.RequestRecord) error
	ListByPatient(ctx context.Context, patientID domain.PatientID) ([]domain.RequestRecord, error)
	ListAll(ctx context.Context) ([]domain.RequestRecord, error)
}
