package domain

import "github.com/google/uuid"

// DonorID and PatientID are domain primitives wrapping the external identity
// subsystem's UUIDs. Keeping them distinct types prevents mixing the two
// history keyspaces.
type (
	DonorID   uuid.UUID
	PatientID uuid.UUID
)

func ParseDonorID(s string) (DonorID, error) {
	id, err := uuid.Parse(s)
	return DonorID(id), err
}

func ParsePatientID(s string) (PatientID, error) {
	id, err := uuid.Parse(s)
	return PatientID(id), err
}

func (id DonorID) String() string   { return uuid.UUID(id).String() }
func (id DonorID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id PatientID) String() string { return uuid.UUID(id).String() }
func (id PatientID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// DonorProfile is owned by the external identity/approval subsystem. The
// engine only reads BloodGroup and Approved and keys donation history by ID;
// it trusts Approved as given and never re-derives it.
type DonorProfile struct {
	ID            DonorID
	Name          string
	BloodGroup    BloodGroup
	ContactNumber string
	Address       string
	Approved      bool
}

// PatientProfile plays the analogous role for blood requests.
type PatientProfile struct {
	ID            PatientID
	Name          string
	BloodGroup    BloodGroup
	ContactNumber string
	Address       string
	Approved      bool
}
