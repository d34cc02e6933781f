package domain

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus enumerates the decision recorded for a blood request.
// Requests are decided synchronously at creation time and never transition
// afterwards.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "Pending"
	RequestStatusApproved RequestStatus = "Approved"
	RequestStatusRejected RequestStatus = "Rejected"
)

// DonationRecord is append-only and immutable once created. BloodGroup is
// fixed to the donor's profile group at creation time.
type DonationRecord struct {
	ID         uuid.UUID
	DonorID    DonorID
	BloodGroup BloodGroup
	Units      int
	Date       time.Time // calendar date, normalized via DateOf
}

// RequestRecord is append-only. Approved records are written in the same
// atomic unit as the stock debit; Rejected records are written after a failed
// debit and are never gated by the stock check.
type RequestRecord struct {
	ID         uuid.UUID
	PatientID  PatientID
	BloodGroup BloodGroup
	Units      int
	Date       time.Time
	Status     RequestStatus
}

// DateOf truncates t to its UTC calendar date. Eligibility works at one-day
// resolution; time-of-day never influences the cooldown.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
