package audit

import "time"

// Actions recorded in the trail. Recorded donations, decided requests, and
// manual stock overrides land here; refused donations leave the trail
// untouched.
const (
	ActionDonationRecorded = "donation_recorded"
	ActionRequestApproved  = "request_approved"
	ActionRequestRejected  = "request_rejected"
	ActionStockOverridden  = "stock_overridden"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp  time.Time
	Actor      string // donor/patient/admin profile ID
	Action     string
	BloodGroup string
	Units      int
	Decision   string
	Reason     string
}
