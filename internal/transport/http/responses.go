package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"bloodbank/internal/domain"
	"bloodbank/internal/ledger"
	dErrors "bloodbank/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

type donationResponse struct {
	ID         string `json:"id"`
	DonorID    string `json:"donor_id"`
	BloodGroup string `json:"blood_group"`
	Units      int    `json:"units"`
	Date       string `json:"date"`
}

type requestResponse struct {
	ID         string `json:"id"`
	PatientID  string `json:"patient_id"`
	BloodGroup string `json:"blood_group"`
	Units      int    `json:"units"`
	Date       string `json:"date"`
	Status     string `json:"status"`
}

func toDonationResponse(record domain.DonationRecord) donationResponse {
	return donationResponse{
		ID:         record.ID.String(),
		DonorID:    record.DonorID.String(),
		BloodGroup: record.BloodGroup.String(),
		Units:      record.Units,
		Date:       record.Date.Format(dateLayout),
	}
}

func toRequestResponse(record domain.RequestRecord) requestResponse {
	return requestResponse{
		ID:         record.ID.String(),
		PatientID:  record.PatientID.String(),
		BloodGroup: record.BloodGroup.String(),
		Units:      record.Units,
		Date:       record.Date.Format(dateLayout),
		Status:     string(record.Status),
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorEnvelope struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Available *int   `json:"available,omitempty"`
}

// writeError centralizes domain error translation to HTTP responses. A
// refused debit additionally reports the units still available so callers
// can show the shortfall.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	envelope := errorEnvelope{Error: string(code)}

	var de *dErrors.Error
	if errors.As(err, &de) {
		envelope.Message = de.Message
	}
	var insufficient *ledger.InsufficientStockError
	if errors.As(err, &insufficient) {
		available := insufficient.Available
		envelope.Available = &available
	}
	writeJSON(w, dErrors.ToHTTPStatus(code), envelope)
}
