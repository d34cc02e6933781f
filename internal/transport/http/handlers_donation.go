package httptransport

import (
	"encoding/json"
	"net/http"

	dErrors "bloodbank/pkg/domain-errors"
)

type donateRequest struct {
	Units int `json:"units"`
}

func (h *Handler) handleDonate(w http.ResponseWriter, r *http.Request) {
	donor, err := h.resolveDonor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body donateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}

	record, err := h.donations.ProcessDonation(r.Context(), donor, body.Units)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDonationResponse(*record))
}

func (h *Handler) handleMyDonations(w http.ResponseWriter, r *http.Request) {
	donor, err := h.resolveDonor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := h.donations.ListByDonor(r.Context(), donor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]donationResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toDonationResponse(record))
	}
	writeJSON(w, http.StatusOK, map[string]any{"donations": out})
}

func (h *Handler) handleEligibility(w http.ResponseWriter, r *http.Request) {
	donor, err := h.resolveDonor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	status, err := h.eligibility.Status(r.Context(), donor.ID, h.now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"eligible":      status.Eligible,
		"last_donation": formatDate(status.LastDonation),
		"next_eligible": formatDate(status.NextEligible),
	})
}

func (h *Handler) handleListDonations(w http.ResponseWriter, r *http.Request) {
	records, err := h.donations.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]donationResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toDonationResponse(record))
	}
	writeJSON(w, http.StatusOK, map[string]any{"donations": out})
}
