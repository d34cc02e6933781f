package httptransport

import (
	"encoding/json"
	"net/http"

	"bloodbank/internal/domain"
	dErrors "bloodbank/pkg/domain-errors"
)

type bloodRequest struct {
	BloodGroup string `json:"blood_group"`
	Units      int    `json:"units"`
}

func (h *Handler) handleRequestBlood(w http.ResponseWriter, r *http.Request) {
	patient, err := h.resolvePatient(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body bloodRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	group, err := domain.ParseBloodGroup(body.BloodGroup)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, err.Error()))
		return
	}

	record, err := h.requests.ProcessRequest(r.Context(), patient, group, body.Units)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestResponse(*record))
}

func (h *Handler) handleMyRequests(w http.ResponseWriter, r *http.Request) {
	patient, err := h.resolvePatient(r)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := h.requests.ListByPatient(r.Context(), patient.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]requestResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toRequestResponse(record))
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": out})
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	records, err := h.requests.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]requestResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toRequestResponse(record))
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": out})
}
