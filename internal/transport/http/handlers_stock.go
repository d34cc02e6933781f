package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bloodbank/internal/domain"
	dErrors "bloodbank/pkg/domain-errors"
)

func (h *Handler) handleListStock(w http.ResponseWriter, r *http.Request) {
	balances, err := h.inventory.BalanceAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stock": stockResponse(balances)})
}

func (h *Handler) handleGroupStock(w http.ResponseWriter, r *http.Request) {
	group, err := domain.ParseBloodGroup(chi.URLParam(r, "group"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, err.Error()))
		return
	}
	units, err := h.inventory.Balance(r.Context(), group)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"blood_group": group.String(),
		"units":       units,
	})
}

type setStockRequest struct {
	Units int `json:"units"`
}

func (h *Handler) handleSetStock(w http.ResponseWriter, r *http.Request) {
	group, err := domain.ParseBloodGroup(chi.URLParam(r, "group"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, err.Error()))
		return
	}
	var body setStockRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	if err := h.inventory.SetStock(r.Context(), subjectOf(r), group, body.Units); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"blood_group": group.String(),
		"units":       body.Units,
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	balances, err := h.inventory.BalanceAll(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	donors, err := h.profiles.ListDonors(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	patients, err := h.profiles.ListPatients(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	donorViews := make([]map[string]any, 0, len(donors))
	for _, donor := range donors {
		donorViews = append(donorViews, map[string]any{
			"id":          donor.ID.String(),
			"name":        donor.Name,
			"blood_group": donor.BloodGroup.String(),
			"approved":    donor.Approved,
		})
	}
	patientViews := make([]map[string]any, 0, len(patients))
	for _, patient := range patients {
		patientViews = append(patientViews, map[string]any{
			"id":          patient.ID.String(),
			"name":        patient.Name,
			"blood_group": patient.BloodGroup.String(),
			"approved":    patient.Approved,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stock":    stockResponse(balances),
		"donors":   donorViews,
		"patients": patientViews,
	})
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	const defaultLimit = 100
	events, err := h.auditTrail.ListRecent(r.Context(), defaultLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(events))
	for _, event := range events {
		out = append(out, map[string]any{
			"timestamp":   event.Timestamp,
			"actor":       event.Actor,
			"action":      event.Action,
			"blood_group": event.BloodGroup,
			"units":       event.Units,
			"decision":    event.Decision,
			"reason":      event.Reason,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

// stockResponse renders balances in the fixed display order of the groups.
func stockResponse(balances map[domain.BloodGroup]int) []map[string]any {
	out := make([]map[string]any, 0, len(balances))
	for _, group := range domain.AllBloodGroups() {
		out = append(out, map[string]any{
			"blood_group": group.String(),
			"units":       balances[group],
		})
	}
	return out
}
