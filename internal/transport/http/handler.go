package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"bloodbank/internal/audit"
	"bloodbank/internal/domain"
	"bloodbank/internal/eligibility"
	"bloodbank/internal/profile"
	dErrors "bloodbank/pkg/domain-errors"
	"bloodbank/pkg/platform/middleware/auth"
)

func subjectOf(r *http.Request) string {
	return auth.GetSubjectID(r.Context())
}

// DonationService is the donation processor surface consumed by handlers.
type DonationService interface {
	ProcessDonation(ctx context.Context, donor domain.DonorProfile, units int) (*domain.DonationRecord, error)
	ListByDonor(ctx context.Context, donorID domain.DonorID) ([]domain.DonationRecord, error)
	ListAll(ctx context.Context) ([]domain.DonationRecord, error)
}

// RequestService is the request processor surface consumed by handlers.
type RequestService interface {
	ProcessRequest(ctx context.Context, patient domain.PatientProfile, group domain.BloodGroup, units int) (*domain.RequestRecord, error)
	ListByPatient(ctx context.Context, patientID domain.PatientID) ([]domain.RequestRecord, error)
	ListAll(ctx context.Context) ([]domain.RequestRecord, error)
}

// InventoryService exposes stock reads and the admin override.
type InventoryService interface {
	Balance(ctx context.Context, group domain.BloodGroup) (int, error)
	BalanceAll(ctx context.Context) (map[domain.BloodGroup]int, error)
	SetStock(ctx context.Context, actor string, group domain.BloodGroup, units int) error
}

// EligibilityService answers donor cooldown questions for the dashboard.
type EligibilityService interface {
	Status(ctx context.Context, donorID domain.DonorID, asOf time.Time) (eligibility.Status, error)
}

// AuditReader lists trail entries for the admin view.
type AuditReader interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// Handler is the thin HTTP layer. It resolves the caller's typed profile and
// delegates to domain services without embedding business logic.
type Handler struct {
	donations   DonationService
	requests    RequestService
	inventory   InventoryService
	eligibility EligibilityService
	auditTrail  AuditReader
	profiles    profile.Store
	logger      *slog.Logger
	now         func() time.Time
}

func NewHandler(
	donations DonationService,
	requests RequestService,
	inventory InventoryService,
	elig EligibilityService,
	auditTrail AuditReader,
	profiles profile.Store,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		donations:   donations,
		requests:    requests,
		inventory:   inventory,
		eligibility: elig,
		auditTrail:  auditTrail,
		profiles:    profiles,
		logger:      logger,
		now:         time.Now,
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// resolveDonor turns the authenticated subject into a typed donor profile.
// Only registered donors may reach donation operations.
func (h *Handler) resolveDonor(r *http.Request) (domain.DonorProfile, error) {
	id, err := domain.ParseDonorID(subjectOf(r))
	if err != nil {
		return domain.DonorProfile{}, dErrors.New(dErrors.CodeUnauthorized, "invalid subject claim")
	}
	donor, err := h.profiles.FindDonor(r.Context(), id)
	if err != nil {
		return domain.DonorProfile{}, dErrors.Wrap(err, dErrors.CodeNotFound, "donor profile not found")
	}
	return donor, nil
}

func (h *Handler) resolvePatient(r *http.Request) (domain.PatientProfile, error) {
	id, err := domain.ParsePatientID(subjectOf(r))
	if err != nil {
		return domain.PatientProfile{}, dErrors.New(dErrors.CodeUnauthorized, "invalid subject claim")
	}
	patient, err := h.profiles.FindPatient(r.Context(), id)
	if err != nil {
		return domain.PatientProfile{}, dErrors.Wrap(err, dErrors.CodeNotFound, "patient profile not found")
	}
	return patient, nil
}
