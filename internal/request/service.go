package request

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bloodbank/internal/audit"
	"bloodbank/internal/domain"
	"bloodbank/internal/ledger"
	"bloodbank/internal/platform/metrics"
	"bloodbank/internal/policy"
	dErrors "bloodbank/pkg/domain-errors"
	"bloodbank/pkg/platform/sentinel"
)

// AuditPublisher emits audit events for decided requests.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the request processor: it validates a blood request, then
// atomically checks availability and debits the ledger, or rejects. The
// requested group is caller-chosen; a patient may request any group, so the
// debit is keyed by the requested group, not the patient's own.
type Service struct {
	store          Store
	ledger         ledger.Ledger
	tx             Tx
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
	now            func() time.Time
	maxUnits       int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMaxUnits(max int) Option {
	return func(s *Service) { s.maxUnits = max }
}

func New(store Store, led ledger.Ledger, tx Tx, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("request store is required")
	}
	if led == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction boundary is required")
	}

	svc := &Service{
		store:    store,
		ledger:   led,
		tx:       tx,
		now:      time.Now,
		maxUnits: policy.DefaultMaxUnitsPerRequest,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// ProcessRequest decides a blood request synchronously. On sufficient stock
// the debit and the Approved record commit as one atomic unit; on a
// shortfall the caller gets the available balance in the error and a
// Rejected record is written for the trail, outside the failed unit.
func (s *Service) ProcessRequest(ctx context.Context, patient domain.PatientProfile, group domain.BloodGroup, units int) (*domain.RequestRecord, error) {
	if !patient.Approved {
		return nil, dErrors.New(dErrors.CodeNotApproved, "patient is not approved yet")
	}
	if !policy.UnitsInRange(units, s.maxUnits) {
		return nil, dErrors.New(dErrors.CodeInvalidUnits,
			fmt.Sprintf("units must be between 1 and %d", s.maxUnits))
	}

	var record *domain.RequestRecord
	err := s.tx.RunInTx(ctx, group.String(), func(txCtx context.Context) error {
		if err := s.ledger.Debit(txCtx, group, units); err != nil {
			return err
		}
		rec := domain.RequestRecord{
			ID:         uuid.New(),
			PatientID:  patient.ID,
			BloodGroup: group,
			Units:      units,
			Date:       domain.DateOf(s.now()),
			Status:     domain.RequestStatusApproved,
		}
		if err := s.store.Append(txCtx, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record request")
		}
		record = &rec
		return nil
	})

	var insufficient *ledger.InsufficientStockError
	if errors.As(err, &insufficient) {
		return nil, s.reject(ctx, patient, group, units, insufficient)
	}
	if err != nil {
		return nil, translateTxErr(err)
	}

	s.emitAudit(ctx, audit.Event{
		Actor:      patient.ID.String(),
		Action:     audit.ActionRequestApproved,
		BloodGroup: group.String(),
		Units:      units,
		Decision:   string(domain.RequestStatusApproved),
	})
	if s.metrics != nil {
		s.metrics.RequestsApprovedTotal.Inc()
		s.observeStock(ctx, group)
	}
	s.logger.InfoContext(ctx, "blood request approved",
		"patient_id", patient.ID.String(),
		"blood_group", group.String(),
		"units", units,
	)
	return record, nil
}

// reject persists the refused request for the trail and surfaces the
// shortfall. The Rejected record succeeds independently of stock and never
// joins the failed debit's atomic unit.
func (s *Service) reject(ctx context.Context, patient domain.PatientProfile, group domain.BloodGroup, units int, cause *ledger.InsufficientStockError) error {
	rec := domain.RequestRecord{
		ID:         uuid.New(),
		PatientID:  patient.ID,
		BloodGroup: group,
		Units:      units,
		Date:       domain.DateOf(s.now()),
		Status:     domain.RequestStatusRejected,
	}
	if err := s.store.Append(ctx, rec); err != nil {
		s.logger.WarnContext(ctx, "failed to record rejected request",
			"patient_id", patient.ID.String(),
			"error", err,
		)
	}

	s.emitAudit(ctx, audit.Event{
		Actor:      patient.ID.String(),
		Action:     audit.ActionRequestRejected,
		BloodGroup: group.String(),
		Units:      units,
		Decision:   string(domain.RequestStatusRejected),
		Reason:     fmt.Sprintf("only %d units available", cause.Available),
	})
	if s.metrics != nil {
		s.metrics.IncRequestRejected("insufficient_stock")
	}
	s.logger.InfoContext(ctx, "blood request rejected",
		"patient_id", patient.ID.String(),
		"blood_group", group.String(),
		"requested", units,
		"available", cause.Available,
	)
	return dErrors.Wrap(cause, dErrors.CodeInsufficientStock,
		fmt.Sprintf("not enough %s blood available, only %d units left", group, cause.Available))
}

func (s *Service) ListByPatient(ctx context.Context, patientID domain.PatientID) ([]domain.RequestRecord, error) {
	return s.store.ListByPatient(ctx, patientID)
}

func (s *Service) ListAll(ctx context.Context) ([]domain.RequestRecord, error) {
	return s.store.ListAll(ctx)
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}

func (s *Service) observeStock(ctx context.Context, group domain.BloodGroup) {
	balance, err := s.ledger.Balance(ctx, group)
	if err != nil {
		return
	}
	s.metrics.SetStockUnits(group.String(), balance)
}

func translateTxErr(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.Wrap(err, dErrors.CodeTransient, "request transaction kept conflicting")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "request transaction failed")
}
