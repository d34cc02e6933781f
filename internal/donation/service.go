package donation

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

// AuditPublisher emits audit events for decided donations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the donation processor: it validates a donation against the
// approval and cooldown rules, then atomically records it and credits the
// ledger. Callers never touch the ledger directly.
type Service struct {
	store          Store
	ledger         ledger.Ledger
	tx             Tx
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
	now            func() time.Time
	cooldownDays   int
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

// WithClock overrides the time source; tests use it to cross the cooldown
// boundary without sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithCooldownDays(days int) Option {
	return func(s *Service) { s.cooldownDays = days }
}

func WithMaxUnits(max int) Option {
	return func(s *Service) { s.maxUnits = max }
}

func New(store Store, led ledger.Ledger, tx Tx, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("donation store is required")
	}
	if led == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction boundary is required")
	}

	svc := &Service{
		store:        store,
		ledger:       led,
		tx:           tx,
		now:          time.Now,
		cooldownDays: policy.DefaultCooldownDays,
		maxUnits:     policy.DefaultMaxUnitsPerDonation,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// ProcessDonation applies the preconditions in order (first failure wins,
// no partial effects), then atomically appends the donation record and
// credits the ledger with the donor's own blood group.
func (s *Service) ProcessDonation(ctx context.Context, donor domain.DonorProfile, units int) (*domain.DonationRecord, error) {
	if !donor.Approved {
		return nil, dErrors.New(dErrors.CodeNotApproved, "donor is not approved yet")
	}

	var record *domain.DonationRecord
	err := s.tx.RunInTx(ctx, donor.ID.String(), func(txCtx context.Context) error {
		// The cooldown check lives inside the per-donor boundary so two
		// concurrent donations cannot both read "eligible" and both commit.
		last, err := s.store.LastDonationDate(txCtx, donor.ID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read donation history")
		}
		if !policy.CanDonate(last, s.now(), s.cooldownDays) {
			return dErrors.New(dErrors.CodeCooldownActive,
				fmt.Sprintf("donor may donate again %d days after the last donation", s.cooldownDays))
		}
		if !policy.UnitsInRange(units, s.maxUnits) {
			return dErrors.New(dErrors.CodeInvalidUnits,
				fmt.Sprintf("units must be between 1 and %d", s.maxUnits))
		}

		rec := domain.DonationRecord{
			ID:         uuid.New(),
			DonorID:    donor.ID,
			BloodGroup: donor.BloodGroup,
			Units:      units,
			Date:       domain.DateOf(s.now()),
		}
		if err := s.store.Append(txCtx, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record donation")
		}
		if err := s.ledger.Credit(txCtx, donor.BloodGroup, units); err != nil {
			return err
		}
		record = &rec
		return nil
	})
	if err != nil {
		return nil, translateTxErr(err)
	}

	s.emitAudit(ctx, audit.Event{
		Actor:      donor.ID.String(),
		Action:     audit.ActionDonationRecorded,
		BloodGroup: donor.BloodGroup.String(),
		Units:      units,
		Decision:   "accepted",
	})
	if s.metrics != nil {
		s.metrics.DonationsTotal.Inc()
		s.observeStock(ctx, donor.BloodGroup)
	}
	s.logger.InfoContext(ctx, "donation recorded",
		"donor_id", donor.ID.String(),
		"blood_group", donor.BloodGroup.String(),
		"units", units,
	)
	return record, nil
}

func (s *Service) ListByDonor(ctx context.Context, donorID domain.DonorID) ([]domain.DonationRecord, error) {
	return s.store.ListByDonor(ctx, donorID)
}

func (s *Service) ListAll(ctx context.Context) ([]domain.DonationRecord, error) {
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

// translateTxErr keeps domain errors intact and maps exhausted-retry
// conflicts onto the transient code the caller may retry at its own policy.
func translateTxErr(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.Wrap(err, dErrors.CodeTransient, "donation transaction kept conflicting")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "donation transaction failed")
}
