// Package inventory wraps the ledger's read and override surface for the
// dashboard and the admin stock correction. All stock-changing business flows
// (donations, requests) go through their processors instead.
package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"bloodbank/internal/audit"
	"bloodbank/internal/domain"
	"bloodbank/internal/ledger"
	"bloodbank/internal/platform/metrics"
)

// AuditPublisher emits audit events for manual overrides.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	ledger         ledger.Ledger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
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

func New(led ledger.Ledger, opts ...Option) (*Service, error) {
	if led == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	svc := &Service{ledger: led}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

func (s *Service) Balance(ctx context.Context, group domain.BloodGroup) (int, error) {
	return s.ledger.Balance(ctx, group)
}

func (s *Service) BalanceAll(ctx context.Context) (map[domain.BloodGroup]int, error) {
	return s.ledger.BalanceAll(ctx)
}

// SetStock replaces a group's balance directly. Manual corrections skip the
// eligibility rules but still refuse negative values.
func (s *Service) SetStock(ctx context.Context, actor string, group domain.BloodGroup, units int) error {
	if err := s.ledger.SetStock(ctx, group, units); err != nil {
		return err
	}
	if s.auditPublisher != nil {
		event := audit.Event{
			Actor:      actor,
			Action:     audit.ActionStockOverridden,
			BloodGroup: group.String(),
			Units:      units,
		}
		if err := s.auditPublisher.Emit(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
		}
	}
	if s.metrics != nil {
		s.metrics.SetStockUnits(group.String(), units)
	}
	s.logger.InfoContext(ctx, "stock overridden",
		"actor", actor,
		"blood_group", group.String(),
		"units", units,
	)
	return nil
}
