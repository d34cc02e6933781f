package request

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bloodbank/internal/audit"
	"bloodbank/internal/domain"
	"bloodbank/internal/ledger"
	dErrors "bloodbank/pkg/domain-errors"
)

type RequestServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *InMemoryStore
	ledger  *ledger.InMemoryLedger
	trail   *audit.InMemoryStore
	service *Service
}

func (s *RequestServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
	s.ledger = ledger.NewInMemoryLedger()
	s.trail = audit.NewInMemoryStore()

	var err error
	s.service, err = New(s.store, s.ledger, NewShardedTx(),
		WithAuditPublisher(audit.NewPublisher(s.trail)),
		WithClock(func() time.Time {
			return time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
		}),
	)
	s.Require().NoError(err)
}

func TestRequestServiceSuite(t *testing.T) {
	suite.Run(t, new(RequestServiceSuite))
}

func (s *RequestServiceSuite) newPatient() domain.PatientProfile {
	return domain.PatientProfile{
		ID:         domain.PatientID(uuid.New()),
		Name:       "Test Patient",
		BloodGroup: domain.BloodGroupAPos,
		Approved:   true,
	}
}

func (s *RequestServiceSuite) balance(group domain.BloodGroup) int {
	balance, err := s.ledger.Balance(s.ctx, group)
	s.Require().NoError(err)
	return balance
}

func (s *RequestServiceSuite) TestApprovedRequest() {
	s.Require().NoError(s.ledger.Credit(s.ctx, domain.BloodGroupBPos, 5))
	patient := s.newPatient()

	record, err := s.service.ProcessRequest(s.ctx, patient, domain.BloodGroupBPos, 3)
	s.Require().NoError(err)
	s.Equal(domain.RequestStatusApproved, record.Status)
	s.Equal(3, record.Units)
	s.Equal(2, s.balance(domain.BloodGroupBPos))

	events, err := s.trail.ListByActor(s.ctx, patient.ID.String())
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionRequestApproved, events[0].Action)
}

// Patients may request any group, not just their own.
func (s *RequestServiceSuite) TestRequestForeignGroup() {
	s.Require().NoError(s.ledger.Credit(s.ctx, domain.BloodGroupONeg, 2))
	patient := s.newPatient() // A+ patient

	record, err := s.service.ProcessRequest(s.ctx, patient, domain.BloodGroupONeg, 2)
	s.Require().NoError(err)
	s.Equal(domain.BloodGroupONeg, record.BloodGroup)
	s.Zero(s.balance(domain.BloodGroupONeg))
}

func (s *RequestServiceSuite) TestUnapprovedPatientIsRefused() {
	s.Require().NoError(s.ledger.Credit(s.ctx, domain.BloodGroupAPos, 5))
	patient := s.newPatient()
	patient.Approved = false

	_, err := s.service.ProcessRequest(s.ctx, patient, domain.BloodGroupAPos, 99)
	s.Require().Error(err)
	// Approval is checked before unit bounds.
	s.Equal(dErrors.CodeNotApproved, dErrors.CodeOf(err))

	s.Equal(5, s.balance(domain.BloodGroupAPos))
	all, _ := s.store.ListAll(s.ctx)
	s.Empty(all)
	s.Zero(s.trail.Len())
}

func (s *RequestServiceSuite) TestInvalidUnits() {
	patient := s.newPatient()

	for _, units := range []int{0, -2, 6} {
		_, err := s.service.ProcessRequest(s.ctx, patient, domain.BloodGroupAPos, units)
		s.Require().Error(err, "units=%d", units)
		s.Equal(dErrors.CodeInvalidUnits, dErrors.CodeOf(err))
	}
	all, _ := s.store.ListAll(s.ctx)
	s.Empty(all)
}

func (s *RequestServiceSuite) TestInsufficientStock() {
	s.Require().NoError(s.ledger.Credit(s.ctx, domain.BloodGroupONeg, 2))
	patient := s.newPatient()

	_, err := s.service.ProcessRequest(s.ctx, patient, domain.BloodGroupONeg, 3)
	s.Require().Error(err)
	s.Equal(dErrors.CodeInsufficientStock, dErrors.CodeOf(err))

	// The error carries the available balance for the caller.
	var insufficient *ledger.InsufficientStockError
	s.Require().True(errors.As(err, &insufficient))
	s.Equal(2, insufficient.Available)
	s.Equal(3, insufficient.Requested)

	// Stock is untouched; the refusal is recorded as a Rejected request.
	s.Equal(2, s.balance(domain.BloodGroupONeg))
	records, err := s.store.ListByPatient(s.ctx, patient.ID)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(domain.RequestStatusRejected, records[0].Status)

	events, err := s.trail.ListByActor(s.ctx, patient.ID.String())
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionRequestRejected, events[0].Action)
	s.Equal("only 2 units available", events[0].Reason)
}

// TestShortfallThenExactDrain walks the canonical sequence: an empty group is
// credited two units, a three-unit request is rejected with the available
// count, then a two-unit request drains the group to zero.
func (s *RequestServiceSuite) TestShortfallThenExactDrain() {
	s.Require().NoError(s.ledger.Credit(s.ctx, domain.BloodGroupONeg, 2))
	patient := s.newPatient()

	_, err := s.service.ProcessRequest(s.ctx, patient, domain.BloodGroupONeg, 3)
	s.Require().Error(err)
	var insufficient *ledger.InsufficientStockError
	s.Require().True(errors.As(err, &insufficient))
	s.Equal(2, insufficient.Available)

	record, err := s.service.ProcessRequest(s.ctx, patient, domain.BloodGroupONeg, 2)
	s.Require().NoError(err)
	s.Equal(domain.RequestStatusApproved, record.Status)
	s.Zero(s.balance(domain.BloodGroupONeg))

	records, err := s.store.ListByPatient(s.ctx, patient.ID)
	s.Require().NoError(err)
	s.Len(records, 2)
}

// TestConcurrentRequests races many same-size requests against limited stock;
// exactly floor(stock/units) may be approved and the rest must be rejected.
func (s *RequestServiceSuite) TestConcurrentRequests() {
	const (
		stock    = 5
		units    = 2
		attempts = 20
	)
	s.Require().NoError(s.ledger.Credit(s.ctx, domain.BloodGroupABPos, stock))

	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			patient := s.newPatient()
			_, err := s.service.ProcessRequest(s.ctx, patient, domain.BloodGroupABPos, units)
			results <- err
		}()
	}

	var approved int
	for i := 0; i < attempts; i++ {
		if err := <-results; err == nil {
			approved++
		} else {
			s.Equal(dErrors.CodeInsufficientStock, dErrors.CodeOf(err))
		}
	}

	s.Equal(stock/units, approved)
	s.Equal(stock-approved*units, s.balance(domain.BloodGroupABPos))

	all, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, attempts) // every attempt leaves a record, approved or rejected
}
