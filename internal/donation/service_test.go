package donation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bloodbank/internal/audit"
	"bloodbank/internal/domain"
	"bloodbank/internal/ledger"
	dErrors "bloodbank/pkg/domain-errors"
)

type DonationServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *InMemoryStore
	ledger  *ledger.InMemoryLedger
	trail   *audit.InMemoryStore
	now     time.Time
	service *Service
}

func (s *DonationServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
	s.ledger = ledger.NewInMemoryLedger()
	s.trail = audit.NewInMemoryStore()
	s.now = time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)

	var err error
	s.service, err = New(s.store, s.ledger, NewShardedTx(),
		WithAuditPublisher(audit.NewPublisher(s.trail)),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
}

func TestDonationServiceSuite(t *testing.T) {
	suite.Run(t, new(DonationServiceSuite))
}

func (s *DonationServiceSuite) newDonor(group domain.BloodGroup) domain.DonorProfile {
	return domain.DonorProfile{
		ID:         domain.DonorID(uuid.New()),
		Name:       "Test Donor",
		BloodGroup: group,
		Approved:   true,
	}
}

func (s *DonationServiceSuite) balance(group domain.BloodGroup) int {
	balance, err := s.ledger.Balance(s.ctx, group)
	s.Require().NoError(err)
	return balance
}

func (s *DonationServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil, s.ledger, NewShardedTx())
		s.Require().Error(err)
	})
	s.Run("nil ledger returns error", func() {
		_, err := New(s.store, nil, NewShardedTx())
		s.Require().Error(err)
	})
	s.Run("nil tx returns error", func() {
		_, err := New(s.store, s.ledger, nil)
		s.Require().Error(err)
	})
}

func (s *DonationServiceSuite) TestSuccessfulDonation() {
	donor := s.newDonor(domain.BloodGroupAPos)

	record, err := s.service.ProcessDonation(s.ctx, donor, 2)
	s.Require().NoError(err)
	s.Equal(donor.ID, record.DonorID)
	s.Equal(domain.BloodGroupAPos, record.BloodGroup)
	s.Equal(2, record.Units)
	s.Equal(domain.DateOf(s.now), record.Date)

	// The credit lands on the donor's own group.
	s.Equal(2, s.balance(domain.BloodGroupAPos))
	s.Zero(s.balance(domain.BloodGroupANeg))

	history, err := s.store.ListByDonor(s.ctx, donor.ID)
	s.Require().NoError(err)
	s.Len(history, 1)

	events, err := s.trail.ListByActor(s.ctx, donor.ID.String())
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionDonationRecorded, events[0].Action)
	s.Equal("accepted", events[0].Decision)
}

func (s *DonationServiceSuite) TestUnapprovedDonorIsRefused() {
	donor := s.newDonor(domain.BloodGroupBPos)
	donor.Approved = false

	_, err := s.service.ProcessDonation(s.ctx, donor, 1)
	s.Require().Error(err)
	s.Equal(dErrors.CodeNotApproved, dErrors.CodeOf(err))

	// A refused donation leaves no trace anywhere.
	s.Zero(s.balance(domain.BloodGroupBPos))
	history, _ := s.store.ListByDonor(s.ctx, donor.ID)
	s.Empty(history)
	s.Zero(s.trail.Len())
}

func (s *DonationServiceSuite) TestCooldown() {
	donor := s.newDonor(domain.BloodGroupONeg)

	_, err := s.service.ProcessDonation(s.ctx, donor, 2)
	s.Require().NoError(err)

	s.Run("second donation on the same day is refused", func() {
		_, err := s.service.ProcessDonation(s.ctx, donor, 1)
		s.Require().Error(err)
		s.Equal(dErrors.CodeCooldownActive, dErrors.CodeOf(err))
		s.Equal(2, s.balance(domain.BloodGroupONeg))
	})

	s.Run("89 days later is still refused", func() {
		s.now = s.now.AddDate(0, 0, 89)
		_, err := s.service.ProcessDonation(s.ctx, donor, 1)
		s.Require().Error(err)
		s.Equal(dErrors.CodeCooldownActive, dErrors.CodeOf(err))
	})

	s.Run("90 days later is allowed", func() {
		s.now = s.now.AddDate(0, 0, 1)
		record, err := s.service.ProcessDonation(s.ctx, donor, 1)
		s.Require().NoError(err)
		s.Equal(domain.DateOf(s.now), record.Date)
		s.Equal(3, s.balance(domain.BloodGroupONeg))
	})
}

func (s *DonationServiceSuite) TestInvalidUnits() {
	donor := s.newDonor(domain.BloodGroupABNeg)

	for _, units := range []int{0, -3, 6} {
		_, err := s.service.ProcessDonation(s.ctx, donor, units)
		s.Require().Error(err, "units=%d", units)
		s.Equal(dErrors.CodeInvalidUnits, dErrors.CodeOf(err))
	}

	s.Zero(s.balance(domain.BloodGroupABNeg))
	history, _ := s.store.ListByDonor(s.ctx, donor.ID)
	s.Empty(history)
	s.Zero(s.trail.Len())
}

// TestPreconditionOrder pins the failure ordering: approval before cooldown
// before unit bounds. A donation failing several checks reports the first.
func (s *DonationServiceSuite) TestPreconditionOrder() {
	donor := s.newDonor(domain.BloodGroupOPos)
	_, err := s.service.ProcessDonation(s.ctx, donor, 1)
	s.Require().NoError(err)

	s.Run("approval beats cooldown and units", func() {
		unapproved := donor
		unapproved.Approved = false
		_, err := s.service.ProcessDonation(s.ctx, unapproved, 99)
		s.Equal(dErrors.CodeNotApproved, dErrors.CodeOf(err))
	})

	s.Run("cooldown beats units", func() {
		_, err := s.service.ProcessDonation(s.ctx, donor, 99)
		s.Equal(dErrors.CodeCooldownActive, dErrors.CodeOf(err))
	})
}

// TestConcurrentDonationsSameDonor races many donations by the same donor on
// one day; the per-donor boundary must let exactly one through.
func (s *DonationServiceSuite) TestConcurrentDonationsSameDonor() {
	const attempts = 10
	donor := s.newDonor(domain.BloodGroupBNeg)

	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			_, err := s.service.ProcessDonation(s.ctx, donor, 1)
			results <- err
		}()
	}

	var accepted int
	for i := 0; i < attempts; i++ {
		if err := <-results; err == nil {
			accepted++
		} else {
			s.Equal(dErrors.CodeCooldownActive, dErrors.CodeOf(err))
		}
	}

	s.Equal(1, accepted)
	s.Equal(1, s.balance(domain.BloodGroupBNeg))
	history, _ := s.store.ListByDonor(s.ctx, donor.ID)
	s.Len(history, 1)
}

func (s *DonationServiceSuite) TestCancelledContext() {
	donor := s.newDonor(domain.BloodGroupAPos)
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.service.ProcessDonation(ctx, donor, 1)
	s.Require().Error(err)
	s.Equal(dErrors.CodeTimeout, dErrors.CodeOf(err))
	s.Zero(s.balance(domain.BloodGroupAPos))
}
