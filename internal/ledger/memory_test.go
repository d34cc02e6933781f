package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"bloodbank/internal/domain"
	dErrors "bloodbank/pkg/domain-errors"
)

type InMemoryLedgerSuite struct {
	suite.Suite
	ledger *InMemoryLedger
	ctx    context.Context
}

func (s *InMemoryLedgerSuite) SetupTest() {
	s.ledger = NewInMemoryLedger()
	s.ctx = context.Background()
}

func TestInMemoryLedgerSuite(t *testing.T) {
	suite.Run(t, new(InMemoryLedgerSuite))
}

func (s *InMemoryLedgerSuite) TestSeededGroups() {
	s.Run("all groups start at zero", func() {
		balances, err := s.ledger.BalanceAll(s.ctx)
		s.Require().NoError(err)
		s.Len(balances, 8)
		for group, units := range balances {
			s.Zero(units, "group %s", group)
		}
	})

	s.Run("unknown group is rejected", func() {
		err := s.ledger.Credit(s.ctx, domain.BloodGroup("C+"), 1)
		s.Require().Error(err)
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})
}

func (s *InMemoryLedgerSuite) TestCreditAndDebit() {
	s.Run("credit then debit round-trips", func() {
		s.Require().NoError(s.ledger.Credit(s.ctx, domain.BloodGroupAPos, 5))
		s.Require().NoError(s.ledger.Debit(s.ctx, domain.BloodGroupAPos, 3))

		balance, err := s.ledger.Balance(s.ctx, domain.BloodGroupAPos)
		s.Require().NoError(err)
		s.Equal(2, balance)
	})

	s.Run("non-positive amounts are rejected", func() {
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(s.ledger.Credit(s.ctx, domain.BloodGroupAPos, 0)))
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(s.ledger.Debit(s.ctx, domain.BloodGroupAPos, -1)))
	})

	s.Run("groups are independent", func() {
		s.Require().NoError(s.ledger.Credit(s.ctx, domain.BloodGroupONeg, 4))

		balance, err := s.ledger.Balance(s.ctx, domain.BloodGroupOPos)
		s.Require().NoError(err)
		s.Zero(balance)
	})
}

func (s *InMemoryLedgerSuite) TestDebitShortfall() {
	s.Require().NoError(s.ledger.Credit(s.ctx, domain.BloodGroupBNeg, 2))

	err := s.ledger.Debit(s.ctx, domain.BloodGroupBNeg, 3)
	s.Require().Error(err)

	var insufficient *InsufficientStockError
	s.Require().True(errors.As(err, &insufficient))
	s.Equal(domain.BloodGroupBNeg, insufficient.Group)
	s.Equal(3, insufficient.Requested)
	s.Equal(2, insufficient.Available)

	// A refused debit must not touch the balance.
	balance, err := s.ledger.Balance(s.ctx, domain.BloodGroupBNeg)
	s.Require().NoError(err)
	s.Equal(2, balance)
}

func (s *InMemoryLedgerSuite) TestSetStock() {
	s.Require().NoError(s.ledger.Credit(s.ctx, domain.BloodGroupABPos, 7))
	s.Require().NoError(s.ledger.SetStock(s.ctx, domain.BloodGroupABPos, 3))

	balance, err := s.ledger.Balance(s.ctx, domain.BloodGroupABPos)
	s.Require().NoError(err)
	s.Equal(3, balance)

	s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(s.ledger.SetStock(s.ctx, domain.BloodGroupABPos, -1)))
}

// TestConcurrentDebitsNeverOverdraw drives many simultaneous debits against a
// small balance and asserts exactly floor(stock/units) of them succeed while
// the balance never goes negative.
func (s *InMemoryLedgerSuite) TestConcurrentDebitsNeverOverdraw() {
	const (
		stock      = 10
		debitUnits = 3
		attempts   = 50
	)
	s.Require().NoError(s.ledger.Credit(s.ctx, domain.BloodGroupOPos, stock))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.ledger.Debit(s.ctx, domain.BloodGroupOPos, debitUnits); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(stock/debitUnits, succeeded)

	balance, err := s.ledger.Balance(s.ctx, domain.BloodGroupOPos)
	s.Require().NoError(err)
	s.Equal(stock-succeeded*debitUnits, balance)
	s.GreaterOrEqual(balance, 0)
}

// TestConcurrentMixedTraffic interleaves credits and debits and checks the
// final balance equals credits minus successful debits.
func (s *InMemoryLedgerSuite) TestConcurrentMixedTraffic() {
	const workers = 20

	var (
		wg               sync.WaitGroup
		mu               sync.Mutex
		successfulDebits int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.NoError(s.ledger.Credit(s.ctx, domain.BloodGroupANeg, 2))
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.ledger.Debit(s.ctx, domain.BloodGroupANeg, 1); err == nil {
				mu.Lock()
				successfulDebits++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	balance, err := s.ledger.Balance(s.ctx, domain.BloodGroupANeg)
	s.Require().NoError(err)
	s.Equal(workers*2-successfulDebits, balance)
}
