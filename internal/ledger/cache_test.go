package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"bloodbank/internal/domain"
)

type CachedLedgerSuite struct {
	suite.Suite
	ctx    context.Context
	source *InMemoryLedger
	cached *CachedLedger
}

func (s *CachedLedgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.source = NewInMemoryLedger()
	// A client nothing listens on: every cache operation fails and must be
	// swallowed, leaving the source of truth in charge.
	unreachable := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	s.cached = NewCachedLedger(s.source, unreachable, time.Minute, nil)
}

func TestCachedLedgerSuite(t *testing.T) {
	suite.Run(t, new(CachedLedgerSuite))
}

// Cache failures never fail a mutation; the write lands on the source.
func (s *CachedLedgerSuite) TestMutationsSurviveCacheOutage() {
	s.Require().NoError(s.cached.Credit(s.ctx, domain.BloodGroupAPos, 3))
	s.Require().NoError(s.cached.Debit(s.ctx, domain.BloodGroupAPos, 1))
	s.Require().NoError(s.cached.SetStock(s.ctx, domain.BloodGroupBNeg, 5))

	balance, err := s.source.Balance(s.ctx, domain.BloodGroupAPos)
	s.Require().NoError(err)
	s.Equal(2, balance)

	balance, err = s.source.Balance(s.ctx, domain.BloodGroupBNeg)
	s.Require().NoError(err)
	s.Equal(5, balance)
}

func (s *CachedLedgerSuite) TestBalanceAllFallsBackToSource() {
	s.Require().NoError(s.source.Credit(s.ctx, domain.BloodGroupONeg, 4))

	balances, err := s.cached.BalanceAll(s.ctx)
	s.Require().NoError(err)
	s.Len(balances, 8)
	s.Equal(4, balances[domain.BloodGroupONeg])
}

func (s *CachedLedgerSuite) TestSingleGroupReadsBypassCache() {
	s.Require().NoError(s.source.Credit(s.ctx, domain.BloodGroupBPos, 7))

	balance, err := s.cached.Balance(s.ctx, domain.BloodGroupBPos)
	s.Require().NoError(err)
	s.Equal(7, balance)
}
