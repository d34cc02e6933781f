package ledger

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"bloodbank/internal/domain"
)

const balancesKey = "bloodbank:stock:balances"

// CachedLedger fronts a Ledger with a Redis hash for the dashboard's
// BalanceAll snapshot. Mutations pass straight through and drop the cached
// hash afterwards; the TTL bounds staleness if an invalidation is lost.
// Single-group reads stay on the authoritative ledger.
type CachedLedger struct {
	next   Ledger
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedLedger(next Ledger, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedLedger {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedLedger{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *CachedLedger) Credit(ctx context.Context, group domain.BloodGroup, units int) error {
	if err := c.next.Credit(ctx, group, units); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedLedger) Debit(ctx context.Context, group domain.BloodGroup, units int) error {
	if err := c.next.Debit(ctx, group, units); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedLedger) Balance(ctx context.Context, group domain.BloodGroup) (int, error) {
	return c.next.Balance(ctx, group)
}

func (c *CachedLedger) BalanceAll(ctx context.Context) (map[domain.BloodGroup]int, error) {
	cached, err := c.rdb.HGetAll(ctx, balancesKey).Result()
	if err == nil && len(cached) == len(domain.AllBloodGroups()) {
		out := make(map[domain.BloodGroup]int, len(cached))
		ok := true
		for raw, val := range cached {
			group, gerr := domain.ParseBloodGroup(raw)
			units, uerr := strconv.Atoi(val)
			if gerr != nil || uerr != nil {
				ok = false
				break
			}
			out[group] = units
		}
		if ok {
			return out, nil
		}
	}
	if err != nil {
		c.logger.WarnContext(ctx, "stock cache read failed", "error", err)
	}

	balances, err := c.next.BalanceAll(ctx)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, balances)
	return balances, nil
}

func (c *CachedLedger) SetStock(ctx context.Context, group domain.BloodGroup, units int) error {
	if err := c.next.SetStock(ctx, group, units); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedLedger) fill(ctx context.Context, balances map[domain.BloodGroup]int) {
	fields := make(map[string]any, len(balances))
	for group, units := range balances {
		fields[group.String()] = units
	}
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, balancesKey, fields)
	pipe.Expire(ctx, balancesKey, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.WarnContext(ctx, "stock cache fill failed", "error", err)
	}
}

func (c *CachedLedger) invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, balancesKey).Err(); err != nil {
		c.logger.WarnContext(ctx, "stock cache invalidation failed", "error", err)
	}
}
