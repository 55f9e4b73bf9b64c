package external

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/warp/folio-engine/folio"
)

// RedisClient is the part of *redis.Client the receivables adapter uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	IncrBy(ctx context.Context, key string, value int64) *redis.IntCmd
}

// RedisReceivables stores each company's receivable balance under
// "<prefix>:<company>" as an integer count of micro-units, so concurrent
// INCRBY updates from several engine processes stay exact.
type RedisReceivables struct {
	Client RedisClient
	Prefix string
}

const microExp = -6

// NewRedisReceivables connects to addr and pings it with a short timeout.
func NewRedisReceivables(ctx context.Context, addr, password string, db int) (*RedisReceivables, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisReceivables{Client: client}, client, nil
}

func (r *RedisReceivables) key(company folio.CompanyID) string {
	prefix := r.Prefix
	if prefix == "" {
		prefix = "receivable"
	}
	return prefix + ":" + string(company)
}

// Balance returns the stored balance; an absent key is zero.
func (r *RedisReceivables) Balance(ctx context.Context, company folio.CompanyID) (decimal.Decimal, error) {
	micros, err := r.Client.Get(ctx, r.key(company)).Int64()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("receivable balance for %s: %w", company, err)
	}
	return decimal.New(micros, microExp), nil
}

// Add raises (or, for a negative amount, lowers) the company's balance.
func (r *RedisReceivables) Add(ctx context.Context, company folio.CompanyID, amount decimal.Decimal) error {
	micros := amount.Shift(-microExp).Round(0).IntPart()
	if err := r.Client.IncrBy(ctx, r.key(company), micros).Err(); err != nil {
		return fmt.Errorf("add receivable for %s: %w", company, err)
	}
	return nil
}

var _ ReceivableBook = (*RedisReceivables)(nil)
