// Package cache guarda no Redis leituras caras do ledger com TTL curto.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/sports-wager-ledger/internal/ledger"
)

type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Leaderboard cacheia o ranking por limite; R nil desliga o cache
type Leaderboard struct {
	R   kv
	TTL time.Duration
}

func NewLeaderboard(r *redis.Client, ttl time.Duration) *Leaderboard {
	if r == nil {
		return &Leaderboard{TTL: ttl}
	}
	return &Leaderboard{R: r, TTL: ttl}
}

func keyLeaderboard(limit int) string { return "ledger:leaderboard:" + strconv.Itoa(limit) }

func (c *Leaderboard) Get(ctx context.Context, limit int) ([]ledger.Account, bool, error) {
	if c == nil || c.R == nil {
		return nil, false, nil
	}
	b, err := c.R.Get(ctx, keyLeaderboard(limit)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var out []ledger.Account
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (c *Leaderboard) Set(ctx context.Context, limit int, accounts []ledger.Account) error {
	if c == nil || c.R == nil || c.TTL <= 0 {
		return nil
	}
	b, err := json.Marshal(accounts)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, keyLeaderboard(limit), b, c.TTL).Err()
}

// Source é a leitura do ranking direto no ledger
type Source interface {
	Leaderboard(limit int) []ledger.Account
}

// Fetch tenta o cache e cai no ledger; erro de Redis nunca falha a leitura
func (c *Leaderboard) Fetch(ctx context.Context, src Source, limit int) []ledger.Account {
	if cached, ok, err := c.Get(ctx, limit); err == nil && ok {
		return cached
	}
	out := src.Leaderboard(limit)
	_ = c.Set(ctx, limit, out)
	return out
}
