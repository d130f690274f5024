package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/xtding233/gachamon/internal/creature"
	"github.com/xtding233/gachamon/internal/wallet"
)

// RedisConfig holds connection parameters.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	// Prefix namespaces every key, e.g. "gachamon:".
	Prefix string
}

// Redis stores each document as a JSON string value.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Address, err)
	}
	return &Redis{rdb: rdb, prefix: cfg.Prefix}, nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb *redis.Client, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) Close() error { return r.rdb.Close() }

func (r *Redis) LoadCollection(ctx context.Context, addr string) ([]creature.Record, error) {
	var recs []creature.Record
	if _, err := r.get(ctx, r.prefix+CollectionKey(addr), &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *Redis) SaveCollection(ctx context.Context, addr string, recs []creature.Record) error {
	if recs == nil {
		recs = []creature.Record{}
	}
	return r.set(ctx, r.prefix+CollectionKey(addr), recs)
}

func (r *Redis) LoadWallet(ctx context.Context, addr string) (wallet.Snapshot, bool, error) {
	var snap wallet.Snapshot
	ok, err := r.get(ctx, r.prefix+WalletKey(addr), &snap)
	if err != nil || !ok {
		return wallet.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (r *Redis) SaveWallet(ctx context.Context, addr string, snap wallet.Snapshot) error {
	return r.set(ctx, r.prefix+WalletKey(addr), snap)
}

func (r *Redis) get(ctx context.Context, key string, v any) (bool, error) {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (r *Redis) set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
