// Package store persists per-address game state: the creature collection
// and the wallet, each as one JSON document.
package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/xtding233/gachamon/internal/creature"
	"github.com/xtding233/gachamon/internal/wallet"
)

const (
	collectionSuffix = "cmc_monsters_v1"
	walletSuffix     = "cmc_wallet_v1"
)

var ErrInvalidAddress = errors.New("invalid wallet address")

// Store is a key-value document store scoped by wallet address. A wallet
// that was never saved loads with ok=false.
type Store interface {
	LoadCollection(ctx context.Context, addr string) ([]creature.Record, error)
	SaveCollection(ctx context.Context, addr string, recs []creature.Record) error
	LoadWallet(ctx context.Context, addr string) (snap wallet.Snapshot, ok bool, err error)
	SaveWallet(ctx context.Context, addr string, snap wallet.Snapshot) error
}

// CollectionKey is "<address>-cmc_monsters_v1".
func CollectionKey(addr string) string { return addr + "-" + collectionSuffix }

// WalletKey is "<address>-cmc_wallet_v1".
func WalletKey(addr string) string { return addr + "-" + walletSuffix }

// NormalizeAddress lowercases and trims an address; blank addresses are
// rejected.
func NormalizeAddress(addr string) (string, error) {
	a := strings.ToLower(strings.TrimSpace(addr))
	if a == "" || strings.ContainsAny(a, " \t\n") {
		return "", ErrInvalidAddress
	}
	return a, nil
}

// Memory is an in-process Store. Documents are deep-copied on the way in
// and out.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]creature.Record
	wallets     map[string]wallet.Snapshot
}

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string][]creature.Record),
		wallets:     make(map[string]wallet.Snapshot),
	}
}

func (m *Memory) LoadCollection(_ context.Context, addr string) ([]creature.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneRecords(m.collections[addr]), nil
}

func (m *Memory) SaveCollection(_ context.Context, addr string, recs []creature.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[addr] = cloneRecords(recs)
	return nil
}

func (m *Memory) LoadWallet(_ context.Context, addr string) (wallet.Snapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.wallets[addr]
	if !ok {
		return wallet.Snapshot{}, false, nil
	}
	return wallet.Snapshot{Balance: s.Balance, History: append([]wallet.Tx(nil), s.History...)}, true, nil
}

func (m *Memory) SaveWallet(_ context.Context, addr string, snap wallet.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[addr] = wallet.Snapshot{Balance: snap.Balance, History: append([]wallet.Tx(nil), snap.History...)}
	return nil
}

func cloneRecords(recs []creature.Record) []creature.Record {
	if recs == nil {
		return nil
	}
	out := make([]creature.Record, len(recs))
	for i := range recs {
		out[i] = recs[i].Clone()
	}
	return out
}
