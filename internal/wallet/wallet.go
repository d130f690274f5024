// Package wallet tracks a player's token balance with an append-only
// transaction log.
package wallet

import (
	"sync"
	"time"
)

type TxType string

const (
	Credit TxType = "credit"
	Debit  TxType = "debit"
)

// Tx is one balance movement; TS is unix milliseconds.
type Tx struct {
	TS     int64  `json:"ts"`
	Type   TxType `json:"type"`
	Amount int    `json:"amount"`
	Note   string `json:"note"`
}

// Snapshot is the persisted form of a wallet.
type Snapshot struct {
	Balance int  `json:"balance"`
	History []Tx `json:"history"`
}

// Wallet is safe for concurrent use.
type Wallet struct {
	mu      sync.Mutex
	balance int
	history []Tx
	now     func() time.Time
}

// New opens a wallet with a starting balance and no history.
func New(initial int) *Wallet {
	return &Wallet{balance: max(0, initial), now: time.Now}
}

// FromSnapshot restores a persisted wallet.
func FromSnapshot(s Snapshot) *Wallet {
	return &Wallet{
		balance: max(0, s.Balance),
		history: append([]Tx(nil), s.History...),
		now:     time.Now,
	}
}

// SetClock replaces the timestamp source.
func (w *Wallet) SetClock(now func() time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = now
}

func (w *Wallet) Balance() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance
}

// Spend debits amount when the balance covers it. A non-positive amount
// always succeeds and records nothing.
func (w *Wallet) Spend(amount int, note string) bool {
	if amount <= 0 {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.balance < amount {
		return false
	}
	w.balance -= amount
	w.record(Debit, amount, note)
	return true
}

// Credit adds amount. Non-positive amounts are ignored.
func (w *Wallet) Credit(amount int, note string) {
	if amount <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balance += amount
	w.record(Credit, amount, note)
}

func (w *Wallet) record(t TxType, amount int, note string) {
	w.history = append(w.history, Tx{TS: w.now().UnixMilli(), Type: t, Amount: amount, Note: note})
}

// Snapshot copies the balance and history.
func (w *Wallet) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{Balance: w.balance, History: append([]Tx(nil), w.history...)}
}
