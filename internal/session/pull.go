package session

import (
	"context"
	"fmt"

	"github.com/xtding233/gachamon/internal/creature"
	"github.com/xtding233/gachamon/internal/token"
)

// Quote prices n pulls with the current bundle table.
func (s *Session) Quote(n int) token.Quote {
	return s.settings().Token.Quote(n)
}

// Affordable reports the most pulls the current balance buys.
func (s *Session) Affordable() token.Quote {
	return s.settings().Token.MaxPulls(s.wallet.Balance())
}

// Pull spends one pull's cost and adds a new creature. A failed species
// fetch refunds the cost and leaves the collection untouched.
func (s *Session) Pull(ctx context.Context) (creature.Record, error) {
	recs, err := s.PullMany(ctx, 1)
	if err != nil {
		return creature.Record{}, err
	}
	return recs[0], nil
}

// PullMany buys n pulls at the bundle price and adds all n creatures, or
// none: any fetch failure refunds the whole charge.
func (s *Session) PullMany(ctx context.Context, n int) ([]creature.Record, error) {
	if n <= 0 {
		return nil, nil
	}
	if !s.pulling.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.pulling.Store(false)

	cost := s.settings().Token.TokensForPulls(n)
	note := "Pull"
	if n > 1 {
		note = fmt.Sprintf("Pull x%d", n)
	}
	if !s.wallet.Spend(cost, note) {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, cost, s.wallet.Balance())
	}

	eng := s.engine()
	recs := make([]creature.Record, 0, n)
	for i := 0; i < n; i++ {
		rec, err := eng.Pull(ctx)
		if err != nil {
			s.wallet.Credit(cost, "Refund: "+note)
			s.mu.Lock()
			perr := s.persistWallet(ctx)
			s.mu.Unlock()
			if perr != nil {
				return nil, fmt.Errorf("%w (refund not saved: %v)", err, perr)
			}
			return nil, err
		}
		recs = append(recs, rec)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		s.collection = append(s.collection, rec.Clone())
	}
	return recs, s.persist(ctx)
}
