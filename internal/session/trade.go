package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/xtding233/gachamon/internal/creature"
	"github.com/xtding233/gachamon/internal/gacha"
)

const defaultTraderPrefix = "Trader"

// Offer is a pending trade: the offered creature in exchange for ForUID.
type Offer struct {
	ForUID   string          `json:"for_uid"`
	Trader   string          `json:"trader"`
	Creature creature.Record `json:"creature"`
}

// OfferTrade generates a trade offer for an owned creature: another
// species of the same rarity from a named trader. A new offer replaces any
// pending one for the same creature.
func (s *Session) OfferTrade(ctx context.Context, uid string) (Offer, error) {
	rec, err := s.Creature(uid)
	if err != nil {
		return Offer{}, err
	}
	cfg := s.settings()
	pool := cfg.Table.Pool(rec.Rarity)
	candidates := make([]string, 0, len(pool))
	for _, name := range pool {
		if !strings.EqualFold(name, rec.Name) {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		candidates = pool
	}
	if len(candidates) == 0 {
		return Offer{}, fmt.Errorf("%w: rarity %s", gacha.ErrEmptyPool, rec.Rarity)
	}
	pick := candidates[gacha.IntN(s.deps.RNG, len(candidates))]

	offered, err := s.engine().Instantiate(ctx, rec.Rarity, pick)
	if err != nil {
		return Offer{}, err
	}
	trader := traderName(cfg.TraderPrefixes, s.deps.RNG)
	offered.AppendHistory(s.deps.Now(), "Offered by "+trader, 0)

	offer := Offer{ForUID: uid, Trader: trader, Creature: offered}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index(uid) < 0 {
		return Offer{}, fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	s.offers[uid] = offer
	return offer, nil
}

// traderName is "<prefix>-<100..9099>".
func traderName(prefixes []string, rng gacha.RandomSource) string {
	prefix := defaultTraderPrefix
	if len(prefixes) > 0 {
		prefix = prefixes[gacha.IntN(rng, len(prefixes))]
	}
	return fmt.Sprintf("%s-%d", prefix, 100+gacha.IntN(rng, 9000))
}

// PendingOffer returns the offer waiting on a creature, if any.
func (s *Session) PendingOffer(uid string) (Offer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[uid]
	return o, ok
}

// AcceptTrade swaps the creature for the offered one.
func (s *Session) AcceptTrade(ctx context.Context, uid string) (creature.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offer, ok := s.offers[uid]
	if !ok {
		return creature.Record{}, fmt.Errorf("%w: %s", ErrNoOffer, uid)
	}
	i := s.index(uid)
	if i < 0 {
		delete(s.offers, uid)
		return creature.Record{}, fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	s.remove(i)
	s.collection = append(s.collection, offer.Creature.Clone())
	return offer.Creature.Clone(), s.persistCollection(ctx)
}

// DeclineTrade discards the pending offer.
func (s *Session) DeclineTrade(uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.offers[uid]; !ok {
		return fmt.Errorf("%w: %s", ErrNoOffer, uid)
	}
	delete(s.offers, uid)
	return nil
}
