// Package battle runs single-creature, level-50 battles against a random
// opponent of the same rarity. Battles work on snapshots and never write
// back to the owned creature.
package battle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xtding233/gachamon/internal/creature"
	"github.com/xtding233/gachamon/internal/gacha"
	"github.com/xtding233/gachamon/internal/species"
)

var (
	ErrNoMoves   = errors.New("no usable moves")
	ErrDataFetch = errors.New("battle data unavailable")
)

// State of a battle. Over is terminal.
type State int

const (
	Loading State = iota
	Active
	Over
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Over:
		return "over"
	default:
		return "loading"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "loading":
		*s = Loading
	case "active":
		*s = Active
	case "over":
		*s = Over
	default:
		return fmt.Errorf("unknown battle state %q", b)
	}
	return nil
}

// Side identifies a participant.
type Side string

const (
	Player   Side = "player"
	Opponent Side = "opponent"
)

// Participant is a combat snapshot.
type Participant struct {
	Name   string          `json:"name"`
	Types  []string        `json:"types"`
	Moves  []species.Move  `json:"moves"`
	Stats  creature.Stats  `json:"stats"`
	MaxHP  int             `json:"max_hp"`
	HP     int             `json:"hp"`
	Rarity creature.Rarity `json:"rarity,omitempty"`
	Front  string          `json:"front,omitempty"`
	Back   string          `json:"back,omitempty"`
	Cry    string          `json:"cry,omitempty"`
}

func (p *Participant) HasType(t string) bool {
	for _, v := range p.Types {
		if v == t {
			return true
		}
	}
	return false
}

// Turn reports one resolved exchange.
type Turn struct {
	Number      int    `json:"number"`
	First       Side   `json:"first"`
	PlayerHit   Hit    `json:"player_hit"`
	OpponentHit Hit    `json:"opponent_hit"`
	Landed      []Side `json:"landed"` // attackers whose hit was applied, in order
	PlayerHP    int    `json:"player_hp"`
	OpponentHP  int    `json:"opponent_hp"`
	State       State  `json:"state"`
	Winner      Side   `json:"winner,omitempty"`
}

// View is a read-only copy of the battle.
type View struct {
	ID       string      `json:"id"`
	State    State       `json:"state"`
	Player   Participant `json:"player"`
	Opponent Participant `json:"opponent"`
	Turns    int         `json:"turns"`
	Winner   Side        `json:"winner,omitempty"`
}

type damageFunc func(move species.Move, attacker, defender *Participant) Hit

// Battle is one fight. ResolveTurn is single-flight: a submission that
// arrives while another is still resolving is ignored.
type Battle struct {
	ID string
	// Delay paces each turn before damage is applied.
	Delay time.Duration

	busy atomic.Bool

	mu       sync.Mutex
	state    State
	player   Participant
	opponent Participant
	turns    int
	winner   Side

	rng    gacha.RandomSource
	damage damageFunc
}

// New returns a battle in the Loading state.
func New(id string, chart Chart, rng gacha.RandomSource) *Battle {
	if rng == nil {
		rng = gacha.DefaultRNG()
	}
	b := &Battle{ID: id, rng: rng}
	b.damage = func(m species.Move, a, d *Participant) Hit {
		return Damage(m, a, d, chart, b.rng)
	}
	return b
}

// Start moves a loading battle to Active with both sides at full hp.
func (b *Battle) Start(player, opponent Participant) error {
	if len(player.Moves) == 0 || len(opponent.Moves) == 0 {
		return ErrNoMoves
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Loading {
		return nil
	}
	player.MaxHP, player.HP = player.Stats.HP, player.Stats.HP
	opponent.MaxHP, opponent.HP = opponent.Stats.HP, opponent.Stats.HP
	b.player, b.opponent = player, opponent
	b.state = Active
	return nil
}

// View returns a copy of the current battle state.
func (b *Battle) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return View{
		ID:       b.ID,
		State:    b.state,
		Player:   b.player,
		Opponent: b.opponent,
		Turns:    b.turns,
		Winner:   b.winner,
	}
}

// State returns the current state.
func (b *Battle) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// ResolveTurn plays the player's move against a random opponent move.
// The faster side strikes first (ties go to the player); if that strike
// deals damage and drops the defender to 0 the battle ends and the second
// strike never happens. A zero-damage strike never ends the battle. It returns false without changing anything when the battle is
// not Active, the move index is out of range, or a turn is in flight.
func (b *Battle) ResolveTurn(moveIndex int) (Turn, bool) {
	if !b.busy.CompareAndSwap(false, true) {
		return Turn{}, false
	}
	defer b.busy.Store(false)

	b.mu.Lock()
	if b.state != Active || moveIndex < 0 || moveIndex >= len(b.player.Moves) {
		b.mu.Unlock()
		return Turn{}, false
	}
	playerMove := b.player.Moves[moveIndex]
	opponentMove := b.opponent.Moves[gacha.IntN(b.rng, len(b.opponent.Moves))]
	turn := Turn{
		Number:      b.turns + 1,
		PlayerHit:   b.damage(playerMove, &b.player, &b.opponent),
		OpponentHit: b.damage(opponentMove, &b.opponent, &b.player),
	}
	b.mu.Unlock()

	if b.Delay > 0 {
		time.Sleep(b.Delay)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	type strike struct {
		side     Side
		hit      Hit
		defender *Participant
	}
	playerStrike := strike{Player, turn.PlayerHit, &b.opponent}
	opponentStrike := strike{Opponent, turn.OpponentHit, &b.player}
	order := [2]strike{playerStrike, opponentStrike}
	if b.opponent.Stats.Speed > b.player.Stats.Speed {
		order = [2]strike{opponentStrike, playerStrike}
	}
	turn.First = order[0].side

	for _, s := range order {
		s.defender.HP = max(0, s.defender.HP-s.hit.Damage)
		turn.Landed = append(turn.Landed, s.side)
		if s.hit.Damage > 0 && s.defender.HP == 0 {
			b.state = Over
			b.winner = s.side
			break
		}
	}

	b.turns = turn.Number
	turn.PlayerHP, turn.OpponentHP = b.player.HP, b.opponent.HP
	turn.State, turn.Winner = b.state, b.winner
	return turn, true
}

// LoadRequest carries everything needed to set up a battle for an owned
// creature.
type LoadRequest struct {
	ID       string
	Record   creature.Record
	Table    *gacha.Table
	Provider species.Provider
	Chart    Chart
	RNG      gacha.RandomSource
}

// Load fetches both participants and returns an Active battle. The player
// keeps the owned creature's current stats; the opponent is drawn uniformly
// from the pool of the player's rarity and gets the standard stat boost.
func Load(ctx context.Context, req LoadRequest) (*Battle, error) {
	rng := req.RNG
	if rng == nil {
		rng = gacha.DefaultRNG()
	}
	b := New(req.ID, req.Chart, rng)

	player, err := snapshot(ctx, req.Provider, req.Record.Name, rng)
	if err != nil {
		return nil, err
	}
	player.Stats = req.Record.Stats
	player.Rarity = req.Record.Rarity

	tier, ok := req.Table.Tier(req.Record.Rarity)
	if !ok {
		return nil, fmt.Errorf("%w: rarity %s", gacha.ErrEmptyPool, req.Record.Rarity)
	}
	name, err := req.Table.PickSpecies(tier, rng)
	if err != nil {
		return nil, err
	}
	opponent, err := snapshot(ctx, req.Provider, name, rng)
	if err != nil {
		return nil, err
	}
	opponent.Rarity = tier.Name

	if err := b.Start(player, opponent); err != nil {
		return nil, err
	}
	return b, nil
}

func snapshot(ctx context.Context, p species.Provider, name string, rng gacha.RandomSource) (Participant, error) {
	sp, err := p.Species(ctx, name)
	if err != nil {
		return Participant{}, fmt.Errorf("%w: %s: %v", ErrDataFetch, name, err)
	}
	moves, err := p.Moves(ctx, name)
	if err != nil {
		return Participant{}, fmt.Errorf("%w: moves for %s: %v", ErrDataFetch, name, err)
	}
	if len(moves) == 0 {
		return Participant{}, fmt.Errorf("%w: %s", ErrNoMoves, name)
	}
	return Participant{
		Name:  sp.Name,
		Types: append([]string(nil), sp.Types...),
		Moves: species.SampleMoves(moves, rng, species.MaxMoves),
		Stats: creature.Boost(sp.Stats),
		Front: sp.Front,
		Back:  sp.Back,
		Cry:   sp.Cry,
	}, nil
}
