package creature

import (
	"errors"
	"time"
)

var ErrUnknownRarity = errors.New("unknown rarity")

// Rarity is one of the five draw classes.
type Rarity string

const (
	Common    Rarity = "Common"
	Uncommon  Rarity = "Uncommon"
	Rare      Rarity = "Rare"
	UltraRare Rarity = "Ultra-Rare"
	EX        Rarity = "EX"
)

// Rarities lists every rarity from most to least common.
var Rarities = []Rarity{Common, Uncommon, Rare, UltraRare, EX}

// ParseRarity accepts the canonical names only.
func ParseRarity(s string) (Rarity, error) {
	for _, r := range Rarities {
		if string(r) == s {
			return r, nil
		}
	}
	return "", ErrUnknownRarity
}

// Rank maps Common..EX to 1..5; unknown values rank as Common.
func (r Rarity) Rank() int {
	for i, v := range Rarities {
		if v == r {
			return i + 1
		}
	}
	return 1
}

// Stat keys as served by the species provider.
const (
	HP             = "hp"
	Attack         = "attack"
	Defense        = "defense"
	SpecialAttack  = "special-attack"
	SpecialDefense = "special-defense"
	Speed          = "speed"
)

// StatKeys is the provider order; hp is always first.
var StatKeys = []string{HP, Attack, Defense, SpecialAttack, SpecialDefense, Speed}

// Stats holds the six battle stats.
type Stats struct {
	HP             int `json:"hp" yaml:"hp"`
	Attack         int `json:"attack" yaml:"attack"`
	Defense        int `json:"defense" yaml:"defense"`
	SpecialAttack  int `json:"special-attack" yaml:"special-attack"`
	SpecialDefense int `json:"special-defense" yaml:"special-defense"`
	Speed          int `json:"speed" yaml:"speed"`
}

func (s *Stats) field(key string) *int {
	switch key {
	case HP:
		return &s.HP
	case Attack:
		return &s.Attack
	case Defense:
		return &s.Defense
	case SpecialAttack:
		return &s.SpecialAttack
	case SpecialDefense:
		return &s.SpecialDefense
	case Speed:
		return &s.Speed
	}
	return nil
}

// Get returns the stat value and whether key names a stat.
func (s Stats) Get(key string) (int, bool) {
	p := s.field(key)
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Set writes a stat; unknown keys are ignored and reported as false.
func (s *Stats) Set(key string, v int) bool {
	p := s.field(key)
	if p == nil {
		return false
	}
	*p = v
	return true
}

func (s Stats) Sum() int {
	return s.HP + s.Attack + s.Defense + s.SpecialAttack + s.SpecialDefense + s.Speed
}

// HistoryEntry is one line of a creature's event log.
type HistoryEntry struct {
	TS         int64  `json:"ts"` // unix millis
	Event      string `json:"event"`
	WorthDelta int    `json:"deltaWorth"`
}

// Record is an owned creature.
type Record struct {
	UID        string         `json:"uid"`
	AcquiredAt int64          `json:"acquiredAt"`
	Name       string         `json:"name"`
	SpeciesID  int            `json:"speciesId"`
	Sprite     string         `json:"sprite"`
	Cry        string         `json:"cry"`
	Types      []string       `json:"types"`
	BaseStats  Stats          `json:"baseStats"`
	Stats      Stats          `json:"stats"`
	Rarity     Rarity         `json:"rarity"`
	Worth      int            `json:"cryptoWorth"`
	History    []HistoryEntry `json:"history"`
	TokenID    *int64         `json:"tokenId,omitempty"`
}

// HasType reports whether t is one of the creature's elemental types.
func (r *Record) HasType(t string) bool {
	for _, v := range r.Types {
		if v == t {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand records across session
// boundaries without sharing slices.
func (r Record) Clone() Record {
	out := r
	out.Types = append([]string(nil), r.Types...)
	out.History = append([]HistoryEntry(nil), r.History...)
	if r.TokenID != nil {
		id := *r.TokenID
		out.TokenID = &id
	}
	return out
}

// AppendHistory adds an entry, nudging its timestamp forward when the clock
// has not advanced past the last entry.
func (r *Record) AppendHistory(at time.Time, event string, worthDelta int) {
	ts := at.UnixMilli()
	if n := len(r.History); n > 0 && ts <= r.History[n-1].TS {
		ts = r.History[n-1].TS + 1
	}
	r.History = append(r.History, HistoryEntry{TS: ts, Event: event, WorthDelta: worthDelta})
}
