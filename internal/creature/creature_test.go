package creature

import (
	"testing"
	"time"
)

func TestMultiplierTable(t *testing.T) {
	want := map[Rarity]float64{Common: 1, Uncommon: 1.5, Rare: 2.5, UltraRare: 5, EX: 10}
	for r, m := range want {
		if got := Multiplier(r); got != m {
			t.Fatalf("Multiplier(%s)=%v want %v", r, got, m)
		}
	}
}

func TestWorthFloorsAtOne(t *testing.T) {
	if got := Worth(Stats{}, Common); got != 1 {
		t.Fatalf("zero stats should be worth 1; got %d", got)
	}
	// 4/10*1 = 0.4 -> rounds to 0 -> floor 1
	if got := Worth(Stats{HP: 4}, Common); got != 1 {
		t.Fatalf("got %d", got)
	}
}

func TestWorthRounding(t *testing.T) {
	s := Stats{HP: 100, Attack: 50, Defense: 50, SpecialAttack: 50, SpecialDefense: 50, Speed: 55}
	// 355/10*1.5 = 53.25
	if got := Worth(s, Uncommon); got != 53 {
		t.Fatalf("got %d want 53", got)
	}
	// 355/10*2.5 = 88.75
	if got := Worth(s, Rare); got != 89 {
		t.Fatalf("got %d want 89", got)
	}
}

func TestBoostOffsets(t *testing.T) {
	raw := Stats{HP: 10, Attack: 20, Defense: 30, SpecialAttack: 40, SpecialDefense: 50, Speed: 60}
	b := Boost(raw)
	if b.HP != 70 || b.Attack != 25 || b.Defense != 35 || b.SpecialAttack != 45 || b.SpecialDefense != 55 || b.Speed != 65 {
		t.Fatalf("unexpected boost: %+v", b)
	}
	if b.Sum() != raw.Sum()+85 {
		t.Fatalf("sum=%d", b.Sum())
	}
}

func TestApplyClampsStatAndWorth(t *testing.T) {
	r := Record{Stats: Stats{Attack: 3}, Worth: 2}
	now := time.UnixMilli(1000)
	r.Apply(Change{Source: "test", StatKey: Attack, Delta: -10, WorthDelta: -5, Message: "ouch"}, now)
	if r.Stats.Attack != 0 {
		t.Fatalf("attack should clamp to 0; got %d", r.Stats.Attack)
	}
	if r.Worth != 0 {
		t.Fatalf("worth should clamp to 0; got %d", r.Worth)
	}
	if len(r.History) != 1 || r.History[0].Event != "test: ouch" || r.History[0].WorthDelta != -5 {
		t.Fatalf("unexpected history: %+v", r.History)
	}
}

func TestApplyUnknownStatStillLogs(t *testing.T) {
	r := Record{Stats: Stats{HP: 5}, Worth: 10}
	r.Apply(Change{Source: "x", StatKey: "luck", Delta: 4, WorthDelta: 1, Message: "m"}, time.UnixMilli(1))
	if r.Stats.HP != 5 || r.Worth != 11 || len(r.History) != 1 {
		t.Fatalf("unexpected record: %+v", r)
	}
}

func TestHistoryStrictlyIncreasing(t *testing.T) {
	var r Record
	at := time.UnixMilli(5000)
	r.AppendHistory(at, "a", 0)
	r.AppendHistory(at, "b", 0)
	r.AppendHistory(time.UnixMilli(10), "c", 0)
	for i := 1; i < len(r.History); i++ {
		if r.History[i].TS <= r.History[i-1].TS {
			t.Fatalf("history not strictly ordered: %+v", r.History)
		}
	}
}

func TestStatsGetSet(t *testing.T) {
	var s Stats
	for i, k := range StatKeys {
		if !s.Set(k, i+1) {
			t.Fatalf("Set(%s) failed", k)
		}
	}
	for i, k := range StatKeys {
		v, ok := s.Get(k)
		if !ok || v != i+1 {
			t.Fatalf("Get(%s)=%d,%v", k, v, ok)
		}
	}
	if _, ok := s.Get("luck"); ok {
		t.Fatal("unknown key should not resolve")
	}
}

func TestParseRarity(t *testing.T) {
	if r, err := ParseRarity("Ultra-Rare"); err != nil || r != UltraRare {
		t.Fatalf("got %v %v", r, err)
	}
	if _, err := ParseRarity("legendary"); err == nil {
		t.Fatal("expected error")
	}
	if EX.Rank() != 5 || Common.Rank() != 1 {
		t.Fatal("rank mismatch")
	}
}

func TestCloneDoesNotShare(t *testing.T) {
	id := int64(7)
	r := Record{Types: []string{"fire"}, TokenID: &id}
	c := r.Clone()
	c.Types[0] = "water"
	*c.TokenID = 9
	if r.Types[0] != "fire" || *r.TokenID != 7 {
		t.Fatal("clone shares memory")
	}
}
