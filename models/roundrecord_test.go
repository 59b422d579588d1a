package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Vianpyro/Penny-Game/internal/game"
)

func TestNewRoundRecord(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	result := game.RoundResult{
		RoundNumber:     2,
		BatchSize:       4,
		StartedAt:       start,
		EndedAt:         start.Add(90 * time.Second),
		Duration:        90 * time.Second,
		FirstFlipAt:     start.Add(time.Second),
		FirstDeliveryAt: start.Add(31 * time.Second),
		LeadTime:        30 * time.Second,
		TotalCompleted:  12,
		TotalCoins:      12,
		Timers: []game.PlayerTimer{
			{Player: "alice", StartedAt: start.Add(time.Second), EndedAt: start.Add(41 * time.Second), Duration: 40 * time.Second},
			{Player: "bob"},
		},
	}

	rec, err := NewRoundRecord("abc12345", result)
	if err != nil {
		t.Fatalf("NewRoundRecord: %v", err)
	}
	if rec.RoomID != "abc12345" || rec.RoundNumber != 2 || rec.DurationMillis != 90000 || rec.LeadTimeMillis != 30000 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.FirstFlipAt == nil || !rec.FirstFlipAt.Equal(start.Add(time.Second)) {
		t.Fatalf("FirstFlipAt = %v", rec.FirstFlipAt)
	}

	var timers []PlayerTimerRecord
	if err := json.Unmarshal([]byte(rec.PlayerTimers), &timers); err != nil {
		t.Fatalf("player timers are not JSON: %v", err)
	}
	if len(timers) != 2 || timers[0].DurationMillis != 40000 {
		t.Fatalf("timers = %+v", timers)
	}
	if timers[1].StartedAt != nil || timers[1].EndedAt != nil {
		t.Fatalf("a timer that never ran should store nulls: %+v", timers[1])
	}
}

func TestConfigRules(t *testing.T) {
	cfg := DefaultConfig()
	rules := cfg.Rules()
	if err := rules.Validate(); err != nil {
		t.Fatalf("default rules invalid: %v", err)
	}
	if rules.TripleSequence[1] != 4 || rules.DoubleSequence[0] != 12 {
		t.Fatalf("unexpected sequences %v %v", rules.DoubleSequence, rules.TripleSequence)
	}

	cfg.TotalCoins = 15
	if err := cfg.Rules().Validate(); err == nil {
		t.Fatalf("middle batch 4 does not divide 15, Validate should fail")
	}
	cfg.TripleMiddleBatch = 5
	if err := cfg.Rules().Validate(); err != nil {
		t.Fatalf("15 coins with [15 5 1]: %v", err)
	}
	if cfg.RoomIdle() != time.Hour || cfg.PlayerIdle() != 5*time.Minute {
		t.Fatalf("idle thresholds %v %v", cfg.RoomIdle(), cfg.PlayerIdle())
	}
}
