package models

import (
	"encoding/json"
	"time"

	"github.com/Vianpyro/Penny-Game/internal/game"
	"gorm.io/gorm"
)

// RoundRecord は終了したラウンドの記録。書き込み専用でセッション復元には使わない。
type RoundRecord struct {
	gorm.Model
	RoomID          string `gorm:"index;not null"`
	RoundNumber     int    `gorm:"not null"`
	BatchSize       int    `gorm:"not null"`
	TotalCoins      int
	TotalCompleted  int
	StartedAt       time.Time
	EndedAt         time.Time
	DurationMillis  int64
	LeadTimeMillis  int64
	FirstFlipAt     *time.Time
	FirstDeliveryAt *time.Time
	PlayerTimers    string `gorm:"type:jsonb"`
}

// PlayerTimerRecord is the JSON shape stored in RoundRecord.PlayerTimers.
type PlayerTimerRecord struct {
	Player         string     `json:"player"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	DurationMillis int64      `json:"duration_ms"`
}

func NewRoundRecord(roomID string, r game.RoundResult) (RoundRecord, error) {
	timers := make([]PlayerTimerRecord, 0, len(r.Timers))
	for _, t := range r.Timers {
		timers = append(timers, PlayerTimerRecord{
			Player:         t.Player,
			StartedAt:      timePtr(t.StartedAt),
			EndedAt:        timePtr(t.EndedAt),
			DurationMillis: t.Duration.Milliseconds(),
		})
	}
	timersJSON, err := json.Marshal(timers)
	if err != nil {
		return RoundRecord{}, err
	}

	return RoundRecord{
		RoomID:          roomID,
		RoundNumber:     r.RoundNumber,
		BatchSize:       r.BatchSize,
		TotalCoins:      r.TotalCoins,
		TotalCompleted:  r.TotalCompleted,
		StartedAt:       r.StartedAt,
		EndedAt:         r.EndedAt,
		DurationMillis:  r.Duration.Milliseconds(),
		LeadTimeMillis:  r.LeadTime.Milliseconds(),
		FirstFlipAt:     timePtr(r.FirstFlipAt),
		FirstDeliveryAt: timePtr(r.FirstDeliveryAt),
		PlayerTimers:    string(timersJSON),
	}, nil
}

// ゼロ値は NULL として保存する
func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
