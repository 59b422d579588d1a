package broadcast

import (
	"time"

	"github.com/Vianpyro/Penny-Game/internal/game"
)

// メッセージ種別
const (
	TypeWelcome          = "welcome"
	TypeActivity         = "activity"
	TypeUserJoined       = "user_joined"
	TypeRoleChanged      = "role_changed"
	TypeRoundConfig      = "round_config_update"
	TypeGameStarted      = "game_started"
	TypeRoundStarted     = "round_started"
	TypeActionMade       = "action_made"
	TypeRoundComplete    = "round_complete"
	TypeGameOver         = "game_over"
	TypeGameReset        = "game_reset"
	TypeGameState        = "game_state"
	TypeChat             = "chat"
	TypePong             = "pong"
	TypeError            = "error"
	TypeSession          = "session"
	TypeHostDisconnected = "host_disconnected"
	TypeUserConnected    = "user_connected"
	TypeUserReconnected  = "user_reconnected"
	TypeUserDisconnected = "user_disconnected"
	TypeUserLeft         = "user_left"
)

const terminalDestination = "completed"

type TimerView struct {
	Player          string     `json:"player"`
	StartedAt       *time.Time `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	DurationSeconds *float64   `json:"duration_seconds"`
}

type BatchView struct {
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
	To        string    `json:"to"`
}

type RoundResultView struct {
	RoundNumber         int         `json:"round_number"`
	BatchSize           int         `json:"batch_size"`
	GameDurationSeconds float64     `json:"game_duration_seconds"`
	LeadTimeSeconds     *float64    `json:"lead_time_seconds"`
	PlayerTimers        []TimerView `json:"player_timers"`
	TotalCompleted      int         `json:"total_completed"`
	StartedAt           time.Time   `json:"started_at"`
	EndedAt             time.Time   `json:"ended_at"`
}

// GameStateView はルーム全体の状態
type GameStateView struct {
	RoomID              string                 `json:"room_id"`
	Host                string                 `json:"host"`
	Players             []string               `json:"players"`
	Spectators          []string               `json:"spectators"`
	State               string                 `json:"state"`
	RoundType           string                 `json:"round_type"`
	RequiredPlayers     int                    `json:"required_players"`
	SelectedBatchSize   *int                   `json:"selected_batch_size"`
	CurrentRound        int                    `json:"current_round"`
	TotalRounds         int                    `json:"total_rounds"`
	BatchSizes          []int                  `json:"batch_sizes"`
	BatchSize           int                    `json:"batch_size"`
	PlayerCoins         map[string][]bool      `json:"player_coins"`
	SentCoins           map[string][]BatchView `json:"sent_coins"`
	TotalCompleted      int                    `json:"total_completed"`
	TailsRemaining      int                    `json:"tails_remaining"`
	PlayerTimers        []TimerView            `json:"player_timers"`
	GameDurationSeconds *float64               `json:"game_duration_seconds"`
	LeadTimeSeconds     *float64               `json:"lead_time_seconds"`
	RoundResults        []RoundResultView      `json:"round_results"`
}

// ActionView is broadcast after every flip or send.
type ActionView struct {
	Type                string                 `json:"type"`
	Success             bool                   `json:"success"`
	Username            string                 `json:"username"`
	Action              string                 `json:"action"`
	CoinIndex           *int                   `json:"coin_index,omitempty"`
	BatchCount          *int                   `json:"batch_count,omitempty"`
	PlayerCoins         map[string][]bool      `json:"player_coins"`
	SentCoins           map[string][]BatchView `json:"sent_coins"`
	TotalCompleted      int                    `json:"total_completed"`
	State               string                 `json:"state"`
	CurrentRound        int                    `json:"current_round"`
	RoundComplete       bool                   `json:"round_complete"`
	GameOver            bool                   `json:"game_over"`
	PlayerTimers        []TimerView            `json:"player_timers"`
	LeadTimeSeconds     *float64               `json:"lead_time_seconds"`
	GameDurationSeconds *float64               `json:"game_duration_seconds"`
}

func NewTimerViews(timers []game.PlayerTimer) []TimerView {
	out := make([]TimerView, 0, len(timers))
	for _, t := range timers {
		v := TimerView{Player: t.Player}
		if t.Started() {
			at := t.StartedAt
			v.StartedAt = &at
		}
		if t.Ended() {
			at := t.EndedAt
			v.EndedAt = &at
			v.DurationSeconds = seconds(t.Duration)
		}
		out = append(out, v)
	}
	return out
}

func NewSentViews(sent map[string][]game.SentBatch) map[string][]BatchView {
	out := make(map[string][]BatchView, len(sent))
	for player, batches := range sent {
		views := make([]BatchView, 0, len(batches))
		for _, b := range batches {
			to := b.To
			if b.Terminal {
				to = terminalDestination
			}
			views = append(views, BatchView{Count: b.Count, Timestamp: b.At, To: to})
		}
		out[player] = views
	}
	return out
}

func NewRoundResultView(r game.RoundResult) RoundResultView {
	return RoundResultView{
		RoundNumber:         r.RoundNumber,
		BatchSize:           r.BatchSize,
		GameDurationSeconds: r.Duration.Seconds(),
		LeadTimeSeconds:     leadTime(r.FirstDeliveryAt, r.LeadTime),
		PlayerTimers:        NewTimerViews(r.Timers),
		TotalCompleted:      r.TotalCompleted,
		StartedAt:           r.StartedAt,
		EndedAt:             r.EndedAt,
	}
}

func NewGameStateView(snap game.Snapshot) GameStateView {
	results := make([]RoundResultView, 0, len(snap.RoundResults))
	for _, r := range snap.RoundResults {
		results = append(results, NewRoundResultView(r))
	}
	view := GameStateView{
		RoomID:          snap.RoomID,
		Host:            snap.Host,
		Players:         nonNil(snap.Players),
		Spectators:      nonNil(snap.Spectators),
		State:           StateLabel(snap.State),
		RoundType:       RoundTypeLabel(snap.Config.Type),
		RequiredPlayers: snap.Config.RequiredPlayers,
		CurrentRound:    snap.CurrentRound,
		TotalRounds:     snap.TotalRounds,
		BatchSizes:      snap.BatchSizes,
		BatchSize:       snap.BatchSize,
		PlayerCoins:     snap.Coins,
		SentCoins:       NewSentViews(snap.Sent),
		TotalCompleted:  snap.TotalCompleted,
		TailsRemaining:  snap.InactiveRemaining,
		PlayerTimers:    NewTimerViews(snap.Timers),
		RoundResults:    results,
	}
	if snap.Config.Type == game.RoundSingle {
		size := snap.Config.SelectedBatchSize
		view.SelectedBatchSize = &size
	}
	if snap.GameDuration > 0 {
		view.GameDurationSeconds = seconds(snap.GameDuration)
	}
	if snap.LeadTime > 0 {
		view.LeadTimeSeconds = seconds(snap.LeadTime)
	}
	return view
}

func NewActionView(username, action string, res game.ActionResult) ActionView {
	view := ActionView{
		Type:           TypeActionMade,
		Success:        res.Success,
		Username:       username,
		Action:         action,
		PlayerCoins:    res.Coins,
		SentCoins:      NewSentViews(res.Sent),
		TotalCompleted: res.TotalCompleted,
		State:          StateLabel(res.State),
		CurrentRound:   res.CurrentRound,
		RoundComplete:  res.RoundComplete,
		GameOver:       res.GameOver,
		PlayerTimers:   NewTimerViews(res.Timers),
	}
	if res.LeadTime > 0 {
		view.LeadTimeSeconds = seconds(res.LeadTime)
	}
	if res.GameDuration > 0 {
		view.GameDurationSeconds = seconds(res.GameDuration)
	}
	if action == "send" {
		count := res.Batch.Count
		view.BatchCount = &count
	}
	return view
}

// 最初の完了が無ければリードタイムは未定義
func leadTime(firstDelivery time.Time, d time.Duration) *float64 {
	if firstDelivery.IsZero() {
		return nil
	}
	return seconds(d)
}

func seconds(d time.Duration) *float64 {
	s := d.Seconds()
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
