package game

import "time"

// State はセッションのライフサイクル
type State int

const (
	StateLobby State = iota + 1
	StateActive
	StateRoundComplete
	StateResults
)

// Role is a user's seat in a room.
type Role int

const (
	RoleHost Role = iota + 1
	RolePlayer
	RoleSpectator
)

// ActionResult is returned by Flip and Send.
type ActionResult struct {
	Success        bool
	RoundComplete  bool
	GameOver       bool
	Coins          map[string][]bool
	Sent           map[string][]SentBatch
	TotalCompleted int
	State          State
	CurrentRound   int
	Timers         []PlayerTimer
	LeadTime       time.Duration
	GameDuration   time.Duration
	// Batch はSendで動いたバッチ
	Batch SentBatch
	// Result is set when the action completed the round.
	Result *RoundResult
}

// JoinOutcome tells the caller which seat it actually got.
type JoinOutcome struct {
	Username   string
	Role       Role
	Host       string
	Players    []string
	Spectators []string
}

// Snapshot is a read-only copy of a whole session.
type Snapshot struct {
	RoomID            string
	Host              string
	Players           []string
	Spectators        []string
	State             State
	Config            RoundConfig
	CurrentRound      int
	TotalRounds       int
	BatchSizes        []int
	BatchSize         int
	Coins             map[string][]bool
	Sent              map[string][]SentBatch
	TotalCompleted    int
	InactiveRemaining int
	Timers            []PlayerTimer
	LeadTime          time.Duration
	GameDuration      time.Duration
	RoundResults      []RoundResult
	CreatedAt         time.Time
	LastActiveAt      time.Time
}

func copyResults(in []RoundResult) []RoundResult {
	out := make([]RoundResult, len(in))
	for i, r := range in {
		r.Timers = append([]PlayerTimer(nil), r.Timers...)
		out[i] = r
	}
	return out
}
