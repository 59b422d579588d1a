package game

import "time"

// PlayerTimer measures one player's cycle time. Zero times mean the event
// has not happened yet.
type PlayerTimer struct {
	Player    string
	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration
}

func (t PlayerTimer) Started() bool { return !t.StartedAt.IsZero() }
func (t PlayerTimer) Ended() bool   { return !t.EndedAt.IsZero() }

// Timers は常に全プレイヤー分のエントリを持つ
type Timers struct {
	order   []string
	entries map[string]*PlayerTimer
}

func NewTimers(players []string) *Timers {
	t := &Timers{
		order:   append([]string(nil), players...),
		entries: make(map[string]*PlayerTimer, len(players)),
	}
	for _, p := range t.order {
		t.entries[p] = &PlayerTimer{Player: p}
	}
	return t
}

// Start は最初の一回だけ記録する
func (t *Timers) Start(player string, at time.Time) {
	e, ok := t.entries[player]
	if !ok || e.Started() {
		return
	}
	e.StartedAt = at
}

// End stops a running timer when finished is true. Timers that never
// started or already ended are left alone.
func (t *Timers) End(player string, at time.Time, finished bool) {
	e, ok := t.entries[player]
	if !ok || !finished || !e.Started() || e.Ended() {
		return
	}
	e.EndedAt = at
	e.Duration = at.Sub(e.StartedAt)
}

// EndAll はラウンド終了時にまだ動いているタイマーを止める
func (t *Timers) EndAll(at time.Time) {
	for _, p := range t.order {
		t.End(p, at, true)
	}
}

// Snapshot returns the timers in chain order.
func (t *Timers) Snapshot() []PlayerTimer {
	out := make([]PlayerTimer, 0, len(t.order))
	for _, p := range t.order {
		out = append(out, *t.entries[p])
	}
	return out
}
