package game

import "time"

// RoundResult is the frozen outcome of a completed round.
type RoundResult struct {
	RoundNumber     int
	BatchSize       int
	StartedAt       time.Time
	EndedAt         time.Time
	Duration        time.Duration
	FirstFlipAt     time.Time
	FirstDeliveryAt time.Time
	LeadTime        time.Duration
	Timers          []PlayerTimer
	TotalCompleted  int
	TotalCoins      int
}

// Round はひとつのラウンドの台帳・タイマー・時刻をまとめる
type Round struct {
	Number          int
	ledger          *Ledger
	timers          *Timers
	total           int
	startedAt       time.Time
	endedAt         time.Time
	firstFlipAt     time.Time
	firstDeliveryAt time.Time
	leadTime        time.Duration
}

func newRound(number int, chain []string, total, batchSize int, at time.Time) *Round {
	return &Round{
		Number:    number,
		ledger:    NewLedger(chain, total, batchSize),
		timers:    NewTimers(chain),
		total:     total,
		startedAt: at,
	}
}

// Flip はコインを表にし、そのプレイヤーのタイマーを開始する
func (r *Round) Flip(player string, index int, at time.Time) error {
	if err := r.ledger.Flip(player, index); err != nil {
		return err
	}
	if r.firstFlipAt.IsZero() {
		r.firstFlipAt = at
	}
	r.timers.Start(player, at)
	r.endFinishedTimers(at)
	return nil
}

func (r *Round) Send(player string, at time.Time) (SentBatch, error) {
	batch, err := r.ledger.Send(player, at)
	if err != nil {
		return SentBatch{}, err
	}
	if batch.Terminal && r.firstDeliveryAt.IsZero() {
		r.firstDeliveryAt = at
		r.leadTime = at.Sub(r.firstFlipAt)
	}
	r.endFinishedTimers(at)
	return batch, nil
}

func (r *Round) endFinishedTimers(at time.Time) {
	for _, p := range r.ledger.chain {
		r.timers.End(p, at, r.ledger.HasFinished(p))
	}
}

func (r *Round) IsOver() bool { return r.ledger.IsRoundOver() }

// complete stops the clock and freezes the result.
func (r *Round) complete(at time.Time) RoundResult {
	if r.endedAt.IsZero() {
		r.timers.EndAll(at)
		r.endedAt = at
	}
	return RoundResult{
		RoundNumber:     r.Number,
		BatchSize:       r.ledger.BatchSize(),
		StartedAt:       r.startedAt,
		EndedAt:         r.endedAt,
		Duration:        r.endedAt.Sub(r.startedAt),
		FirstFlipAt:     r.firstFlipAt,
		FirstDeliveryAt: r.firstDeliveryAt,
		LeadTime:        r.leadTime,
		Timers:          r.timers.Snapshot(),
		TotalCompleted:  r.ledger.TotalCompleted(),
		TotalCoins:      r.total,
	}
}

// Duration は終了済みならラウンドの所要時間、進行中なら 0
func (r *Round) Duration() time.Duration {
	if r.endedAt.IsZero() {
		return 0
	}
	return r.endedAt.Sub(r.startedAt)
}

func (r *Round) LeadTime() time.Duration { return r.leadTime }
