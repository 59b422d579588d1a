package game

import "time"

// Coin は表(Active)か裏(Inactive)のどちらか
type Coin bool

const (
	Inactive Coin = false
	Active   Coin = true
)

// SentBatch is one entry of a player's send history. Terminal batches left
// the chain; To is empty for them.
type SentBatch struct {
	Count    int
	At       time.Time
	To       string
	Terminal bool
}

// Ledger tracks which player holds which coins during one round.
// Coins only move downstream and always arrive inactive.
type Ledger struct {
	chain     []string
	position  map[string]int
	holdings  map[string][]Coin
	history   map[string][]SentBatch
	total     int
	batchSize int
}

// NewLedger は先頭のプレイヤーに total 枚の裏向きコインを配る
func NewLedger(chain []string, total, batchSize int) *Ledger {
	l := &Ledger{
		chain:     append([]string(nil), chain...),
		position:  make(map[string]int, len(chain)),
		holdings:  make(map[string][]Coin, len(chain)),
		history:   make(map[string][]SentBatch, len(chain)),
		total:     total,
		batchSize: batchSize,
	}
	for i, p := range l.chain {
		l.position[p] = i
		l.holdings[p] = []Coin{}
	}
	if len(l.chain) > 0 {
		l.holdings[l.chain[0]] = make([]Coin, total)
	}
	return l
}

func (l *Ledger) BatchSize() int { return l.batchSize }

// Flip turns one inactive coin active. A rejected flip changes nothing.
func (l *Ledger) Flip(player string, index int) error {
	coins, ok := l.holdings[player]
	if !ok {
		return ErrNotAPlayer
	}
	if index < 0 || index >= len(coins) {
		return ErrCoinOutOfRange
	}
	if coins[index] == Active {
		return ErrCoinActive
	}
	coins[index] = Active
	return nil
}

func (l *Ledger) activeCount(player string) int {
	n := 0
	for _, c := range l.holdings[player] {
		if c == Active {
			n++
		}
	}
	return n
}

// CanSend は1バッチ分揃っているか、手持ちが全て表になっていれば true
func (l *Ledger) CanSend(player string) bool {
	active := l.activeCount(player)
	if active == 0 {
		return false
	}
	return active >= l.batchSize || active == len(l.holdings[player])
}

// Send moves up to one batch of active coins downstream. The last player in
// the chain delivers to the terminal bucket.
func (l *Ledger) Send(player string, at time.Time) (SentBatch, error) {
	pos, ok := l.position[player]
	if !ok {
		return SentBatch{}, ErrNotAPlayer
	}
	if !l.CanSend(player) {
		return SentBatch{}, ErrCannotSend
	}

	coins := l.holdings[player]
	n := l.activeCount(player)
	if n > l.batchSize {
		n = l.batchSize
	}
	kept := make([]Coin, 0, len(coins)-n)
	moved := 0
	for _, c := range coins {
		if c == Active && moved < n {
			moved++
			continue
		}
		kept = append(kept, c)
	}
	l.holdings[player] = kept

	batch := SentBatch{Count: moved, At: at}
	if pos == len(l.chain)-1 {
		batch.Terminal = true
	} else {
		next := l.chain[pos+1]
		batch.To = next
		l.holdings[next] = append(l.holdings[next], make([]Coin, moved)...)
	}
	l.history[player] = append(l.history[player], batch)
	return batch, nil
}

// TotalCompleted は最後のプレイヤーが完了させた枚数
func (l *Ledger) TotalCompleted() int {
	if len(l.chain) == 0 {
		return 0
	}
	done := 0
	for _, b := range l.history[l.chain[len(l.chain)-1]] {
		if b.Terminal {
			done += b.Count
		}
	}
	return done
}

// HasFinished reports whether player holds nothing and neither does anyone
// upstream of it, so nothing can arrive any more.
func (l *Ledger) HasFinished(player string) bool {
	pos, ok := l.position[player]
	if !ok {
		return false
	}
	for _, p := range l.chain[:pos+1] {
		if len(l.holdings[p]) > 0 {
			return false
		}
	}
	return true
}

func (l *Ledger) IsRoundOver() bool {
	if l.TotalCompleted() >= l.total {
		return true
	}
	for _, p := range l.chain {
		if !l.HasFinished(p) {
			return false
		}
	}
	return true
}

// InactiveRemaining は全員の手持ちのうち裏向きの枚数
func (l *Ledger) InactiveRemaining() int {
	n := 0
	for _, coins := range l.holdings {
		for _, c := range coins {
			if c == Inactive {
				n++
			}
		}
	}
	return n
}

// Holdings returns a copy of every player's coins, true meaning active.
func (l *Ledger) Holdings() map[string][]bool {
	out := make(map[string][]bool, len(l.holdings))
	for p, coins := range l.holdings {
		flags := make([]bool, len(coins))
		for i, c := range coins {
			flags[i] = bool(c)
		}
		out[p] = flags
	}
	return out
}

func (l *Ledger) History() map[string][]SentBatch {
	out := make(map[string][]SentBatch, len(l.chain))
	for _, p := range l.chain {
		out[p] = append([]SentBatch{}, l.history[p]...)
	}
	return out
}

func (l *Ledger) held() int {
	n := 0
	for _, coins := range l.holdings {
		n += len(coins)
	}
	return n
}
