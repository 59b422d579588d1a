package actions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Vianpyro/Penny-Game/internal/game"
	"github.com/Vianpyro/Penny-Game/penny/broadcast"

	"go.uber.org/zap"
)

type memoryArchive struct {
	mu      sync.Mutex
	results map[string][]game.RoundResult
	err     error
}

func (a *memoryArchive) SaveRoundResult(ctx context.Context, roomID string, result game.RoundResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.results[roomID] = append(a.results[roomID], result)
	return nil
}

func newEnv(now *time.Time) (*Env, *memoryArchive) {
	logger := zap.NewNop()
	archive := &memoryArchive{results: map[string][]game.RoundResult{}}
	return &Env{
		Registry: game.NewRegistry(game.DefaultRules(), logger, game.WithClock(func() time.Time { return *now })),
		Hub:      broadcast.NewHub(10, logger),
		Archive:  archive,
		Logger:   logger,
	}, archive
}

// startSingle は2人で1ラウンドだけのゲームを始める
func startSingle(t *testing.T, env *Env, batch int) string {
	t.Helper()
	roomID, secret := env.Registry.Create()
	for _, name := range []string{"host", "p1", "p2"} {
		if _, err := Join(env, roomID, name, false); err != nil {
			t.Fatal(err)
		}
	}
	cfg := game.RoundConfig{Type: game.RoundSingle, RequiredPlayers: 2, SelectedBatchSize: batch}
	if err := ConfigureRound(env, roomID, secret, cfg); err != nil {
		t.Fatal(err)
	}
	if err := Start(env, roomID, secret); err != nil {
		t.Fatal(err)
	}
	return roomID
}

func moveAll(t *testing.T, env *Env, roomID, player string) game.ActionResult {
	t.Helper()
	var last game.ActionResult
	for i := 0; i < 12; i++ {
		if _, err := Flip(context.Background(), env, roomID, player, i); err != nil {
			t.Fatalf("flip %s[%d]: %v", player, i, err)
		}
	}
	for {
		res, err := Send(context.Background(), env, roomID, player)
		if errors.Is(err, game.ErrCannotSend) {
			return last
		}
		if err != nil {
			t.Fatalf("send %s: %v", player, err)
		}
		last = res
		if res.RoundComplete {
			return res
		}
	}
}

func TestFinishedRoundIsArchived(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	env, archive := newEnv(&now)
	roomID := startSingle(t, env, 12)

	moveAll(t, env, roomID, "p1")
	now = now.Add(2 * time.Second)
	res := moveAll(t, env, roomID, "p2")
	if !res.RoundComplete || !res.GameOver {
		t.Fatalf("round should be over: %+v", res)
	}

	saved := archive.results[roomID]
	if len(saved) != 1 {
		t.Fatalf("archived %d results, want 1", len(saved))
	}
	if saved[0].TotalCompleted != 12 || saved[0].BatchSize != 12 {
		t.Fatalf("unexpected archived result %+v", saved[0])
	}
	if saved[0].Duration != 2*time.Second {
		t.Fatalf("duration = %v, want 2s", saved[0].Duration)
	}

	view, err := State(env, roomID)
	if err != nil {
		t.Fatal(err)
	}
	if view.State != "results" {
		t.Fatalf("state = %s, want results", view.State)
	}
}

func TestArchiveFailureDoesNotFailTheAction(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	env, archive := newEnv(&now)
	archive.err = errors.New("database is down")
	roomID := startSingle(t, env, 12)

	moveAll(t, env, roomID, "p1")
	if res := moveAll(t, env, roomID, "p2"); !res.GameOver {
		t.Fatalf("game should be over despite the archive error: %+v", res)
	}
}

func TestActionsOnMissingRoom(t *testing.T) {
	now := time.Now()
	env, _ := newEnv(&now)
	if _, err := Flip(context.Background(), env, "nope", "p1", 0); !errors.Is(err, game.ErrRoomNotFound) {
		t.Fatalf("Flip = %v, want room not found", err)
	}
	if _, err := State(env, "nope"); game.KindOf(err) != game.KindNotFound {
		t.Fatalf("State = %v, want not found", err)
	}
	if err := Start(env, "nope", "secret"); !errors.Is(err, game.ErrNotFound) {
		t.Fatalf("Start = %v, want not found", err)
	}
}

func TestSweepEvictsIdleRooms(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	env, _ := newEnv(&now)
	roomID := startSingle(t, env, 1)

	now = now.Add(2 * time.Hour)
	evicted := Sweep(env, time.Hour, 5*time.Minute)
	if len(evicted) != 1 || evicted[0] != roomID {
		t.Fatalf("evicted = %v, want [%s]", evicted, roomID)
	}
	if _, err := State(env, roomID); !errors.Is(err, game.ErrRoomNotFound) {
		t.Fatalf("State after sweep = %v", err)
	}
}
