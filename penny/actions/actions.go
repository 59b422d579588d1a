package actions

import (
	"context"
	"time"

	"github.com/Vianpyro/Penny-Game/internal/game"
	"github.com/Vianpyro/Penny-Game/penny/broadcast"

	"go.uber.org/zap"
)

// Archive stores finished rounds outside the process.
type Archive interface {
	SaveRoundResult(ctx context.Context, roomID string, result game.RoundResult) error
}

// Env はHTTPとWebSocketの両方から使う依存関係
type Env struct {
	Registry *game.Registry
	Hub      *broadcast.Hub
	Archive  Archive
	Logger   *zap.Logger
}

// room はレジストリからセッションを探す
func (e *Env) room(roomID string) (*game.Session, error) {
	s, ok := e.Registry.Get(roomID)
	if !ok {
		return nil, game.ErrRoomNotFound
	}
	return s, nil
}

// State returns the full view of a room.
func State(env *Env, roomID string) (broadcast.GameStateView, error) {
	s, err := env.room(roomID)
	if err != nil {
		return broadcast.GameStateView{}, err
	}
	snap, err := s.Snapshot()
	if err != nil {
		return broadcast.GameStateView{}, err
	}
	return broadcast.NewGameStateView(snap), nil
}

// Join seats a user and tells the room about it.
func Join(env *Env, roomID, username string, asSpectator bool) (game.JoinOutcome, error) {
	s, err := env.room(roomID)
	if err != nil {
		return game.JoinOutcome{}, err
	}
	out, err := s.Join(username, asSpectator)
	if err != nil {
		return out, err
	}

	if out.Role != game.RoleHost {
		msg := map[string]interface{}{
			"type":       broadcast.TypeUserJoined,
			"username":   out.Username,
			"role":       broadcast.RoleLabel(out.Role),
			"players":    out.Players,
			"spectators": out.Spectators,
		}
		if out.Role == game.RoleSpectator && !asSpectator {
			msg["note"] = "Joined as spectator"
		}
		env.Hub.Broadcast(roomID, msg)
	}
	BroadcastActivity(env, roomID)
	env.Logger.Info("user joined",
		zap.String("roomID", roomID), zap.String("username", out.Username), zap.String("role", broadcast.RoleLabel(out.Role)))
	return out, nil
}

func ChangeRole(env *Env, roomID, username string, role game.Role) error {
	s, err := env.room(roomID)
	if err != nil {
		return err
	}
	if err := s.ChangeRole(username, role); err != nil {
		return err
	}
	env.Hub.Broadcast(roomID, map[string]interface{}{
		"type":     broadcast.TypeRoleChanged,
		"username": username,
		"role":     broadcast.RoleLabel(role),
	})
	BroadcastActivity(env, roomID)
	return broadcastState(env, s)
}

// Leave removes a player or spectator and tells the room.
func Leave(env *Env, roomID, username string) error {
	s, err := env.room(roomID)
	if err != nil {
		return err
	}
	if err := s.Leave(username); err != nil {
		return err
	}
	env.Hub.Broadcast(roomID, map[string]interface{}{
		"type":     broadcast.TypeUserLeft,
		"username": username,
		"message":  username + " left the game",
	})
	BroadcastActivity(env, roomID)
	return broadcastState(env, s)
}

func ConfigureRound(env *Env, roomID, secret string, cfg game.RoundConfig) error {
	s, err := env.room(roomID)
	if err != nil {
		return err
	}
	if err := s.ConfigureRound(secret, cfg); err != nil {
		return err
	}
	snap, err := s.Snapshot()
	if err != nil {
		return err
	}
	view := broadcast.NewGameStateView(snap)
	env.Hub.Broadcast(roomID, map[string]interface{}{
		"type":                broadcast.TypeRoundConfig,
		"round_type":          view.RoundType,
		"required_players":    view.RequiredPlayers,
		"selected_batch_size": view.SelectedBatchSize,
		"total_rounds":        view.TotalRounds,
		"batch_sizes":         view.BatchSizes,
	})
	return nil
}

// Start は最初のラウンドを始める
func Start(env *Env, roomID, secret string) error {
	s, err := env.room(roomID)
	if err != nil {
		return err
	}
	if err := s.Start(secret); err != nil {
		return err
	}
	return broadcastRoundStart(env, s, broadcast.TypeGameStarted)
}

func StartNext(env *Env, roomID, secret string) error {
	s, err := env.room(roomID)
	if err != nil {
		return err
	}
	if err := s.StartNext(secret); err != nil {
		return err
	}
	return broadcastRoundStart(env, s, broadcast.TypeRoundStarted)
}

func broadcastRoundStart(env *Env, s *game.Session, msgType string) error {
	snap, err := s.Snapshot()
	if err != nil {
		return err
	}
	env.Hub.Broadcast(s.ID(), map[string]interface{}{
		"type":         msgType,
		"round_number": snap.CurrentRound,
		"batch_size":   snap.BatchSize,
		"game_state":   broadcast.NewGameStateView(snap),
	})
	env.Hub.Broadcast(s.ID(), gameStateMessage(snap.State))
	return nil
}

func Reset(env *Env, roomID, secret string) error {
	s, err := env.room(roomID)
	if err != nil {
		return err
	}
	if err := s.Reset(secret); err != nil {
		return err
	}
	snap, err := s.Snapshot()
	if err != nil {
		return err
	}
	env.Hub.Broadcast(roomID, map[string]interface{}{
		"type":       broadcast.TypeGameReset,
		"game_state": broadcast.NewGameStateView(snap),
	})
	env.Hub.Broadcast(roomID, gameStateMessage(snap.State))
	return nil
}

// Flip runs a flip, tells the room and handles the end of a round.
func Flip(ctx context.Context, env *Env, roomID, username string, index int) (game.ActionResult, error) {
	s, err := env.room(roomID)
	if err != nil {
		return game.ActionResult{}, err
	}
	res, err := s.Flip(username, index)
	if err != nil {
		return res, err
	}
	view := broadcast.NewActionView(username, "flip", res)
	view.CoinIndex = &index
	env.Hub.Broadcast(roomID, view)
	afterRound(ctx, env, s, res)
	return res, nil
}

func Send(ctx context.Context, env *Env, roomID, username string) (game.ActionResult, error) {
	s, err := env.room(roomID)
	if err != nil {
		return game.ActionResult{}, err
	}
	res, err := s.Send(username)
	if err != nil {
		return res, err
	}
	env.Hub.Broadcast(roomID, broadcast.NewActionView(username, "send", res))
	afterRound(ctx, env, s, res)
	return res, nil
}

// afterRound はラウンドが終わっていれば結果を保存して通知する
func afterRound(ctx context.Context, env *Env, s *game.Session, res game.ActionResult) {
	if !res.RoundComplete || res.Result == nil {
		return
	}
	if env.Archive != nil {
		if err := env.Archive.SaveRoundResult(ctx, s.ID(), *res.Result); err != nil {
			env.Logger.Error("Failed to archive round result", zap.String("roomID", s.ID()), zap.Error(err))
		}
	}

	snap, err := s.Snapshot()
	if err != nil {
		return
	}
	env.Hub.Broadcast(s.ID(), gameStateMessage(snap.State))
	if res.GameOver {
		env.Hub.Broadcast(s.ID(), map[string]interface{}{
			"type":        broadcast.TypeGameOver,
			"final_state": broadcast.NewGameStateView(snap),
		})
		env.Logger.Info("game completed", zap.String("roomID", s.ID()))
		return
	}

	msg := map[string]interface{}{
		"type":         broadcast.TypeRoundComplete,
		"round_number": res.CurrentRound,
		"round_result": broadcast.NewRoundResultView(*res.Result),
		"game_over":    false,
		"next_round":   nil,
		"batch_size":   nil,
	}
	if res.CurrentRound < len(snap.BatchSizes) {
		msg["next_round"] = res.CurrentRound + 1
		msg["batch_size"] = snap.BatchSizes[res.CurrentRound]
	}
	env.Hub.Broadcast(s.ID(), msg)
}

func gameStateMessage(state game.State) map[string]interface{} {
	return map[string]interface{}{
		"type":  broadcast.TypeGameState,
		"state": broadcast.StateLabel(state),
	}
}

func broadcastState(env *Env, s *game.Session) error {
	snap, err := s.Snapshot()
	if err != nil {
		return err
	}
	env.Hub.Broadcast(s.ID(), map[string]interface{}{
		"type":       broadcast.TypeGameState,
		"state":      broadcast.StateLabel(snap.State),
		"game_state": broadcast.NewGameStateView(snap),
	})
	return nil
}

// BroadcastActivity tells the room who is connected.
func BroadcastActivity(env *Env, roomID string) {
	s, err := env.room(roomID)
	if err != nil {
		return
	}
	snap, err := s.Snapshot()
	if err != nil {
		return
	}
	online := map[string]bool{}
	for _, name := range env.Hub.Online(roomID) {
		online[name] = true
	}
	activity := map[string]bool{}
	for _, name := range append(append([]string{snap.Host}, snap.Players...), snap.Spectators...) {
		if name != "" {
			activity[name] = online[name]
		}
	}
	env.Hub.Broadcast(roomID, map[string]interface{}{
		"type":       broadcast.TypeActivity,
		"players":    snap.Players,
		"spectators": snap.Spectators,
		"host":       snap.Host,
		"activity":   activity,
	})
}

// Sweep evicts idle rooms and disconnects their clients.
func Sweep(env *Env, roomIdle, playerIdle time.Duration) []string {
	evicted := env.Registry.Sweep(env.Registry.Now(), roomIdle, playerIdle)
	for _, roomID := range evicted {
		env.Hub.CloseRoom(roomID, broadcast.CloseRoomNotFound, "Room closed for inactivity")
	}
	return evicted
}
