package penny

import (
	"context"
	"net/http"
	"time"

	"github.com/Vianpyro/Penny-Game/internal/game"
	"github.com/Vianpyro/Penny-Game/models"
	"github.com/Vianpyro/Penny-Game/penny/actions"
	"github.com/Vianpyro/Penny-Game/penny/broadcast"
	"github.com/Vianpyro/Penny-Game/penny/database"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 10 * time.Second
)

// SessionStore issues and restores reconnection ids. It may be nil.
type SessionStore interface {
	Issue(ctx context.Context, roomID, username string) (string, error)
	Restore(ctx context.Context, sessionID string) (database.SessionInfo, error)
}

// HandleConnections upgrades the request and serves one client until it
// disconnects.
func HandleConnections(ctx context.Context, w http.ResponseWriter, r *http.Request, roomID, username string, env *actions.Env, sessions SessionStore, logger *zap.Logger, upgrader websocket.Upgrader) {
	// WebSocket接続へのアップグレード
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Error upgrading WebSocket", zap.Error(err))
		return
	}
	client := &models.Client{Conn: conn, RoomID: roomID, Username: username}

	if err := env.Hub.Register(client); err != nil {
		logger.Warn("Connection refused", zap.String("roomID", roomID), zap.Error(err))
		client.CloseWith(broadcast.CloseTooManyConnections, "Too many connections")
		return
	}
	session, ok := env.Registry.Get(roomID)
	if !ok {
		env.Hub.Unregister(client)
		client.CloseWith(broadcast.CloseRoomNotFound, "Room does not exist")
		return
	}
	logger.Info("New client added", zap.String("roomID", roomID), zap.String("username", username))

	reconnect := isReconnection(ctx, r, session, client, sessions, logger)

	if err := sendWelcome(env, client); err != nil {
		logger.Warn("Failed to send welcome message", zap.String("username", username), zap.Error(err))
	}
	actions.BroadcastActivity(env, roomID)
	notifyConnected(env, client, reconnect)

	if sessions != nil {
		// 新しいセッションIDを発行してクライアントに送る
		if sessionID, err := sessions.Issue(ctx, roomID, username); err != nil {
			logger.Error("Failed to generate or store session ID", zap.Error(err))
		} else {
			env.Hub.Send(client, map[string]interface{}{"type": broadcast.TypeSession, "session_id": sessionID})
		}
	}

	done := make(chan struct{})
	go keepAlive(client, done, logger)

	readLoop(ctx, env, client)
	close(done)
	handleDisconnect(env, client, session, logger)
}

// 有効なセッションIDがあれば再接続。Redisが無い構成では参加済みかどうかで判断する
func isReconnection(ctx context.Context, r *http.Request, session *game.Session, client *models.Client, sessions SessionStore, logger *zap.Logger) bool {
	if sessions == nil {
		_, known := session.Role(client.Username)
		return known
	}
	sessionID := r.Header.Get("SessionID")
	if sessionID == "" {
		sessionID = r.URL.Query().Get("session_id")
	}
	if sessionID == "" {
		return false
	}
	info, err := sessions.Restore(ctx, sessionID)
	if err != nil {
		logger.Warn("Invalid or expired session ID", zap.String("username", client.Username), zap.Error(err))
		return false
	}
	return info.RoomID == client.RoomID && info.Username == client.Username
}

func sendWelcome(env *actions.Env, client *models.Client) error {
	view, err := actions.State(env, client.RoomID)
	if err != nil {
		return err
	}
	return env.Hub.Send(client, map[string]interface{}{
		"type":       broadcast.TypeWelcome,
		"room_id":    client.RoomID,
		"username":   client.Username,
		"game_state": view,
	})
}

func notifyConnected(env *actions.Env, client *models.Client, reconnect bool) {
	msg := map[string]interface{}{
		"type":     broadcast.TypeUserConnected,
		"username": client.Username,
		"message":  client.Username + " connected to the room",
	}
	if reconnect {
		msg["type"] = broadcast.TypeUserReconnected
		msg["message"] = client.Username + " reconnected"
	}
	env.Hub.Broadcast(client.RoomID, msg)
}

// readLoop はクライアントからのメッセージを切断まで処理する。
// Pongは読み取り期限を延ばすだけで、ルームの活動には数えない
func readLoop(ctx context.Context, env *actions.Env, client *models.Client) {
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				env.Logger.Info("WebSocket closed", zap.String("username", client.Username), zap.Error(err))
			}
			return
		}
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		actions.HandleMessage(ctx, env, client, raw)
	}
}

// keepAlive は切断まで定期的にPingを送る
func keepAlive(client *models.Client, done <-chan struct{}, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := client.Ping(); err != nil {
				logger.Debug("Error sending ping", zap.String("username", client.Username), zap.Error(err))
				return
			}
		}
	}
}

// ホストが抜けたらルームを閉じる
func handleDisconnect(env *actions.Env, client *models.Client, session *game.Session, logger *zap.Logger) {
	env.Hub.Unregister(client)
	client.Conn.Close()
	logger.Info("Client removed", zap.String("roomID", client.RoomID), zap.String("username", client.Username))

	if _, ok := env.Registry.Get(client.RoomID); !ok {
		return
	}
	if client.Username == session.Host() {
		env.Hub.Broadcast(client.RoomID, map[string]interface{}{
			"type":     broadcast.TypeHostDisconnected,
			"username": client.Username,
			"message":  "Host " + client.Username + " left the room. Room will be closed.",
		})
		env.Registry.Remove(client.RoomID)
		env.Hub.CloseRoom(client.RoomID, broadcast.CloseHostLeft, "Host left, room closed")
		return
	}

	env.Hub.Broadcast(client.RoomID, map[string]interface{}{
		"type":     broadcast.TypeUserDisconnected,
		"username": client.Username,
		"message":  client.Username + " left the room",
	})
	actions.BroadcastActivity(env, client.RoomID)
}
