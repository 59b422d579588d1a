package actions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Vianpyro/Penny-Game/models"
	"github.com/Vianpyro/Penny-Game/penny/broadcast"

	"go.uber.org/zap"
)

// clientMessage はクライアントから届くメッセージ
type clientMessage struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	CoinIndex *int   `json:"coin_index"`
}

// HandleMessage dispatches one websocket message from client.
func HandleMessage(ctx context.Context, env *Env, client *models.Client, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		// JSONでなければプレーンテキストのチャットとして扱う
		touch(env, client)
		env.Hub.Broadcast(client.RoomID, map[string]interface{}{
			"type":    broadcast.TypeChat,
			"message": client.Username + ": " + string(raw),
		})
		return
	}

	switch msg.Type {
	case "", "chat":
		touch(env, client)
		handleChatMessage(env, client, msg)
	case "ping":
		if err := env.Hub.Send(client, map[string]interface{}{"type": broadcast.TypePong}); err != nil {
			env.Logger.Warn("Failed to send pong", zap.String("username", client.Username), zap.Error(err))
		}
	case "flip":
		if msg.CoinIndex == nil {
			sendError(env, client, "coin_index is required")
			return
		}
		if _, err := Flip(ctx, env, client.RoomID, client.Username, *msg.CoinIndex); err != nil {
			sendError(env, client, err.Error())
		}
	case "send":
		if _, err := Send(ctx, env, client.RoomID, client.Username); err != nil {
			sendError(env, client, err.Error())
		}
	default:
		env.Logger.Debug("Unknown message type", zap.String("type", msg.Type), zap.String("username", client.Username))
	}
}

// touch はチャットを活動として記録する。flip/send はセッション側で記録される。
// ping やキープアライブは活動に数えない
func touch(env *Env, client *models.Client) {
	s, ok := env.Registry.Get(client.RoomID)
	if !ok {
		return
	}
	if err := s.Touch(client.Username); err != nil {
		env.Logger.Debug("Activity not recorded", zap.String("roomID", client.RoomID),
			zap.String("username", client.Username), zap.Error(err))
	}
}

// チャットメッセージをルーム全体に流す
func handleChatMessage(env *Env, client *models.Client, msg clientMessage) {
	timestamp := msg.Timestamp
	if timestamp == "" {
		timestamp = time.Now().Format(time.RFC3339)
	}
	env.Logger.Info("Received chat message",
		zap.String("roomID", client.RoomID),
		zap.String("from", client.Username),
	)
	env.Hub.Broadcast(client.RoomID, map[string]interface{}{
		"type":      broadcast.TypeChat,
		"username":  client.Username,
		"message":   msg.Message,
		"timestamp": timestamp,
	})
}

func sendError(env *Env, client *models.Client, message string) {
	if err := env.Hub.Send(client, map[string]interface{}{"type": broadcast.TypeError, "error": message}); err != nil {
		env.Logger.Warn("Failed to send error message", zap.String("username", client.Username), zap.Error(err))
	}
}
