package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionTTL = 24 * time.Hour

// SessionInfo は再接続のためにRedisに保存する情報
type SessionInfo struct {
	RoomID   string `json:"roomID"`
	Username string `json:"username"`
}

// RedisSessions stores websocket session ids so a client can prove it is
// reconnecting.
type RedisSessions struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisSessions(rdb *redis.Client, logger *zap.Logger) *RedisSessions {
	return &RedisSessions{rdb: rdb, logger: logger}
}

// Issue はセッションIDを発行して保存する
func (s *RedisSessions) Issue(ctx context.Context, roomID, username string) (string, error) {
	sessionID := uuid.New().String()

	sessionInfoJSON, err := json.Marshal(SessionInfo{RoomID: roomID, Username: username})
	if err != nil {
		return "", fmt.Errorf("encode session info: %w", err)
	}
	// 24時間の有効期限
	if err := s.rdb.Set(ctx, "session:"+sessionID, sessionInfoJSON, sessionTTL).Err(); err != nil {
		s.logger.Error("Error storing session info in Redis", zap.Error(err))
		return "", fmt.Errorf("store session: %w", err)
	}
	return sessionID, nil
}

// Restore looks up a session id and deletes it; ids are single use.
func (s *RedisSessions) Restore(ctx context.Context, sessionID string) (SessionInfo, error) {
	var info SessionInfo
	if sessionID == "" {
		return info, fmt.Errorf("session id is empty")
	}

	sessionInfoJSON, err := s.rdb.GetDel(ctx, "session:"+sessionID).Result()
	if err != nil {
		return info, fmt.Errorf("load session: %w", err)
	}
	if err := json.Unmarshal([]byte(sessionInfoJSON), &info); err != nil {
		s.logger.Error("Failed to decode session info", zap.Error(err))
		return info, fmt.Errorf("decode session: %w", err)
	}
	return info, nil
}
