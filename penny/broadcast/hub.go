package broadcast

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/Vianpyro/Penny-Game/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketのクローズコード
const (
	CloseTooManyConnections = 4000
	CloseRoomNotFound       = 4001
	CloseHostLeft           = 4002
)

// ErrTooManyConnections is returned by Register when the server is full.
var ErrTooManyConnections = errors.New("too many connections")

// Hub はルームごとのWebSocketクライアントを管理する
type Hub struct {
	mu             sync.RWMutex
	rooms          map[string]map[*models.Client]bool
	total          int
	maxConnections int
	logger         *zap.Logger
}

func NewHub(maxConnections int, logger *zap.Logger) *Hub {
	return &Hub{
		rooms:          make(map[string]map[*models.Client]bool),
		maxConnections: maxConnections,
		logger:         logger,
	}
}

// Register adds a client unless the server-wide limit is reached.
func (h *Hub) Register(c *models.Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.maxConnections > 0 && h.total >= h.maxConnections {
		return ErrTooManyConnections
	}
	room, ok := h.rooms[c.RoomID]
	if !ok {
		room = make(map[*models.Client]bool)
		h.rooms[c.RoomID] = room
	}
	room[c] = true
	h.total++
	return nil
}

func (h *Hub) Unregister(c *models.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregister(c)
}

func (h *Hub) unregister(c *models.Client) {
	room, ok := h.rooms[c.RoomID]
	if !ok || !room[c] {
		return
	}
	delete(room, c)
	h.total--
	// 空のルームは削除
	if len(room) == 0 {
		delete(h.rooms, c.RoomID)
	}
}

// Online はルームに接続中のユーザー名を返す
func (h *Hub) Online(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := map[string]bool{}
	var names []string
	for c := range h.rooms[roomID] {
		if !seen[c.Username] {
			seen[c.Username] = true
			names = append(names, c.Username)
		}
	}
	sort.Strings(names)
	return names
}

func (h *Hub) Total() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

func (h *Hub) clients(roomID string) []*models.Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*models.Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		out = append(out, c)
	}
	return out
}

// Broadcast sends msg as JSON to every client of the room. Clients that
// fail to receive are dropped.
func (h *Hub) Broadcast(roomID string, msg interface{}) {
	messageJSON, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}
	for _, c := range h.clients(roomID) {
		if err := c.WriteMessage(websocket.TextMessage, messageJSON); err != nil {
			h.logger.Warn("Failed to broadcast to client",
				zap.String("roomID", roomID), zap.String("username", c.Username), zap.Error(err))
			h.Unregister(c)
			c.Conn.Close()
		}
	}
}

// Send は1クライアントにだけ送る
func (h *Hub) Send(c *models.Client, msg interface{}) error {
	messageJSON, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, messageJSON)
}

// CloseRoom disconnects every client of a room with the given close code.
func (h *Hub) CloseRoom(roomID string, code int, reason string) {
	h.mu.Lock()
	var closing []*models.Client
	for c := range h.rooms[roomID] {
		closing = append(closing, c)
		h.unregister(c)
	}
	h.mu.Unlock()

	for _, c := range closing {
		if err := c.CloseWith(code, reason); err != nil {
			h.logger.Debug("close after room shutdown", zap.String("username", c.Username), zap.Error(err))
		}
	}
	if len(closing) > 0 {
		h.logger.Info("room connections closed",
			zap.String("roomID", roomID), zap.Int("code", code), zap.Int("clients", len(closing)))
	}
}
