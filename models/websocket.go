package models

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Websocketクライアントを定義
type Client struct {
	Conn     *websocket.Conn
	RoomID   string
	Username string
	// 書き込みは1本ずつ
	mu sync.Mutex
}

func (c *Client) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(messageType, data)
}

// CloseWith はクローズコードを送ってから接続を閉じる
func (c *Client) CloseWith(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := websocket.FormatCloseMessage(code, reason)
	c.Conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	return c.Conn.Close()
}

// Ping はキープアライブ用のPingを送る
func (c *Client) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}
