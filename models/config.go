package models

import (
	"time"

	"github.com/Vianpyro/Penny-Game/internal/game"
)

// Config 構造体はサーバー全体の設定を保持します。
// config.json の値は PENNY_* などの環境変数で上書きされます。
type Config struct {
	Addr string `json:"addr" env:"PENNY_ADDR"`

	// PostgreSQL。DBHost が空ならラウンド結果の保存は無効
	DBHost     string `json:"db_host" env:"PENNY_DB_HOST"`
	DBUser     string `json:"db_user" env:"PENNY_DB_USER"`
	DBPassword string `json:"db_password" env:"PENNY_DB_PASSWORD"`
	DBName     string `json:"db_name" env:"PENNY_DB_NAME"`
	DBSSLMode  string `json:"db_sslmode" env:"PENNY_DB_SSLMODE"`

	// Redis。RedisAddr が空なら再接続用セッションIDは発行しない
	RedisAddr     string `json:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `json:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `json:"redis_db" env:"REDIS_DB"`

	JWTSecret      string   `json:"jwt_secret" env:"PENNY_JWT_SECRET"`
	AllowedOrigins []string `json:"allowed_origins" env:"PENNY_ALLOWED_ORIGINS" envSeparator:","`

	TotalCoins        int `json:"total_coins" env:"PENNY_TOTAL_COINS"`
	MaxPlayers        int `json:"max_players" env:"PENNY_MAX_PLAYERS"`
	TripleMiddleBatch int `json:"triple_middle_batch" env:"PENNY_TRIPLE_MIDDLE_BATCH"`

	RoomIdleMinutes   int    `json:"room_idle_minutes" env:"PENNY_ROOM_IDLE_MINUTES"`
	PlayerIdleMinutes int    `json:"player_idle_minutes" env:"PENNY_PLAYER_IDLE_MINUTES"`
	SweepSpec         string `json:"sweep_spec" env:"PENNY_SWEEP_SPEC"`
	MaxConnections    int    `json:"max_connections" env:"PENNY_MAX_CONNECTIONS"`

	Development bool `json:"development" env:"PENNY_DEVELOPMENT"`
}

// DefaultConfig は設定ファイルが無い場合の値
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		DBSSLMode:         "disable",
		AllowedOrigins:    []string{"http://localhost:5173"},
		TotalCoins:        12,
		MaxPlayers:        5,
		TripleMiddleBatch: 4,
		RoomIdleMinutes:   60,
		PlayerIdleMinutes: 5,
		SweepSpec:         "@every 1m",
		MaxConnections:    50,
	}
}

// Rules derives the game rules. The sequences are [total, 1] and
// [total, middle, 1].
func (c Config) Rules() game.Rules {
	return game.Rules{
		TotalCoins:     c.TotalCoins,
		MinPlayers:     2,
		MaxPlayers:     c.MaxPlayers,
		DoubleSequence: []int{c.TotalCoins, 1},
		TripleSequence: []int{c.TotalCoins, c.TripleMiddleBatch, 1},
	}
}

func (c Config) RoomIdle() time.Duration {
	return time.Duration(c.RoomIdleMinutes) * time.Minute
}

func (c Config) PlayerIdle() time.Duration {
	return time.Duration(c.PlayerIdleMinutes) * time.Minute
}
