package database

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.TotalCoins != 12 || cfg.MaxConnections != 50 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"db_host": "db.local", "max_players": 4, "allowed_origins": ["https://a.example"]}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PENNY_DB_HOST", "db.override")
	t.Setenv("PENNY_ALLOWED_ORIGINS", "https://b.example,https://c.example")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DBHost != "db.override" {
		t.Fatalf("env should win over file, DBHost = %q", cfg.DBHost)
	}
	if cfg.MaxPlayers != 4 {
		t.Fatalf("file value lost, MaxPlayers = %d", cfg.MaxPlayers)
	}
	if cfg.RoomIdleMinutes != 60 {
		t.Fatalf("default lost, RoomIdleMinutes = %d", cfg.RoomIdleMinutes)
	}
	want := []string{"https://b.example", "https://c.example"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
}

func TestLoadConfigRejectsBadRules(t *testing.T) {
	t.Setenv("PENNY_TOTAL_COINS", "10")
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("4 does not divide 10, LoadConfig should fail")
	}
}

func TestLoadConfigBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte("{"), 0o600)
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected a decode error")
	}
}
