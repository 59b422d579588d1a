package screens

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Vianpyro/Penny-Game/auth"
	"github.com/Vianpyro/Penny-Game/internal/game"
	"github.com/Vianpyro/Penny-Game/middlewares"
	"github.com/Vianpyro/Penny-Game/models"
	"github.com/Vianpyro/Penny-Game/penny/actions"
	"github.com/Vianpyro/Penny-Game/penny/broadcast"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
	env    *actions.Env
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	cfg := models.DefaultConfig()
	env := &actions.Env{
		Registry: game.NewRegistry(cfg.Rules(), logger),
		Hub:      broadcast.NewHub(cfg.MaxConnections, logger),
		Logger:   logger,
	}
	router := gin.New()
	Routes(router, env, auth.NewHostTokens("test-key", time.Hour), nil, cfg, logger)
	return &testServer{t: t, router: router, env: env}
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			s.t.Fatalf("%s %s: bad JSON %q", method, path, w.Body.String())
		}
	}
	return w, out
}

func (s *testServer) expect(status int, method, path, token string, body interface{}) map[string]interface{} {
	s.t.Helper()
	w, out := s.do(method, path, token, body)
	if w.Code != status {
		s.t.Fatalf("%s %s = %d, want %d (%s)", method, path, w.Code, status, w.Body.String())
	}
	return out
}

// createRoom はホストと2人のプレイヤーがいるルームを作る
func (s *testServer) createRoom() (roomID, token string) {
	s.t.Helper()
	w, out := s.do(http.MethodPost, "/game/create", "", nil)
	if w.Code != http.StatusOK {
		s.t.Fatalf("create = %d", w.Code)
	}
	roomID = out["room_id"].(string)
	token = out["host_token"].(string)

	var cookieSet bool
	for _, c := range w.Result().Cookies() {
		if c.Name == middlewares.HostTokenCookie && c.Value == token {
			cookieSet = true
		}
	}
	if !cookieSet {
		s.t.Fatal("host token cookie not set")
	}

	for _, name := range []string{"host", "bob", "carol"} {
		s.expect(http.StatusOK, http.MethodPost, "/game/join/"+roomID, "", gin.H{"username": name})
	}
	return roomID, token
}

func TestJoinRoles(t *testing.T) {
	s := newTestServer(t)
	roomID, _ := s.createRoom()

	out := s.expect(http.StatusOK, http.MethodPost, "/game/join/"+roomID+"?spectator=true", "", gin.H{"username": "dave"})
	if out["role"] != "spectator" {
		t.Fatalf("role = %v, want spectator", out["role"])
	}
	s.expect(http.StatusBadRequest, http.MethodPost, "/game/join/"+roomID, "", gin.H{"username": "bob"})
	s.expect(http.StatusBadRequest, http.MethodPost, "/game/join/"+roomID, "", gin.H{})
	s.expect(http.StatusNotFound, http.MethodPost, "/game/join/missing", "", gin.H{"username": "erin"})

	state := s.expect(http.StatusOK, http.MethodGet, "/game/state/"+roomID, "", nil)
	if state["host"] != "host" || len(state["players"].([]interface{})) != 2 {
		t.Fatalf("unexpected state %v", state)
	}
}

func TestHostRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)
	roomID, token := s.createRoom()
	_, otherToken := s.createRoom()

	cfg := gin.H{"round_type": "single", "selected_batch_size": 12, "required_players": 2}
	s.expect(http.StatusForbidden, http.MethodPost, "/game/round_config/"+roomID, "", cfg)
	s.expect(http.StatusForbidden, http.MethodPost, "/game/round_config/"+roomID, otherToken, cfg)
	s.expect(http.StatusOK, http.MethodPost, "/game/round_config/"+roomID, token, cfg)

	s.expect(http.StatusBadRequest, http.MethodPost, "/game/round_config/"+roomID, token,
		gin.H{"round_type": "single", "selected_batch_size": 5, "required_players": 2})
	s.expect(http.StatusBadRequest, http.MethodPost, "/game/round_config/"+roomID, token,
		gin.H{"round_type": "weekly", "required_players": 2})
}

func TestSingleRoundOverHTTP(t *testing.T) {
	s := newTestServer(t)
	roomID, token := s.createRoom()

	s.expect(http.StatusOK, http.MethodPost, "/game/round_config/"+roomID, token,
		gin.H{"round_type": "single", "selected_batch_size": 12, "required_players": 2})
	start := s.expect(http.StatusOK, http.MethodPost, "/game/start/"+roomID, token, nil)
	if start["game_state"].(map[string]interface{})["state"] != "active" {
		t.Fatalf("unexpected start response %v", start)
	}
	// ラウンド中は設定を変えられない
	s.expect(http.StatusBadRequest, http.MethodPost, "/game/round_config/"+roomID, token,
		gin.H{"round_type": "single", "selected_batch_size": 1, "required_players": 2})

	s.expect(http.StatusBadRequest, http.MethodPost, "/game/flip/"+roomID, "", gin.H{"username": "bob"})
	s.expect(http.StatusNotFound, http.MethodPost, "/game/flip/"+roomID, "", gin.H{"username": "host", "coin_index": 0})
	s.expect(http.StatusBadRequest, http.MethodPost, "/game/flip/"+roomID, "", gin.H{"username": "bob", "coin_index": 12})
	s.expect(http.StatusBadRequest, http.MethodPost, "/game/send/"+roomID, "", gin.H{"username": "bob"})

	for i := 0; i < 12; i++ {
		s.expect(http.StatusOK, http.MethodPost, "/game/flip/"+roomID, "", gin.H{"username": "bob", "coin_index": i})
	}
	sent := s.expect(http.StatusOK, http.MethodPost, "/game/send/"+roomID, "", gin.H{"username": "bob"})
	if sent["success"] != true || sent["batch_count"] != float64(12) || sent["round_complete"] != false {
		t.Fatalf("unexpected send response %v", sent)
	}

	for i := 0; i < 12; i++ {
		s.expect(http.StatusOK, http.MethodPost, "/game/flip/"+roomID, "", gin.H{"username": "carol", "coin_index": i})
	}
	last := s.expect(http.StatusOK, http.MethodPost, "/game/send/"+roomID, "", gin.H{"username": "carol"})
	if last["round_complete"] != true || last["game_over"] != true || last["total_completed"] != float64(12) {
		t.Fatalf("unexpected final send %v", last)
	}

	state := s.expect(http.StatusOK, http.MethodGet, "/game/state/"+roomID, "", nil)
	if state["state"] != "results" || len(state["round_results"].([]interface{})) != 1 {
		t.Fatalf("unexpected final state %v", state)
	}
	s.expect(http.StatusBadRequest, http.MethodPost, "/game/next_round/"+roomID, token, nil)

	reset := s.expect(http.StatusOK, http.MethodPost, "/game/reset/"+roomID, token, nil)
	if reset["game_state"].(map[string]interface{})["state"] != "lobby" {
		t.Fatalf("unexpected reset response %v", reset)
	}
}

func TestChangeRoleHandler(t *testing.T) {
	s := newTestServer(t)
	roomID, _ := s.createRoom()

	s.expect(http.StatusOK, http.MethodPost, "/game/change_role/"+roomID, "", gin.H{"username": "carol", "role": "spectator"})
	s.expect(http.StatusBadRequest, http.MethodPost, "/game/change_role/"+roomID, "", gin.H{"username": "carol", "role": "host"})
	s.expect(http.StatusBadRequest, http.MethodPost, "/game/change_role/"+roomID, "", gin.H{"username": "host", "role": "player"})
	s.expect(http.StatusNotFound, http.MethodPost, "/game/change_role/"+roomID, "", gin.H{"username": "zed", "role": "player"})

	state := s.expect(http.StatusOK, http.MethodGet, "/game/state/"+roomID, "", nil)
	if len(state["spectators"].([]interface{})) != 1 {
		t.Fatalf("carol should be a spectator: %v", state)
	}
}

func TestLeaveHandler(t *testing.T) {
	s := newTestServer(t)
	roomID, _ := s.createRoom()

	s.expect(http.StatusOK, http.MethodPost, "/game/leave/"+roomID, "", gin.H{"username": "carol"})
	s.expect(http.StatusNotFound, http.MethodPost, "/game/leave/"+roomID, "", gin.H{"username": "carol"})
	s.expect(http.StatusBadRequest, http.MethodPost, "/game/leave/"+roomID, "", gin.H{"username": "host"})

	state := s.expect(http.StatusOK, http.MethodGet, "/game/state/"+roomID, "", nil)
	if len(state["players"].([]interface{})) != 1 {
		t.Fatalf("carol should be gone: %v", state)
	}
}

func TestHealthAndCleanup(t *testing.T) {
	s := newTestServer(t)
	s.createRoom()

	health := s.expect(http.StatusOK, http.MethodGet, "/health", "", nil)
	if health["rooms"] != float64(1) {
		t.Fatalf("unexpected health %v", health)
	}
	cleanup := s.expect(http.StatusOK, http.MethodPost, "/cleanup", "", nil)
	if len(cleanup["removed_rooms"].([]interface{})) != 0 || cleanup["rooms"] != float64(1) {
		t.Fatalf("fresh room must survive cleanup: %v", cleanup)
	}
	s.expect(http.StatusOK, http.MethodGet, "/", "", nil)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{game.ErrRoomNotFound, http.StatusNotFound},
		{game.ErrUnauthorized, http.StatusForbidden},
		{game.ErrNotActive, http.StatusBadRequest},
		{game.ErrCoinOutOfRange, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if got := errorStatus(tt.err); got != tt.want {
			t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
