package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Vianpyro/Penny-Game/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newHostRouter(tokens *auth.HostTokens) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/game/start/:roomID", HostAuth(tokens, zap.NewNop()), func(c *gin.Context) {
		c.String(http.StatusOK, HostSecret(c))
	})
	return r
}

func TestHostAuth(t *testing.T) {
	tokens := auth.NewHostTokens("k", time.Hour)
	r := newHostRouter(tokens)
	good, _ := tokens.Issue("room1", "s3cret")
	other, _ := tokens.Issue("room2", "s3cret")

	tests := []struct {
		name   string
		header string
		cookie string
		status int
		body   string
	}{
		{"bearer header", "Bearer " + good, "", http.StatusOK, "s3cret"},
		{"cookie", "", good, http.StatusOK, "s3cret"},
		{"missing", "", "", http.StatusForbidden, ""},
		{"other room", "Bearer " + other, "", http.StatusForbidden, ""},
		{"garbage", "Bearer nope", "", http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/game/start/room1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: HostTokenCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if tt.body != "" && w.Body.String() != tt.body {
				t.Fatalf("body = %q, want %q", w.Body.String(), tt.body)
			}
		})
	}
}
