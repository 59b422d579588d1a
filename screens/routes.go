package screens

import (
	"net/http"

	"github.com/Vianpyro/Penny-Game/auth"
	"github.com/Vianpyro/Penny-Game/middlewares"
	"github.com/Vianpyro/Penny-Game/models"
	"github.com/Vianpyro/Penny-Game/penny"
	"github.com/Vianpyro/Penny-Game/penny/actions"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Routes は各HTTPリクエストのルーティングを登録する
func Routes(router *gin.Engine, env *actions.Env, tokens *auth.HostTokens, sessions penny.SessionStore, cfg models.Config, logger *zap.Logger) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}

	router.GET("/", HomeHandler)
	router.GET("/health", func(c *gin.Context) {
		HealthHandler(c, env)
	})
	router.POST("/cleanup", func(c *gin.Context) {
		CleanupHandler(c, env, cfg)
	})

	g := router.Group("/game")
	g.POST("/create", func(c *gin.Context) {
		RoomCreate(c, env, tokens, logger)
	})
	g.POST("/join/:roomID", func(c *gin.Context) {
		JoinHandler(c, env, logger)
	})
	g.GET("/state/:roomID", func(c *gin.Context) {
		StateHandler(c, env, logger)
	})
	g.POST("/change_role/:roomID", func(c *gin.Context) {
		ChangeRoleHandler(c, env, logger)
	})
	g.POST("/leave/:roomID", func(c *gin.Context) {
		LeaveHandler(c, env, logger)
	})
	g.POST("/flip/:roomID", func(c *gin.Context) {
		FlipHandler(c, env, logger)
	})
	g.POST("/send/:roomID", func(c *gin.Context) {
		SendHandler(c, env, logger)
	})

	// ホスト専用
	host := g.Group("", middlewares.HostAuth(tokens, logger))
	host.POST("/round_config/:roomID", func(c *gin.Context) {
		RoundConfigHandler(c, env, logger)
	})
	host.POST("/start/:roomID", func(c *gin.Context) {
		StartHandler(c, env, logger)
	})
	host.POST("/next_round/:roomID", func(c *gin.Context) {
		NextRoundHandler(c, env, logger)
	})
	host.POST("/reset/:roomID", func(c *gin.Context) {
		ResetHandler(c, env, logger)
	})

	router.GET("/ws/:roomID/:username", func(c *gin.Context) {
		penny.HandleConnections(c.Request.Context(), c.Writer, c.Request,
			c.Param("roomID"), c.Param("username"), env, sessions, logger, upgrader)
	})
}

// originChecker はCORSと同じオリジンだけWebSocketを許可する。空か "*" なら全て許可
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
