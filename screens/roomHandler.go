package screens

import (
	"net/http"
	"strconv"

	"github.com/Vianpyro/Penny-Game/auth"
	"github.com/Vianpyro/Penny-Game/internal/game"
	"github.com/Vianpyro/Penny-Game/middlewares"
	"github.com/Vianpyro/Penny-Game/models"
	"github.com/Vianpyro/Penny-Game/penny/actions"
	"github.com/Vianpyro/Penny-Game/penny/broadcast"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errorStatus はコアのエラー分類をHTTPステータスに対応付ける
func errorStatus(err error) int {
	switch game.KindOf(err) {
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindUnauthorized:
		return http.StatusForbidden
	}
	return http.StatusBadRequest
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := errorStatus(err)
	logger.Info("request rejected",
		zap.String("path", c.FullPath()), zap.String("roomID", c.Param("roomID")), zap.Int("status", status), zap.Error(err))
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

func bindError(c *gin.Context, logger *zap.Logger, err error) {
	logger.Info("Request bind error", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
}

// HomeHandler は動作確認用
func HomeHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Penny Game API is running"})
}

func HealthHandler(c *gin.Context, env *actions.Env) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"rooms":       env.Registry.Len(),
		"connections": env.Hub.Total(),
	})
}

// RoomCreate creates a room and hands the host token to the caller, both as
// a cookie and in the body.
func RoomCreate(c *gin.Context, env *actions.Env, tokens *auth.HostTokens, logger *zap.Logger) {
	roomID, hostSecret := env.Registry.Create()

	token, err := tokens.Issue(roomID, hostSecret)
	if err != nil {
		logger.Error("Token generation error", zap.String("roomID", roomID), zap.Error(err))
		env.Registry.Remove(roomID)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create room"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middlewares.HostTokenCookie, token, int(tokens.TTL().Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "host_token": token})
}

func JoinHandler(c *gin.Context, env *actions.Env, logger *zap.Logger) {
	var request models.JoinRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		bindError(c, logger, err)
		return
	}
	asSpectator, _ := strconv.ParseBool(c.DefaultQuery("spectator", "false"))

	roomID := c.Param("roomID")
	out, err := actions.Join(env, roomID, request.Username, asSpectator)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"username":   out.Username,
		"role":       broadcast.RoleLabel(out.Role),
		"host":       out.Host,
		"players":    out.Players,
		"spectators": out.Spectators,
	})
}

func StateHandler(c *gin.Context, env *actions.Env, logger *zap.Logger) {
	view, err := actions.State(env, c.Param("roomID"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ChangeRoleHandler はプレイヤーと観戦者を入れ替える
func ChangeRoleHandler(c *gin.Context, env *actions.Env, logger *zap.Logger) {
	var request models.ChangeRoleRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		bindError(c, logger, err)
		return
	}
	role, ok := broadcast.ParseRole(request.Role)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "role must be player or spectator"})
		return
	}
	if err := actions.ChangeRole(env, c.Param("roomID"), request.Username, role); err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "username": request.Username, "role": request.Role})
}

func LeaveHandler(c *gin.Context, env *actions.Env, logger *zap.Logger) {
	var request models.LeaveRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		bindError(c, logger, err)
		return
	}
	if err := actions.Leave(env, c.Param("roomID"), request.Username); err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "username": request.Username})
}

// CleanupHandler runs one inactivity sweep on demand.
func CleanupHandler(c *gin.Context, env *actions.Env, cfg models.Config) {
	evicted := actions.Sweep(env, cfg.RoomIdle(), cfg.PlayerIdle())
	if evicted == nil {
		evicted = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "removed_rooms": evicted, "rooms": env.Registry.Len()})
}
