package middlewares

import (
	"net/http"
	"strings"

	"github.com/Vianpyro/Penny-Game/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// HostTokenCookie はホスト用トークンを保存するクッキー名
	HostTokenCookie = "host_token"
	hostSecretKey   = "hostSecret"
)

// HostAuth verifies the host token for the room named in the path and puts
// the host secret into the context.
func HostAuth(tokens *auth.HostTokens, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := hostToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "Host token is required"})
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			logger.Warn("ホストトークンの検証に失敗", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "Invalid host token"})
			return
		}
		if claims.RoomID != c.Param("roomID") {
			logger.Warn("別のルームのホストトークン",
				zap.String("tokenRoomID", claims.RoomID), zap.String("roomID", c.Param("roomID")))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "Invalid host token"})
			return
		}

		c.Set(hostSecretKey, claims.HostSecret)
		c.Next()
	}
}

// HostSecret returns the secret stored by HostAuth.
func HostSecret(c *gin.Context) string {
	return c.GetString(hostSecretKey)
}

// Authorization ヘッダーを優先し、無ければクッキーを見る
func hostToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(HostTokenCookie); err == nil {
		return cookie
	}
	return ""
}
