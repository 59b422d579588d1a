package auth

import (
	"fmt"
	"time"

	"github.com/Vianpyro/Penny-Game/models"

	jwt "github.com/dgrijalva/jwt-go"
)

// HostTokens issues and verifies the token that proves a client created a room.
type HostTokens struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewHostTokens(secret string, ttl time.Duration) *HostTokens {
	return &HostTokens{key: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue はルームIDとホスト用シークレットを含むトークンを生成する
func (h *HostTokens) Issue(roomID, hostSecret string) (string, error) {
	claims := &models.HostClaims{
		RoomID:     roomID,
		HostSecret: hostSecret,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  h.now().Unix(),
			ExpiresAt: h.now().Add(h.ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.key)
}

func (h *HostTokens) Parse(tokenString string) (*models.HostClaims, error) {
	claims := &models.HostClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return h.key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// TTL はトークンの有効期間。クッキーの MaxAge にも使う
func (h *HostTokens) TTL() time.Duration { return h.ttl }
