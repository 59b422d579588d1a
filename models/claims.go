package models

import (
	jwt "github.com/dgrijalva/jwt-go"
)

// HostClaims はホスト用JWTに内包するデータ
type HostClaims struct {
	RoomID     string `json:"room_id"`
	HostSecret string `json:"host_secret"`
	jwt.StandardClaims
}
