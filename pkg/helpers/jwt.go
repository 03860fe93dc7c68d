package helpers

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager verifies access tokens issued by the auth backend. This layer
// never mints tokens.
type JWTManager struct {
	AccessSecret []byte
}

func NewJWTManager(accessSecret string) *JWTManager {
	return &JWTManager{AccessSecret: []byte(accessSecret)}
}

type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

func (m *JWTManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.AccessSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
