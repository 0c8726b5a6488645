package utils

import (
	"time"

	"github.com/golang-jwt/jwt"
	"social-publisher/infrastructure/logger"
)

// GetCurrentTime is the single clock for issued-at and expiry stamps.
func GetCurrentTime() time.Time {
	return time.Now().UTC()
}

// GenerateToken signs the claim payload as an HS256 session token.
func GenerateToken(payload map[string]interface{}, secretKey string) (string, error) {
	var claims jwt.MapClaims = payload
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("session token signing failed")
		return "", err
	}
	return tokenString, nil
}
