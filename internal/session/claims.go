package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errNoExpiry = errors.New("token has no exp claim")

// ExpiresAt читает claim exp без проверки подписи. Подпись проверяет бэкенд,
// клиенту нужен только срок действия.
func ExpiresAt(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("decoding access token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// IsStale сообщает, что токен истекает раньше now+skew.
// Нечитаемый токен считается устаревшим.
func IsStale(token string, now time.Time, skew time.Duration) bool {
	exp, err := ExpiresAt(token)
	if err != nil {
		return true
	}
	return exp.Before(now.Add(skew))
}
