// Package services определяет интерфейсы сервисов шлюза.
package services

import (
	"context"

	"nexusglobal/internal/nexus"
	"nexusglobal/internal/session"
)

// AuthService управляет сессиями шлюза.
type AuthService interface {
	// Login выполняет вход на бэкенде и создает сессию.
	Login(ctx context.Context, email, password string) (*session.Session, error)

	// Resume загружает сессию и проверяет токен. Это единственная точка
	// проверки сессии для входящего запроса.
	Resume(ctx context.Context, id string) (*session.Session, error)

	// Logout отзывает токен на бэкенде и удаляет сессию.
	Logout(ctx context.Context, id string) error

	// Register регистрирует партнера. Сессия не создается: после
	// регистрации пользователь входит обычным образом.
	Register(ctx context.Context, req nexus.RegisterRequest) (*session.User, error)

	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}
