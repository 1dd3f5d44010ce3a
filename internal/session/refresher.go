package session

import (
	"context"

	"nexusglobal/internal/apiclient"
)

// RefreshEndpoint - адрес обновления пары токенов.
const RefreshEndpoint = "/api/auth/refresh"

// Refresher обменивает токен обновления на новую пару.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (Credentials, error)
}

// RefresherFunc позволяет использовать функцию как Refresher.
type RefresherFunc func(ctx context.Context, refreshToken string) (Credentials, error)

// Refresh вызывает f.
func (f RefresherFunc) Refresh(ctx context.Context, refreshToken string) (Credentials, error) {
	return f(ctx, refreshToken)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// APIRefresher обновляет токены через бэкенд. Вызов публичный: токен
// доступа в этот момент уже считается устаревшим.
type APIRefresher struct {
	client *apiclient.Client
}

// NewAPIRefresher создает APIRefresher.
func NewAPIRefresher(client *apiclient.Client) *APIRefresher {
	return &APIRefresher{client: client}
}

// Refresh выполняет POST /api/auth/refresh.
func (r *APIRefresher) Refresh(ctx context.Context, refreshToken string) (Credentials, error) {
	var creds Credentials
	if err := r.client.PublicPost(ctx, RefreshEndpoint, refreshRequest{RefreshToken: refreshToken}, &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}
