package nexus

import (
	"context"
	"strings"

	"nexusglobal/internal/apiclient"
	"nexusglobal/internal/session"
)

// Адреса авторизации.
const (
	EndpointLogin          = "/api/auth/login"
	EndpointLogout         = "/api/auth/logout"
	EndpointRegister       = "/api/auth/register"
	EndpointForgotPassword = "/api/auth/forgot-password"
	EndpointResetPassword  = "/api/auth/reset-password"
	EndpointProfile        = "/api/users/profile"
)

// LoginResult - ответ на вход.
type LoginResult struct {
	User         session.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// Credentials возвращает пару токенов из ответа.
func (r *LoginResult) Credentials() session.Credentials {
	return session.Credentials{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}
}

// RegisterRequest - данные регистрации нового партнера.
type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Phone          string `json:"phone,omitempty"`
	DocumentType   string `json:"documentType,omitempty"`
	DocumentNumber string `json:"documentNumber,omitempty"`
	ReferrerCode   string `json:"referrerCode,omitempty"`
	Position       string `json:"position,omitempty"`
}

// AuthService - вход, выход, профиль и восстановление пароля.
type AuthService struct {
	client    *apiclient.Client
	refresher *session.APIRefresher
}

// NewAuthService создает AuthService.
func NewAuthService(client *apiclient.Client) *AuthService {
	return &AuthService{client: client, refresher: session.NewAPIRefresher(client)}
}

// Login выполняет вход по email и паролю.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, requiredError("email")
	}
	if password == "" {
		return nil, requiredError("password")
	}

	var res LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := s.client.PublicPost(ctx, EndpointLogin, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Refresh обменивает токен обновления на новую пару.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (session.Credentials, error) {
	return s.refresher.Refresh(ctx, refreshToken)
}

// Logout отзывает токен обновления на бэкенде.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.client.Post(ctx, EndpointLogout, map[string]string{"refreshToken": refreshToken}, nil)
}

// Profile возвращает профиль текущего пользователя.
func (s *AuthService) Profile(ctx context.Context) (*session.User, error) {
	var user session.User
	if err := s.client.Get(ctx, EndpointProfile, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ForgotPassword запрашивает письмо для сброса пароля.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return requiredError("email")
	}
	return s.client.PublicPost(ctx, EndpointForgotPassword, map[string]string{"email": email}, nil)
}

// ResetPassword задает новый пароль по токену из письма.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" {
		return requiredError("token")
	}
	if password == "" {
		return requiredError("password")
	}
	return s.client.PublicPost(ctx, EndpointResetPassword, map[string]string{"token": token, "password": password}, nil)
}

// Register регистрирует нового партнера.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*session.User, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, requiredError("email")
	}
	if req.Password == "" {
		return nil, requiredError("password")
	}

	var user session.User
	if err := s.client.PublicPost(ctx, EndpointRegister, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
