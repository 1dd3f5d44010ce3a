// Package dto содержит объекты передачи данных шлюза.
package dto

import (
	"strings"

	"nexusglobal/internal/nexus"
	"nexusglobal/internal/session"
)

// LoginRequest содержит данные для входа пользователя.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse - сведения о сессии для браузера. Токены наружу не отдаются.
type SessionResponse struct {
	User  session.User     `json:"user"`
	Error session.ErrorTag `json:"error,omitempty"`
}

// NewSessionResponse собирает ответ по сессии.
func NewSessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{User: s.User(), Error: s.Error()}
}

// RegisterRequest - форма регистрации партнера.
type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Phone          string `json:"phone"`
	DocumentType   string `json:"documentType"`
	DocumentNumber string `json:"documentNumber"`
	ReferrerCode   string `json:"referrerCode"`
	Position       string `json:"position"`
}

// ToNexus приводит форму к запросу бэкенда.
func (r RegisterRequest) ToNexus() nexus.RegisterRequest {
	return nexus.RegisterRequest{
		Email:          strings.TrimSpace(r.Email),
		Password:       r.Password,
		FirstName:      strings.TrimSpace(r.FirstName),
		LastName:       strings.TrimSpace(r.LastName),
		Phone:          strings.TrimSpace(r.Phone),
		DocumentType:   r.DocumentType,
		DocumentNumber: strings.TrimSpace(r.DocumentNumber),
		ReferrerCode:   strings.TrimSpace(r.ReferrerCode),
		Position:       r.Position,
	}
}

// ForgotPasswordRequest - запрос письма для сброса пароля.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest - новый пароль по токену из письма.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}
