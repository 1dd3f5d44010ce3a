// Package session хранит пару токенов пользователя и поддерживает ее в
// актуальном состоянии: проверяет срок действия токена доступа, обновляет
// пару через бэкенд и помечает сессию ошибкой, если обновить не удалось.
package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrorTag - признак необратимой ошибки сессии.
type ErrorTag string

// Теги ошибок сессии.
const (
	TagNone                    ErrorTag = ""
	TagRefreshAccessTokenError ErrorTag = "RefreshAccessTokenError"
	TagInvalidTokenError       ErrorTag = "InvalidTokenError"
)

var (
	// ErrRefreshAccessToken - бэкенд отказал в обновлении токенов.
	ErrRefreshAccessToken = errors.New(string(TagRefreshAccessTokenError))
	// ErrInvalidToken - бэкенд вернул токен, который нельзя разобрать.
	ErrInvalidToken = errors.New(string(TagInvalidTokenError))
	// ErrNoSession - сессии нет или она уже закрыта.
	ErrNoSession = errors.New("session not found")
	// ErrInvalidCredentials - пара токенов неполная.
	ErrInvalidCredentials = errors.New("credential pair must carry both tokens")
)

// Err возвращает сигнальную ошибку тега или nil.
func (t ErrorTag) Err() error {
	switch t {
	case TagRefreshAccessTokenError:
		return ErrRefreshAccessToken
	case TagInvalidTokenError:
		return ErrInvalidToken
	default:
		return nil
	}
}

// Credentials - пара токенов.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Valid сообщает, что оба токена присутствуют.
func (c Credentials) Valid() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

// Role - роль пользователя в портале.
type Role struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// User - профиль пользователя, полученный при входе.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Nickname  string `json:"nickname,omitempty"`
	Photo     string `json:"photo,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      Role   `json:"role"`
}

// Snapshot - сериализуемое состояние сессии.
type Snapshot struct {
	ID          string      `json:"id"`
	User        User        `json:"user"`
	Credentials Credentials `json:"credentials"`
	Error       ErrorTag    `json:"error,omitempty"`
}

// Session - сессия пользователя. Состояние меняется только целиком:
// пара токенов заменяется атомарно либо сессия получает тег ошибки.
type Session struct {
	mu    sync.RWMutex
	id    string
	user  User
	creds Credentials
	tag   ErrorTag
}

// New создает сессию после успешного входа.
func New(user User, creds Credentials) (*Session, error) {
	if !creds.Valid() {
		return nil, ErrInvalidCredentials
	}
	return &Session{id: uuid.NewString(), user: user, creds: creds}, nil
}

// Restore восстанавливает сессию из снимка.
func Restore(s Snapshot) (*Session, error) {
	if s.ID == "" {
		return nil, ErrNoSession
	}
	if !s.Credentials.Valid() {
		return nil, ErrInvalidCredentials
	}
	return &Session{id: s.ID, user: s.User, creds: s.Credentials, tag: s.Error}, nil
}

// ID возвращает идентификатор сессии.
func (s *Session) ID() string {
	return s.id
}

// User возвращает профиль пользователя.
func (s *Session) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Credentials возвращает текущую пару токенов.
func (s *Session) Credentials() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

// Error возвращает тег ошибки сессии.
func (s *Session) Error() ErrorTag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tag
}

// Active сообщает, что у сессии есть токены и нет тега ошибки.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.Valid() && s.tag == TagNone
}

// Replace заменяет обе части пары и снимает тег ошибки.
func (s *Session) Replace(creds Credentials) error {
	if !creds.Valid() {
		return ErrInvalidCredentials
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	s.tag = TagNone
	return nil
}

// MarkError ставит тег ошибки, токены остаются прежними.
func (s *Session) MarkError(tag ErrorTag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tag = tag
}

// Clear стирает токены. Используется при выходе и при 401.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	s.tag = TagNone
}

// Snapshot возвращает копию состояния для сохранения.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{ID: s.id, User: s.user, Credentials: s.creds, Error: s.tag}
}
