package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"nexusglobal/internal/apiclient"
	"nexusglobal/pkg/logger"
)

var (
	_ apiclient.TokenSource = (*ServerSource)(nil)
	_ apiclient.TokenSource = (*ClientSource)(nil)
)

// Константы для логирования.
const (
	LogSessionPersistFailed = "failed to persist session"
	LogSessionDeleteFailed  = "failed to delete session"
	LogSignedOut            = "session cleared after unauthorized response"
	LogUnauthorizedServer   = "backend rejected session token"
)

// ServerSource отдает токен сессии одного входящего запроса. Сессия уже
// проверена один раз на входе, поэтому здесь обновления нет, а 401 от
// бэкенда просто возвращается вызывающему.
type ServerSource struct {
	session *Session
}

// NewServerSource создает источник для сессии запроса.
func NewServerSource(s *Session) *ServerSource {
	return &ServerSource{session: s}
}

// Token возвращает токен доступа сессии.
func (s *ServerSource) Token(context.Context) (string, error) {
	if s.session == nil {
		return "", ErrNoSession
	}
	if err := s.session.Error().Err(); err != nil {
		return "", err
	}
	creds := s.session.Credentials()
	if !creds.Valid() {
		return "", ErrNoSession
	}
	return creds.AccessToken, nil
}

// Unauthorized ничего не меняет: решение принимает обработчик запроса.
func (s *ServerSource) Unauthorized(ctx context.Context) error {
	logger.Log(ctx).Debug(ctx, LogUnauthorizedServer)
	return nil
}

// ClientSource держит сессию процесса. Перед каждым авторизованным вызовом
// проверяет токен и при необходимости обновляет его. На 401 очищает сессию
// и вызывает хук выхода.
type ClientSource struct {
	mu        sync.RWMutex
	session   *Session
	policy    *Policy
	store     Store
	onSignOut func(ctx context.Context)
}

// ClientOption настраивает ClientSource.
type ClientOption func(*ClientSource)

// WithSignOut задает хук, вызываемый после очистки сессии на 401.
func WithSignOut(fn func(ctx context.Context)) ClientOption {
	return func(c *ClientSource) {
		c.onSignOut = fn
	}
}

// NewClientSource создает источник. store может быть nil.
func NewClientSource(policy *Policy, store Store, opts ...ClientOption) *ClientSource {
	c := &ClientSource{policy: policy, store: store}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Restore загружает сессию из хранилища.
func (c *ClientSource) Restore(ctx context.Context, id string) (*Session, error) {
	if c.store == nil {
		return nil, ErrNoSession
	}
	s, err := c.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return s, nil
}

// SignIn делает s текущей сессией и сохраняет ее.
func (c *ClientSource) SignIn(ctx context.Context, s *Session) error {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return c.persist(ctx, s)
}

// SignOut очищает сессию и удаляет ее из хранилища.
func (c *ClientSource) SignOut(ctx context.Context) error {
	s := c.take()
	if s == nil {
		return nil
	}
	s.Clear()
	if c.store == nil {
		return nil
	}
	return c.store.Delete(ctx, s.ID())
}

// Session возвращает текущую сессию или nil.
func (c *ClientSource) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Token проверяет сессию через Policy и возвращает актуальный токен.
func (c *ClientSource) Token(ctx context.Context) (string, error) {
	s := c.Session()
	if s == nil {
		return "", ErrNoSession
	}

	before := s.Snapshot()
	err := c.policy.Ensure(ctx, s)
	if after := s.Snapshot(); after != before {
		if perr := c.persist(ctx, s); perr != nil {
			logger.Log(ctx).Warn(ctx, LogSessionPersistFailed,
				zap.String(logger.SessionID, s.ID()), zap.Error(perr))
		}
	}
	if err != nil {
		return "", err
	}
	return s.Credentials().AccessToken, nil
}

// Unauthorized очищает сессию, удаляет ее из хранилища и вызывает хук выхода.
func (c *ClientSource) Unauthorized(ctx context.Context) error {
	s := c.take()
	if s != nil {
		s.Clear()
		if c.store != nil {
			if err := c.store.Delete(ctx, s.ID()); err != nil {
				logger.Log(ctx).Warn(ctx, LogSessionDeleteFailed,
					zap.String(logger.SessionID, s.ID()), zap.Error(err))
			}
		}
		logger.Log(ctx).Info(ctx, LogSignedOut, zap.String(logger.SessionID, s.ID()))
	}
	if c.onSignOut != nil {
		c.onSignOut(ctx)
	}
	return nil
}

func (c *ClientSource) take() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session
	c.session = nil
	return s
}

func (c *ClientSource) persist(ctx context.Context, s *Session) error {
	if c.store == nil {
		return nil
	}
	return c.store.Save(ctx, s)
}
