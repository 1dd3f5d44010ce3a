package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"nexusglobal/pkg/logger"
)

// DefaultSkew - запас до истечения токена, при котором он уже считается устаревшим.
const DefaultSkew = 60 * time.Second

// rotationTTL - сколько помнится результат обновления. Вызов, прочитавший
// старую пару до завершения чужого обновления, получает уже выданную пару.
const rotationTTL = time.Minute

// Константы для логирования.
const (
	LogRefreshStarted    = "access token is stale, refreshing"
	LogRefreshCompleted  = "credentials refreshed"
	LogRefreshFailed     = "failed to refresh credentials"
	LogRefreshInvalid    = "refresh returned an unusable access token"
	LogRefreshSuperseded = "credentials already rotated by another caller"
)

type rotation struct {
	next Credentials
	at   time.Time
}

// Policy решает, нужно ли обновлять токены, и обновляет их.
// Одновременные обновления одного токена обновления объединяются в один вызов.
type Policy struct {
	refresher Refresher
	skew      time.Duration
	now       func() time.Time
	group     singleflight.Group

	mu      sync.Mutex
	rotated map[string]rotation
}

// PolicyOption настраивает Policy.
type PolicyOption func(*Policy)

// WithSkew задает запас до истечения токена.
func WithSkew(skew time.Duration) PolicyOption {
	return func(p *Policy) {
		if skew >= 0 {
			p.skew = skew
		}
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) PolicyOption {
	return func(p *Policy) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPolicy создает Policy.
func NewPolicy(refresher Refresher, opts ...PolicyOption) *Policy {
	p := &Policy{
		refresher: refresher,
		skew:      DefaultSkew,
		now:       time.Now,
		rotated:   make(map[string]rotation),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stale сообщает, что токен доступа пора обновить.
func (p *Policy) Stale(accessToken string) bool {
	return IsStale(accessToken, p.now(), p.skew)
}

// Ensure проверяет сессию и при необходимости обновляет пару токенов.
// Сессия с тегом ошибки сразу возвращает ошибку тега. Неудачное обновление
// ставит тег и оставляет прежние токены. Повторных попыток нет.
func (p *Policy) Ensure(ctx context.Context, s *Session) error {
	if s == nil {
		return ErrNoSession
	}
	if err := s.Error().Err(); err != nil {
		return err
	}

	creds := s.Credentials()
	if !creds.Valid() {
		return ErrNoSession
	}
	if !p.Stale(creds.AccessToken) {
		return nil
	}

	log := logger.Log(ctx).With(zap.String(logger.SessionID, s.ID()))
	log.Info(ctx, LogRefreshStarted)

	// Обновление не должно обрываться отменой контекста одного из ожидающих.
	refreshCtx := context.WithoutCancel(ctx)
	v, err, shared := p.group.Do(creds.RefreshToken, func() (any, error) {
		if next, ok := p.lookup(creds.RefreshToken); ok {
			return next, nil
		}
		next, err := p.refresher.Refresh(refreshCtx, creds.RefreshToken)
		if err != nil {
			return nil, err
		}
		p.remember(creds.RefreshToken, next)
		return next, nil
	})
	if p.superseded(s, creds) {
		log.Info(ctx, LogRefreshSuperseded)
		return nil
	}
	if err != nil {
		s.MarkError(TagRefreshAccessTokenError)
		log.Warn(ctx, LogRefreshFailed, zap.Bool("shared", shared), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrRefreshAccessToken, err)
	}

	next, _ := v.(Credentials)
	if !next.Valid() {
		s.MarkError(TagInvalidTokenError)
		log.Warn(ctx, LogRefreshInvalid, zap.Bool("shared", shared))
		return ErrInvalidToken
	}
	if _, err := ExpiresAt(next.AccessToken); err != nil {
		s.MarkError(TagInvalidTokenError)
		log.Warn(ctx, LogRefreshInvalid, zap.Bool("shared", shared), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if err := s.Replace(next); err != nil {
		s.MarkError(TagInvalidTokenError)
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	log.Info(ctx, LogRefreshCompleted, zap.Bool("shared", shared))
	return nil
}

// superseded сообщает, что пока шло обновление, сессия уже получила другую
// действующую пару.
func (p *Policy) superseded(s *Session, before Credentials) bool {
	current := s.Credentials()
	if s.Error() != TagNone || !current.Valid() {
		return false
	}
	return current.RefreshToken != before.RefreshToken && !p.Stale(current.AccessToken)
}

// lookup возвращает пару, уже выданную в обмен на refreshToken.
func (p *Policy) lookup(refreshToken string) (Credentials, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, ok := p.rotated[refreshToken]
	if !ok {
		return Credentials{}, false
	}
	if p.now().Sub(r.at) > rotationTTL {
		delete(p.rotated, refreshToken)
		return Credentials{}, false
	}
	return r.next, true
}

func (p *Policy) remember(refreshToken string, next Credentials) {
	if !next.Valid() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for k, r := range p.rotated {
		if now.Sub(r.at) > rotationTTL {
			delete(p.rotated, k)
		}
	}
	p.rotated[refreshToken] = rotation{next: next, at: now}
}
