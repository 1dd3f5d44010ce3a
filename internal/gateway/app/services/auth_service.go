// Package services содержит реализации сервисов шлюза.
package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"nexusglobal/internal/apiclient"
	"nexusglobal/internal/gateway/ports/services"
	"nexusglobal/internal/gateway/resilience"
	"nexusglobal/internal/nexus"
	"nexusglobal/internal/session"
	"nexusglobal/pkg/logger"
)

// Константы для логирования.
const (
	LogServiceLogin    = "auth service: login user"
	LogServiceResume   = "auth service: resume session"
	LogServiceLogout   = "auth service: logout"
	LogServiceRegister = "auth service: register user"
	LogServiceForgot   = "auth service: request password reset"
	LogServiceReset    = "auth service: reset password"

	ErrorLoginFailed         = "failed to login"
	ErrorCreateSessionFailed = "failed to create session"
	ErrorPersistFailed       = "failed to persist session"
	ErrorBackendLogoutFailed = "backend logout failed"
	ErrorLogoutFailed        = "failed to logout"
	ErrorRegisterFailed      = "failed to register user"
)

// AuthServiceImpl реализует интерфейс AuthService.
type AuthServiceImpl struct {
	client     *apiclient.Client
	auth       *nexus.AuthService
	policy     *session.Policy
	store      session.Store
	resilience *resilience.ServiceResilience
}

var _ services.AuthService = (*AuthServiceImpl)(nil)

// NewAuthService создает сервис сессий. client - клиент бэкенда без источника токенов.
func NewAuthService(client *apiclient.Client, policy *session.Policy, store session.Store, res *resilience.ServiceResilience) *AuthServiceImpl {
	return &AuthServiceImpl{
		client:     client,
		auth:       nexus.NewAuthService(client),
		policy:     policy,
		store:      store,
		resilience: res,
	}
}

// Login выполняет вход и сохраняет новую сессию.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*session.Session, error) {
	log := logger.Log(ctx)
	log.Info(ctx, LogServiceLogin)

	res, err := resilience.Write(ctx, s.resilience, "Login", func(ctx context.Context) (*nexus.LoginResult, error) {
		return s.auth.Login(ctx, email, password)
	})
	if err != nil {
		log.Warn(ctx, ErrorLoginFailed, zap.Error(err))
		return nil, err
	}

	sess, err := session.New(res.User, res.Credentials())
	if err != nil {
		log.Error(ctx, ErrorCreateSessionFailed, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorCreateSessionFailed, err)
	}

	if err := s.store.Save(ctx, sess); err != nil {
		log.Error(ctx, ErrorPersistFailed, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorPersistFailed, err)
	}
	return sess, nil
}

// Resume загружает сессию и при необходимости обновляет токены. Изменения
// сессии (новая пара или тег ошибки) сохраняются сразу.
func (s *AuthServiceImpl) Resume(ctx context.Context, id string) (*session.Session, error) {
	log := logger.Log(ctx).With(zap.String(logger.SessionID, id))
	log.Debug(ctx, LogServiceResume)

	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	before := sess.Snapshot()
	ensureErr := s.policy.Ensure(ctx, sess)
	if sess.Snapshot() != before {
		if err := s.store.Save(ctx, sess); err != nil {
			log.Error(ctx, ErrorPersistFailed, zap.Error(err))
			if ensureErr == nil {
				return nil, fmt.Errorf("%s: %w", ErrorPersistFailed, err)
			}
		}
	}
	if ensureErr != nil {
		return sess, ensureErr
	}
	return sess, nil
}

// Logout отзывает токен обновления и удаляет сессию. Ошибка бэкенда не
// мешает удалить сессию шлюза.
func (s *AuthServiceImpl) Logout(ctx context.Context, id string) error {
	log := logger.Log(ctx).With(zap.String(logger.SessionID, id))
	log.Info(ctx, LogServiceLogout)

	sess, err := s.store.Load(ctx, id)
	if errors.Is(err, session.ErrNoSession) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", ErrorLogoutFailed, err)
	}

	if sess.Active() {
		auth := nexus.NewAuthService(s.client.WithTokens(session.NewServerSource(sess)))
		if err := auth.Logout(ctx, sess.Credentials().RefreshToken); err != nil {
			log.Warn(ctx, ErrorBackendLogoutFailed, zap.Error(err))
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", ErrorLogoutFailed, err)
	}
	return nil
}

// Register регистрирует партнера на бэкенде.
func (s *AuthServiceImpl) Register(ctx context.Context, req nexus.RegisterRequest) (*session.User, error) {
	log := logger.Log(ctx)
	log.Info(ctx, LogServiceRegister)

	user, err := resilience.Write(ctx, s.resilience, "Register", func(ctx context.Context) (*session.User, error) {
		return s.auth.Register(ctx, req)
	})
	if err != nil {
		log.Warn(ctx, ErrorRegisterFailed, zap.Error(err))
		return nil, err
	}
	return user, nil
}

// ForgotPassword запрашивает письмо для сброса пароля.
func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, email string) error {
	logger.Log(ctx).Info(ctx, LogServiceForgot)

	_, err := resilience.Write(ctx, s.resilience, "ForgotPassword", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.auth.ForgotPassword(ctx, email)
	})
	return err
}

// ResetPassword задает новый пароль по токену из письма.
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, token, password string) error {
	logger.Log(ctx).Info(ctx, LogServiceReset)

	_, err := resilience.Write(ctx, s.resilience, "ResetPassword", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.auth.ResetPassword(ctx, token, password)
	})
	return err
}
