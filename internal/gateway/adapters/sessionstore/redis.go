// Package sessionstore хранит сессии шлюза в Redis.
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"nexusglobal/internal/gateway/config"
	"nexusglobal/internal/gateway/ports/store"
	"nexusglobal/internal/session"
	"nexusglobal/pkg/logger"
)

// Константы для логирования.
const (
	LogMethodLoad   = "load"
	LogMethodSave   = "save"
	LogMethodDelete = "delete"

	ErrorFailedToConnect = "failed to connect to redis"
	ErrorFailedToLoad    = "failed to load session from redis"
	ErrorFailedToDecode  = "failed to decode session"
	ErrorFailedToSave    = "failed to save session in redis"
	ErrorFailedToDelete  = "failed to delete session from redis"
	ErrorFailedToClose   = "failed to close redis connection"
)

// RedisStore сохраняет снимки сессий в JSON с временем жизни.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ store.SessionStore = (*RedisStore)(nil)

// NewRedisStore подключается к Redis и проверяет соединение.
func NewRedisStore(ctx context.Context, cfg *config.RedisConfig, sess *config.SessionConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            cfg.GetAddress(),
		Password:        cfg.Password,
		DB:              cfg.DB,
		DialTimeout:     cfg.ConnectTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdle,
		ConnMaxIdleTime: cfg.IdleTimeout,
		ConnMaxLifetime: cfg.MaxConnLifetime,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", ErrorFailedToConnect, err)
	}

	return NewFromClient(client, sess.KeyPrefix, sess.TTL), nil
}

// NewFromClient создает хранилище поверх готового клиента.
func NewFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Load читает сессию. Отсутствующий ключ - session.ErrNoSession.
func (s *RedisStore) Load(ctx context.Context, id string) (*session.Session, error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodLoad), zap.String(logger.SessionID, id))

	if id == "" {
		return nil, session.ErrNoSession
	}

	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNoSession
		}
		log.Error(ctx, ErrorFailedToLoad, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorFailedToLoad, err)
	}

	var snap session.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		log.Warn(ctx, ErrorFailedToDecode, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorFailedToDecode, err)
	}
	return session.Restore(snap)
}

// Save записывает снимок и продлевает время жизни.
func (s *RedisStore) Save(ctx context.Context, sess *session.Session) error {
	log := logger.Log(ctx).With(zap.String("method", LogMethodSave), zap.String(logger.SessionID, sess.ID()))

	raw, err := json.Marshal(sess.Snapshot())
	if err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToSave, err)
	}

	if err := s.client.Set(ctx, s.key(sess.ID()), raw, s.ttl).Err(); err != nil {
		log.Error(ctx, ErrorFailedToSave, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToSave, err)
	}
	return nil
}

// Delete удаляет сессию.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	log := logger.Log(ctx).With(zap.String("method", LogMethodDelete), zap.String(logger.SessionID, id))

	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		log.Error(ctx, ErrorFailedToDelete, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToDelete, err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToClose, err)
	}
	return nil
}
