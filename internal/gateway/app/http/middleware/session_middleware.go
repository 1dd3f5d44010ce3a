package middleware

import (
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"nexusglobal/internal/gateway/app/http/respond"
	"nexusglobal/internal/gateway/ports/services"
	"nexusglobal/internal/session"
	"nexusglobal/pkg/logger"
)

// Константы для логирования.
const (
	LogSessionMissing  = "request without session cookie"
	LogSessionRejected = "session rejected"
)

// NewSessionMiddleware загружает сессию из cookie и проверяет токен один раз
// на запрос. Обработчики получают уже проверенную сессию через Session(c).
// Запросы, для которых skip возвращает true, пропускаются без сессии.
func NewSessionMiddleware(auth services.AuthService, cookieName string, skip func(fiber.Ctx) bool) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		if skip != nil && skip(ctx) {
			return ctx.Next()
		}

		requestCtx := Context(ctx)
		log := logger.Log(requestCtx)

		id := ctx.Cookies(cookieName)
		if id == "" {
			log.Debug(requestCtx, LogSessionMissing)
			return respond.Error(ctx, session.ErrNoSession)
		}

		sess, err := auth.Resume(requestCtx, id)
		if err != nil {
			log.Info(requestCtx, LogSessionRejected, zap.String(logger.SessionID, id), zap.Error(err))
			return respond.Error(ctx, err)
		}

		log = log.With(zap.String(logger.SessionID, sess.ID()))
		setContext(ctx, logger.NewContext(requestCtx, log))
		ctx.Locals(LocalsSession, sess)

		return ctx.Next()
	}
}
