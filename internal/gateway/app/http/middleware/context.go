package middleware

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"nexusglobal/internal/session"
)

// Ключи значений запроса.
const (
	LocalsContext = "requestContext"
	LocalsSession = "session"
)

// Context возвращает контекст запроса с логгером и идентификатором запроса.
func Context(c fiber.Ctx) context.Context {
	if ctx, ok := c.Locals(LocalsContext).(context.Context); ok {
		return ctx
	}
	return c.Context()
}

func setContext(c fiber.Ctx, ctx context.Context) {
	c.Locals(LocalsContext, ctx)
}

// Session возвращает сессию, загруженную NewSessionMiddleware.
func Session(c fiber.Ctx) *session.Session {
	s, _ := c.Locals(LocalsSession).(*session.Session)
	return s
}
