// Package middleware содержит промежуточное ПО для HTTP обработчиков.
package middleware

import (
	"github.com/gofiber/fiber/v3"

	"nexusglobal/pkg/logger"
)

// NewRequestIDMiddleware берет X-Request-ID из запроса или создает новый и
// кладет его в контекст запроса и в ответ.
func NewRequestIDMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := logger.NewRequestIDContext(Context(ctx), ctx.Get(logger.RequestIDHeader))
		id, _ := logger.GetRequestID(requestCtx)

		setContext(ctx, requestCtx)
		ctx.Set(logger.RequestIDHeader, id)

		return ctx.Next()
	}
}
