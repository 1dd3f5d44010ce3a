package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"nexusglobal/internal/gateway/app/http/respond"
	"nexusglobal/pkg/logger"
)

// Константы для логирования.
const (
	LogServerPanic        = "Server panic"
	LogPanicResponseError = "Failed to send error response after panic"
)

// NewRecoveryMiddleware создает новое промежуточное ПО для восстановления после паники.
func NewRecoveryMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) (err error) {
		requestCtx := Context(ctx)

		defer func() {
			if r := recover(); r != nil {
				log := logger.Log(requestCtx)
				log.Error(requestCtx, LogServerPanic,
					zap.String("error", fmt.Sprintf("%v", r)),
					zap.String("stack", string(debug.Stack())),
				)

				if sendErr := respond.Fail(ctx, http.StatusInternalServerError, respond.MsgInternal); sendErr != nil {
					log.Error(requestCtx, LogPanicResponseError, zap.Error(sendErr))
				}
				err = nil
			}
		}()

		return ctx.Next()
	}
}
