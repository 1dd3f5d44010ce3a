// Package respond отвечает клиентам шлюза в формате конверта бэкенда.
package respond

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"nexusglobal/internal/apiclient"
	"nexusglobal/internal/gateway/resilience"
	"nexusglobal/internal/nexus"
	"nexusglobal/internal/session"
)

// Сообщения ошибок шлюза.
const (
	MsgInvalidRequest     = "invalid request"
	MsgSessionRequired    = "session required"
	MsgSessionExpired     = "session expired, please sign in again"
	MsgServiceUnavailable = "service temporarily unavailable"
	MsgBackendTimeout     = "backend did not respond in time"
	MsgBackendUnreachable = "backend is unreachable"
	MsgInternal           = "internal server error"
	MsgRouteNotFound      = "route not found"
)

// Envelope - ответ шлюза той же формы, что и ответ бэкенда. Errors пишется
// массивом даже из одного элемента.
type Envelope struct {
	Success bool               `json:"success"`
	Data    any                `json:"data"`
	Message apiclient.Messages `json:"message"`
	Errors  []string           `json:"errors"`
}

// OK отправляет успешный ответ.
func OK(c fiber.Ctx, status int, data any, message string) error {
	return c.Status(status).JSON(Envelope{Success: true, Data: data, Message: apiclient.Messages{message}})
}

// Fail отправляет ответ с ошибкой.
func Fail(c fiber.Ctx, status int, message string, errs ...string) error {
	env := Envelope{Message: apiclient.Messages{message}}
	if len(errs) > 0 {
		env.Errors = errs
	}
	return c.Status(status).JSON(env)
}

// Error переводит ошибку сервиса в статус и конверт.
func Error(c fiber.Ctx, err error) error {
	status, env := Describe(err)
	return c.Status(status).JSON(env)
}

// Describe возвращает статус и конверт для ошибки.
func Describe(err error) (int, Envelope) {
	switch {
	case errors.Is(err, session.ErrRefreshAccessToken):
		return http.StatusUnauthorized, failure(MsgSessionExpired, string(session.TagRefreshAccessTokenError))
	case errors.Is(err, session.ErrInvalidToken):
		return http.StatusUnauthorized, failure(MsgSessionExpired, string(session.TagInvalidTokenError))
	case errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized, failure(MsgSessionRequired)
	case errors.Is(err, nexus.ErrInvalidArgument):
		return http.StatusBadRequest, failure(err.Error())
	case errors.Is(err, resilience.ErrCircuitOpen):
		return http.StatusServiceUnavailable, failure(MsgServiceUnavailable)
	}

	apiErr, ok := apiclient.AsError(err)
	if !ok {
		return http.StatusInternalServerError, failure(MsgInternal)
	}

	switch apiErr.Kind {
	case apiclient.KindAuth:
		return http.StatusUnauthorized, Envelope{Message: messageOr(apiErr.Message, http.StatusText(http.StatusUnauthorized)), Errors: apiErr.Errors.Slice()}
	case apiclient.KindHTTP:
		status := apiErr.Status
		if status < 400 {
			status = http.StatusBadGateway
		}
		return status, Envelope{Message: messageOr(apiErr.Message, http.StatusText(status)), Errors: apiErr.Errors.Slice()}
	case apiclient.KindTimeout:
		return http.StatusGatewayTimeout, failure(MsgBackendTimeout)
	case apiclient.KindNetwork:
		return http.StatusBadGateway, failure(MsgBackendUnreachable)
	default:
		return http.StatusInternalServerError, Envelope{Message: messageOr(apiErr.Message, MsgInternal)}
	}
}

func failure(message string, errs ...string) Envelope {
	env := Envelope{Message: apiclient.Messages{message}}
	if len(errs) > 0 {
		env.Errors = errs
	}
	return env
}

func messageOr(m apiclient.Messages, fallback string) apiclient.Messages {
	if len(m) == 0 {
		return apiclient.Messages{fallback}
	}
	return m
}

// ErrorHandler - обработчик ошибок fiber, отвечающий конвертом.
func ErrorHandler(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return Fail(c, fe.Code, fe.Message)
	}
	return Error(c, err)
}
