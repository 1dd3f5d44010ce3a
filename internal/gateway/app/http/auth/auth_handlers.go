// Package auth содержит HTTP обработчики входа, выхода и сессии.
package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"nexusglobal/internal/gateway/app/dto"
	"nexusglobal/internal/gateway/app/http/middleware"
	"nexusglobal/internal/gateway/app/http/respond"
	"nexusglobal/internal/gateway/config"
	"nexusglobal/internal/gateway/ports/services"
	"nexusglobal/pkg/logger"
)

// Константы для логирования.
const (
	LogHandlerLogin    = "auth handler: login"
	LogHandlerLogout   = "auth handler: logout"
	LogHandlerSession  = "auth handler: session"
	LogHandlerRegister = "auth handler: register"
	LogHandlerForgot   = "auth handler: forgot password"
	LogHandlerReset    = "auth handler: reset password"

	ErrorInvalidRequest = "invalid request"
	ErrorLogoutFailed   = "failed to logout"

	MsgLoginSuccess    = "Login successful"
	MsgLogoutSuccess   = "Logout successful"
	MsgSessionActive   = "Session active"
	MsgCredentials     = "email and password are required"
	MsgRegistered      = "Registration successful"
	MsgResetRequested  = "If the email is registered, a reset link has been sent"
	MsgPasswordChanged = "Password updated"
	MsgEmailRequired   = "email is required"
	MsgResetFields     = "token and password are required"
)

// Handler содержит HTTP обработчики для авторизации.
type Handler struct {
	authService services.AuthService
	cookie      config.SessionConfig
	now         func() time.Time
}

// NewHandler создает новый экземпляр обработчика авторизации.
func NewHandler(authService services.AuthService, cookie config.SessionConfig) *Handler {
	return &Handler{
		authService: authService,
		cookie:      cookie,
		now:         time.Now,
	}
}

// Login выполняет вход и выдает cookie сессии.
func (h *Handler) Login(ctx fiber.Ctx) error {
	requestCtx := middleware.Context(ctx)
	log := logger.Log(requestCtx)
	log.Info(requestCtx, LogHandlerLogin)

	var req dto.LoginRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return respond.Fail(ctx, http.StatusBadRequest, ErrorInvalidRequest)
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return respond.Fail(ctx, http.StatusBadRequest, MsgCredentials)
	}

	sess, err := h.authService.Login(requestCtx, req.Email, req.Password)
	if err != nil {
		return respond.Error(ctx, err)
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     h.cookie.CookieName,
		Value:    sess.ID(),
		Path:     "/",
		Expires:  h.now().Add(h.cookie.TTL),
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return respond.OK(ctx, http.StatusOK, dto.NewSessionResponse(sess), MsgLoginSuccess)
}

// Logout удаляет сессию и cookie. Отсутствие сессии не считается ошибкой.
func (h *Handler) Logout(ctx fiber.Ctx) error {
	requestCtx := middleware.Context(ctx)
	log := logger.Log(requestCtx)
	log.Info(requestCtx, LogHandlerLogout)

	if id := ctx.Cookies(h.cookie.CookieName); id != "" {
		if err := h.authService.Logout(requestCtx, id); err != nil {
			log.Error(requestCtx, ErrorLogoutFailed, zap.Error(err))
			return respond.Error(ctx, err)
		}
	}

	ctx.ClearCookie(h.cookie.CookieName)
	return respond.OK(ctx, http.StatusOK, nil, MsgLogoutSuccess)
}

// Session возвращает пользователя текущей сессии.
func (h *Handler) Session(ctx fiber.Ctx) error {
	requestCtx := middleware.Context(ctx)
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerSession)

	return respond.OK(ctx, http.StatusOK, dto.NewSessionResponse(middleware.Session(ctx)), MsgSessionActive)
}

// Register регистрирует партнера. Cookie не выдается.
func (h *Handler) Register(ctx fiber.Ctx) error {
	requestCtx := middleware.Context(ctx)
	log := logger.Log(requestCtx)
	log.Info(requestCtx, LogHandlerRegister)

	var req dto.RegisterRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return respond.Fail(ctx, http.StatusBadRequest, ErrorInvalidRequest)
	}

	in := req.ToNexus()
	if in.Email == "" || in.Password == "" {
		return respond.Fail(ctx, http.StatusBadRequest, MsgCredentials)
	}

	user, err := h.authService.Register(requestCtx, in)
	if err != nil {
		return respond.Error(ctx, err)
	}
	return respond.OK(ctx, http.StatusCreated, user, MsgRegistered)
}

// ForgotPassword запрашивает письмо для сброса пароля.
func (h *Handler) ForgotPassword(ctx fiber.Ctx) error {
	requestCtx := middleware.Context(ctx)
	log := logger.Log(requestCtx)
	log.Info(requestCtx, LogHandlerForgot)

	var req dto.ForgotPasswordRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return respond.Fail(ctx, http.StatusBadRequest, ErrorInvalidRequest)
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		return respond.Fail(ctx, http.StatusBadRequest, MsgEmailRequired)
	}

	if err := h.authService.ForgotPassword(requestCtx, email); err != nil {
		return respond.Error(ctx, err)
	}
	return respond.OK(ctx, http.StatusOK, nil, MsgResetRequested)
}

// ResetPassword задает новый пароль по токену из письма.
func (h *Handler) ResetPassword(ctx fiber.Ctx) error {
	requestCtx := middleware.Context(ctx)
	log := logger.Log(requestCtx)
	log.Info(requestCtx, LogHandlerReset)

	var req dto.ResetPasswordRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return respond.Fail(ctx, http.StatusBadRequest, ErrorInvalidRequest)
	}

	if req.Token == "" || req.Password == "" {
		return respond.Fail(ctx, http.StatusBadRequest, MsgResetFields)
	}

	if err := h.authService.ResetPassword(requestCtx, req.Token, req.Password); err != nil {
		return respond.Error(ctx, err)
	}
	return respond.OK(ctx, http.StatusOK, nil, MsgPasswordChanged)
}
