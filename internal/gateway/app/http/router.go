// Package http содержит компоненты для HTTP сервера.
package http

import (
	"net/http"

	"github.com/gofiber/fiber/v3"

	"nexusglobal/internal/gateway/app/http/auth"
	"nexusglobal/internal/gateway/app/http/middleware"
	"nexusglobal/internal/gateway/app/http/portal"
	"nexusglobal/internal/gateway/app/http/respond"
	"nexusglobal/internal/gateway/config"
	"nexusglobal/internal/gateway/ports/services"
)

// Маршруты, доступные без сессии.
var publicRoutes = map[string]struct{}{
	"POST /api/auth/login":           {},
	"POST /api/auth/logout":          {},
	"POST /api/auth/register":        {},
	"POST /api/auth/forgot-password": {},
	"POST /api/auth/reset-password":  {},
	"POST /api/leads":                {},
	"POST /api/culqi/tokens":         {},
}

func isPublic(c fiber.Ctx) bool {
	_, ok := publicRoutes[c.Method()+" "+c.Path()]
	return ok
}

// SetupRouter настраивает маршрутизацию для HTTP сервера.
func SetupRouter(app *fiber.App, authService services.AuthService, portalService services.PortalService, sessionCfg config.SessionConfig) {
	authHandler := auth.NewHandler(authService, sessionCfg)
	portalHandler := portal.NewHandler(portalService)

	// Middleware для всех запросов.
	app.Use(middleware.NewRequestIDMiddleware())
	app.Use(middleware.NewLoggerMiddleware())
	app.Use(middleware.NewRecoveryMiddleware())

	api := app.Group("/api")
	api.Use(middleware.NewSessionMiddleware(authService, sessionCfg.CookieName, isPublic))

	// Auth routes.
	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/logout", authHandler.Logout)
	api.Get("/auth/session", authHandler.Session)
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/forgot-password", authHandler.ForgotPassword)
	api.Post("/auth/reset-password", authHandler.ResetPassword)
	api.Get("/users/profile", portalHandler.Profile)

	api.Get("/team/search", portalHandler.SearchTeam)
	api.Get("/team/tree/:id", portalHandler.TeamTree)

	api.Get("/points", portalHandler.Points)
	api.Get("/points/history", portalHandler.PointsHistory)
	api.Get("/ranks", portalHandler.Ranks)

	api.Get("/payments", portalHandler.Payments)
	api.Post("/payments", portalHandler.CreatePayment)

	api.Get("/withdrawals", portalHandler.Withdrawals)
	api.Post("/withdrawals", portalHandler.CreateWithdrawal)

	api.Post("/leads", portalHandler.CaptureLead)
	api.Get("/leads", portalHandler.Leads)
	api.Patch("/leads/:id/status", portalHandler.UpdateLeadStatus)

	api.Post("/culqi/tokens", portalHandler.CardToken)

	// Обработчик для несуществующих маршрутов.
	app.Use(func(c fiber.Ctx) error {
		return respond.Fail(c, http.StatusNotFound, respond.MsgRouteNotFound)
	})
}
