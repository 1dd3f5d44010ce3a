// Package portal содержит HTTP обработчики разделов портала.
package portal

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"nexusglobal/internal/gateway/app/dto"
	"nexusglobal/internal/gateway/app/http/middleware"
	"nexusglobal/internal/gateway/app/http/respond"
	"nexusglobal/internal/gateway/ports/services"
	"nexusglobal/internal/nexus"
	"nexusglobal/internal/session"
	"nexusglobal/pkg/logger"
)

// Константы ответов.
const (
	ErrorInvalidRequest   = "invalid request"
	ErrorMultipartPayment = "payment must be sent as multipart/form-data"

	MsgOK              = "ok"
	MsgPaymentCreated  = "Pago registrado"
	MsgWithdrawalSent  = "Solicitud de retiro registrada"
	MsgLeadCaptured    = "Lead registrado"
	MsgLeadUpdated     = "Lead actualizado"
	MsgCardTokenIssued = "Token generado"
)

// Handler содержит HTTP обработчики портала.
type Handler struct {
	portal services.PortalService
}

// NewHandler создает новый экземпляр обработчика.
func NewHandler(portal services.PortalService) *Handler {
	return &Handler{portal: portal}
}

func pageQuery(ctx fiber.Ctx) nexus.PageQuery {
	return nexus.PageQuery{
		Page:  queryInt(ctx, "page"),
		Limit: queryInt(ctx, "limit"),
	}
}

func queryInt(ctx fiber.Ctx, key string) int {
	v, err := strconv.Atoi(ctx.Query(key))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func reply[T any](ctx fiber.Ctx, status int, message string) func(T, error) error {
	return func(data T, err error) error {
		if err != nil {
			return respond.Error(ctx, err)
		}
		return respond.OK(ctx, status, data, message)
	}
}

// Profile - GET /api/users/profile.
func (h *Handler) Profile(ctx fiber.Ctx) error {
	return reply[*session.User](ctx, http.StatusOK, MsgOK)(
		h.portal.Profile(middleware.Context(ctx), middleware.Session(ctx)))
}

// SearchTeam - GET /api/team/search.
func (h *Handler) SearchTeam(ctx fiber.Ctx) error {
	q := nexus.TreeSearch{Search: strings.TrimSpace(ctx.Query("search")), PageQuery: pageQuery(ctx)}
	return reply[*nexus.Page[nexus.TreeUser]](ctx, http.StatusOK, MsgOK)(
		h.portal.SearchTeam(middleware.Context(ctx), middleware.Session(ctx), q))
}

// TeamTree - GET /api/team/tree/:id.
func (h *Handler) TeamTree(ctx fiber.Ctx) error {
	return reply[*nexus.TreeNode](ctx, http.StatusOK, MsgOK)(
		h.portal.TeamTree(middleware.Context(ctx), middleware.Session(ctx), ctx.Params("id"), queryInt(ctx, "depth")))
}

// Points - GET /api/points.
func (h *Handler) Points(ctx fiber.Ctx) error {
	return reply[*nexus.PointsSummary](ctx, http.StatusOK, MsgOK)(
		h.portal.Points(middleware.Context(ctx), middleware.Session(ctx)))
}

// PointsHistory - GET /api/points/history.
func (h *Handler) PointsHistory(ctx fiber.Ctx) error {
	return reply[*nexus.Page[nexus.PointsTransaction]](ctx, http.StatusOK, MsgOK)(
		h.portal.PointsHistory(middleware.Context(ctx), middleware.Session(ctx), pageQuery(ctx)))
}

// Ranks - GET /api/ranks.
func (h *Handler) Ranks(ctx fiber.Ctx) error {
	return reply[*nexus.RankProgress](ctx, http.StatusOK, MsgOK)(
		h.portal.Ranks(middleware.Context(ctx), middleware.Session(ctx)))
}

// Payments - GET /api/payments.
func (h *Handler) Payments(ctx fiber.Ctx) error {
	f := nexus.PaymentFilter{Status: ctx.Query("status"), PageQuery: pageQuery(ctx)}
	return reply[*nexus.Page[nexus.Payment]](ctx, http.StatusOK, MsgOK)(
		h.portal.Payments(middleware.Context(ctx), middleware.Session(ctx), f))
}

// CreatePayment - POST /api/payments. Форма передается бэкенду без разбора.
func (h *Handler) CreatePayment(ctx fiber.Ctx) error {
	contentType := ctx.Get(fiber.HeaderContentType)
	if !strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
		return respond.Fail(ctx, http.StatusUnsupportedMediaType, ErrorMultipartPayment)
	}

	// Тело fiber переиспользуется после ответа, поэтому копируем его.
	body := append([]byte(nil), ctx.Body()...)
	return reply[*nexus.Payment](ctx, http.StatusCreated, MsgPaymentCreated)(
		h.portal.CreatePayment(middleware.Context(ctx), middleware.Session(ctx), body, contentType))
}

// Withdrawals - GET /api/withdrawals.
func (h *Handler) Withdrawals(ctx fiber.Ctx) error {
	f := nexus.WithdrawalFilter{Status: ctx.Query("status"), PageQuery: pageQuery(ctx)}
	return reply[*nexus.Page[nexus.Withdrawal]](ctx, http.StatusOK, MsgOK)(
		h.portal.Withdrawals(middleware.Context(ctx), middleware.Session(ctx), f))
}

// CreateWithdrawal - POST /api/withdrawals.
func (h *Handler) CreateWithdrawal(ctx fiber.Ctx) error {
	requestCtx := middleware.Context(ctx)

	var req dto.WithdrawalRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		logger.Log(requestCtx).Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return respond.Fail(ctx, http.StatusBadRequest, ErrorInvalidRequest)
	}

	return reply[*nexus.Withdrawal](ctx, http.StatusCreated, MsgWithdrawalSent)(
		h.portal.CreateWithdrawal(requestCtx, middleware.Session(ctx), req.Amount, req.Reason))
}

// Leads - GET /api/leads.
func (h *Handler) Leads(ctx fiber.Ctx) error {
	f := nexus.LeadFilter{Status: ctx.Query("status"), Search: ctx.Query("search"), PageQuery: pageQuery(ctx)}
	return reply[*nexus.Page[nexus.Lead]](ctx, http.StatusOK, MsgOK)(
		h.portal.Leads(middleware.Context(ctx), middleware.Session(ctx), f))
}

// UpdateLeadStatus - PATCH /api/leads/:id/status.
func (h *Handler) UpdateLeadStatus(ctx fiber.Ctx) error {
	requestCtx := middleware.Context(ctx)

	var req dto.LeadStatusRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		logger.Log(requestCtx).Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return respond.Fail(ctx, http.StatusBadRequest, ErrorInvalidRequest)
	}

	return reply[*nexus.Lead](ctx, http.StatusOK, MsgLeadUpdated)(
		h.portal.UpdateLeadStatus(requestCtx, middleware.Session(ctx), ctx.Params("id"), req.Status, req.Notes))
}

// CaptureLead - POST /api/leads, публичный.
func (h *Handler) CaptureLead(ctx fiber.Ctx) error {
	requestCtx := middleware.Context(ctx)

	var in nexus.LeadInput
	if err := ctx.Bind().JSON(&in); err != nil {
		logger.Log(requestCtx).Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return respond.Fail(ctx, http.StatusBadRequest, ErrorInvalidRequest)
	}

	return reply[*nexus.Lead](ctx, http.StatusCreated, MsgLeadCaptured)(h.portal.CaptureLead(requestCtx, in))
}

// CardToken - POST /api/culqi/tokens, публичный.
func (h *Handler) CardToken(ctx fiber.Ctx) error {
	requestCtx := middleware.Context(ctx)

	var card nexus.Card
	if err := ctx.Bind().JSON(&card); err != nil {
		logger.Log(requestCtx).Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return respond.Fail(ctx, http.StatusBadRequest, ErrorInvalidRequest)
	}

	return reply[*nexus.CardToken](ctx, http.StatusCreated, MsgCardTokenIssued)(h.portal.CardToken(requestCtx, card))
}
