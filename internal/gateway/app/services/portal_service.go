package services

import (
	"context"

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
	LogCulqiDisabled = "culqi token requested but culqi is not configured"

	errMsgCulqiDisabled = "card payments are not configured"
)

// PortalServiceImpl выполняет вызовы портала от имени сессии. Клиент
// строится на каждый вызов с ServerSource этой сессии, поэтому сессии
// разных пользователей не пересекаются.
type PortalServiceImpl struct {
	client  *apiclient.Client
	backend *resilience.ServiceResilience
	culqi   *nexus.CulqiService
	payment *resilience.ServiceResilience
}

var _ services.PortalService = (*PortalServiceImpl)(nil)

// NewPortalService создает сервис. culqi может быть nil, если ключ не задан.
func NewPortalService(client *apiclient.Client, backend *resilience.ServiceResilience, culqi *nexus.CulqiService, payment *resilience.ServiceResilience) *PortalServiceImpl {
	return &PortalServiceImpl{client: client, backend: backend, culqi: culqi, payment: payment}
}

func (p *PortalServiceImpl) api(s *session.Session) *nexus.API {
	return nexus.New(p.client.WithTokens(session.NewServerSource(s)))
}

// Profile возвращает профиль пользователя.
func (p *PortalServiceImpl) Profile(ctx context.Context, s *session.Session) (*session.User, error) {
	return resilience.Read(ctx, p.backend, "Profile", func(ctx context.Context) (*session.User, error) {
		return p.api(s).Auth.Profile(ctx)
	})
}

// SearchTeam ищет партнеров в дереве.
func (p *PortalServiceImpl) SearchTeam(ctx context.Context, s *session.Session, q nexus.TreeSearch) (*nexus.Page[nexus.TreeUser], error) {
	return resilience.Read(ctx, p.backend, "SearchTeam", func(ctx context.Context) (*nexus.Page[nexus.TreeUser], error) {
		return p.api(s).Team.SearchTree(ctx, q)
	})
}

// TeamTree возвращает поддерево.
func (p *PortalServiceImpl) TeamTree(ctx context.Context, s *session.Session, userID string, depth int) (*nexus.TreeNode, error) {
	return resilience.Read(ctx, p.backend, "TeamTree", func(ctx context.Context) (*nexus.TreeNode, error) {
		return p.api(s).Team.Tree(ctx, userID, depth)
	})
}

// Points возвращает сводку очков.
func (p *PortalServiceImpl) Points(ctx context.Context, s *session.Session) (*nexus.PointsSummary, error) {
	return resilience.Read(ctx, p.backend, "Points", func(ctx context.Context) (*nexus.PointsSummary, error) {
		return p.api(s).Points.Summary(ctx)
	})
}

// PointsHistory возвращает историю очков.
func (p *PortalServiceImpl) PointsHistory(ctx context.Context, s *session.Session, q nexus.PageQuery) (*nexus.Page[nexus.PointsTransaction], error) {
	return resilience.Read(ctx, p.backend, "PointsHistory", func(ctx context.Context) (*nexus.Page[nexus.PointsTransaction], error) {
		return p.api(s).Points.History(ctx, q)
	})
}

// Ranks возвращает прогресс по рангам.
func (p *PortalServiceImpl) Ranks(ctx context.Context, s *session.Session) (*nexus.RankProgress, error) {
	return resilience.Read(ctx, p.backend, "Ranks", func(ctx context.Context) (*nexus.RankProgress, error) {
		return p.api(s).Points.Ranks(ctx)
	})
}

// Payments возвращает страницу платежей.
func (p *PortalServiceImpl) Payments(ctx context.Context, s *session.Session, f nexus.PaymentFilter) (*nexus.Page[nexus.Payment], error) {
	return resilience.Read(ctx, p.backend, "Payments", func(ctx context.Context) (*nexus.Page[nexus.Payment], error) {
		return p.api(s).Payments.List(ctx, f)
	})
}

// CreatePayment передает форму платежа бэкенду без изменений.
func (p *PortalServiceImpl) CreatePayment(ctx context.Context, s *session.Session, body []byte, contentType string) (*nexus.Payment, error) {
	return resilience.Write(ctx, p.backend, "CreatePayment", func(ctx context.Context) (*nexus.Payment, error) {
		return p.api(s).Payments.Forward(ctx, apiclient.NewRawMultipart(body, contentType))
	})
}

// Withdrawals возвращает страницу заявок на вывод.
func (p *PortalServiceImpl) Withdrawals(ctx context.Context, s *session.Session, f nexus.WithdrawalFilter) (*nexus.Page[nexus.Withdrawal], error) {
	return resilience.Read(ctx, p.backend, "Withdrawals", func(ctx context.Context) (*nexus.Page[nexus.Withdrawal], error) {
		return p.api(s).Withdrawals.List(ctx, f)
	})
}

// CreateWithdrawal создает заявку на вывод.
func (p *PortalServiceImpl) CreateWithdrawal(ctx context.Context, s *session.Session, amount float64, reason string) (*nexus.Withdrawal, error) {
	return resilience.Write(ctx, p.backend, "CreateWithdrawal", func(ctx context.Context) (*nexus.Withdrawal, error) {
		return p.api(s).Withdrawals.Create(ctx, amount, reason)
	})
}

// Leads возвращает страницу лидов.
func (p *PortalServiceImpl) Leads(ctx context.Context, s *session.Session, f nexus.LeadFilter) (*nexus.Page[nexus.Lead], error) {
	return resilience.Read(ctx, p.backend, "Leads", func(ctx context.Context) (*nexus.Page[nexus.Lead], error) {
		return p.api(s).Leads.List(ctx, f)
	})
}

// UpdateLeadStatus меняет статус лида.
func (p *PortalServiceImpl) UpdateLeadStatus(ctx context.Context, s *session.Session, id, status, notes string) (*nexus.Lead, error) {
	return resilience.Write(ctx, p.backend, "UpdateLeadStatus", func(ctx context.Context) (*nexus.Lead, error) {
		return p.api(s).Leads.UpdateStatus(ctx, id, status, notes)
	})
}

// CaptureLead сохраняет лид с публичной формы.
func (p *PortalServiceImpl) CaptureLead(ctx context.Context, in nexus.LeadInput) (*nexus.Lead, error) {
	return resilience.Write(ctx, p.backend, "CaptureLead", func(ctx context.Context) (*nexus.Lead, error) {
		return nexus.NewLeadService(p.client).Capture(ctx, in)
	})
}

// CardToken токенизирует карту в Culqi.
func (p *PortalServiceImpl) CardToken(ctx context.Context, card nexus.Card) (*nexus.CardToken, error) {
	if p.culqi == nil {
		logger.Log(ctx).Warn(ctx, LogCulqiDisabled, zap.String("service", "culqi"))
		return nil, &apiclient.Error{Kind: apiclient.KindConfiguration, Message: apiclient.Messages{errMsgCulqiDisabled}}
	}
	return resilience.Write(ctx, p.payment, "CardToken", func(ctx context.Context) (*nexus.CardToken, error) {
		return p.culqi.CreateToken(ctx, card)
	})
}
