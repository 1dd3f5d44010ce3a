package services

import (
	"context"

	"nexusglobal/internal/nexus"
	"nexusglobal/internal/session"
)

// PortalService - вызовы портала от имени пользователя сессии.
type PortalService interface {
	Profile(ctx context.Context, s *session.Session) (*session.User, error)
	SearchTeam(ctx context.Context, s *session.Session, q nexus.TreeSearch) (*nexus.Page[nexus.TreeUser], error)
	TeamTree(ctx context.Context, s *session.Session, userID string, depth int) (*nexus.TreeNode, error)

	Points(ctx context.Context, s *session.Session) (*nexus.PointsSummary, error)
	PointsHistory(ctx context.Context, s *session.Session, q nexus.PageQuery) (*nexus.Page[nexus.PointsTransaction], error)
	Ranks(ctx context.Context, s *session.Session) (*nexus.RankProgress, error)

	Payments(ctx context.Context, s *session.Session, f nexus.PaymentFilter) (*nexus.Page[nexus.Payment], error)
	CreatePayment(ctx context.Context, s *session.Session, body []byte, contentType string) (*nexus.Payment, error)

	Withdrawals(ctx context.Context, s *session.Session, f nexus.WithdrawalFilter) (*nexus.Page[nexus.Withdrawal], error)
	CreateWithdrawal(ctx context.Context, s *session.Session, amount float64, reason string) (*nexus.Withdrawal, error)

	Leads(ctx context.Context, s *session.Session, f nexus.LeadFilter) (*nexus.Page[nexus.Lead], error)
	UpdateLeadStatus(ctx context.Context, s *session.Session, id, status, notes string) (*nexus.Lead, error)
	CaptureLead(ctx context.Context, in nexus.LeadInput) (*nexus.Lead, error)

	CardToken(ctx context.Context, card nexus.Card) (*nexus.CardToken, error)
}
