package nexus

import (
	"context"
	"strings"
	"time"

	"nexusglobal/internal/apiclient"
)

// EndpointWithdrawals - заявки на вывод средств.
const EndpointWithdrawals = "/api/withdrawals"

// Withdrawal - заявка на вывод.
type Withdrawal struct {
	ID              int       `json:"id"`
	Amount          float64   `json:"amount"`
	Status          string    `json:"status"`
	Reason          string    `json:"reason,omitempty"`
	RejectionReason string    `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// WithdrawalFilter - фильтр списка заявок.
type WithdrawalFilter struct {
	Status string
	PageQuery
}

type createWithdrawalRequest struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

// WithdrawalService - вывод средств.
type WithdrawalService struct {
	client *apiclient.Client
}

// NewWithdrawalService создает WithdrawalService.
func NewWithdrawalService(client *apiclient.Client) *WithdrawalService {
	return &WithdrawalService{client: client}
}

// List возвращает страницу заявок.
func (s *WithdrawalService) List(ctx context.Context, f WithdrawalFilter) (*Page[Withdrawal], error) {
	var out Page[Withdrawal]
	params := f.params(map[string]any{"status": f.Status})
	if err := s.client.Get(ctx, EndpointWithdrawals, &out, apiclient.WithParams(params)); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create создает заявку на вывод.
func (s *WithdrawalService) Create(ctx context.Context, amount float64, reason string) (*Withdrawal, error) {
	if amount <= 0 {
		return nil, requiredError("amount")
	}

	var out Withdrawal
	body := createWithdrawalRequest{Amount: amount, Reason: strings.TrimSpace(reason)}
	if err := s.client.Post(ctx, EndpointWithdrawals, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
