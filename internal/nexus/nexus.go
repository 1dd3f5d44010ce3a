// Package nexus описывает типизированные вызовы бэкенда NEXUS поверх apiclient.
package nexus

import (
	"errors"
	"fmt"

	"nexusglobal/internal/apiclient"
)

// ErrInvalidArgument - аргумент вызова не прошел проверку до отправки запроса.
var ErrInvalidArgument = errors.New("invalid argument")

func requiredError(field string) error {
	return fmt.Errorf("%w: %s is required", ErrInvalidArgument, field)
}

// Metadata - сведения о странице списка.
type Metadata struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Page - страница списка.
type Page[T any] struct {
	Results  []T      `json:"results"`
	Metadata Metadata `json:"metadata"`
}

// PageQuery - номер и размер страницы. Нулевые значения не отправляются.
type PageQuery struct {
	Page  int
	Limit int
}

func (q PageQuery) params(extra map[string]any) map[string]any {
	params := make(map[string]any, len(extra)+2)
	if q.Page > 0 {
		params["page"] = q.Page
	}
	if q.Limit > 0 {
		params["limit"] = q.Limit
	}
	for k, v := range extra {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		params[k] = v
	}
	return params
}

// API объединяет сервисы бэкенда, работающие через один клиент.
type API struct {
	Auth        *AuthService
	Team        *TeamService
	Points      *PointsService
	Payments    *PaymentService
	Withdrawals *WithdrawalService
	Leads       *LeadService
}

// New создает набор сервисов поверх client.
func New(client *apiclient.Client) *API {
	return &API{
		Auth:        NewAuthService(client),
		Team:        NewTeamService(client),
		Points:      NewPointsService(client),
		Payments:    NewPaymentService(client),
		Withdrawals: NewWithdrawalService(client),
		Leads:       NewLeadService(client),
	}
}
