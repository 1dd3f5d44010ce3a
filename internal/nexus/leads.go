package nexus

import (
	"context"
	"net/url"
	"strings"
	"time"

	"nexusglobal/internal/apiclient"
)

// EndpointLeads - лиды с посадочных страниц.
const EndpointLeads = "/api/leads"

// Статусы лида.
const (
	LeadStatusNew       = "NEW"
	LeadStatusContacted = "CONTACTED"
	LeadStatusConverted = "CONVERTED"
	LeadStatusDiscarded = "DISCARDED"
)

// Lead - потенциальный клиент.
type Lead struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Source    string    `json:"source,omitempty"`
	Message   string    `json:"message,omitempty"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// LeadInput - форма захвата лида.
type LeadInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Source   string `json:"source,omitempty"`
	Message  string `json:"message,omitempty"`
}

// LeadFilter - фильтр списка лидов.
type LeadFilter struct {
	Status string
	Search string
	PageQuery
}

type updateLeadStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// LeadService - лиды.
type LeadService struct {
	client *apiclient.Client
}

// NewLeadService создает LeadService.
func NewLeadService(client *apiclient.Client) *LeadService {
	return &LeadService{client: client}
}

// Capture сохраняет лид с публичной формы.
func (s *LeadService) Capture(ctx context.Context, in LeadInput) (*Lead, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.FullName == "" {
		return nil, requiredError("full name")
	}
	if in.Email == "" && in.Phone == "" {
		return nil, requiredError("email or phone")
	}

	var out Lead
	if err := s.client.PublicPost(ctx, EndpointLeads, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List возвращает страницу лидов.
func (s *LeadService) List(ctx context.Context, f LeadFilter) (*Page[Lead], error) {
	var out Page[Lead]
	params := f.params(map[string]any{"status": f.Status, "search": f.Search})
	if err := s.client.Get(ctx, EndpointLeads, &out, apiclient.WithParams(params)); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus меняет статус лида.
func (s *LeadService) UpdateStatus(ctx context.Context, id, status, notes string) (*Lead, error) {
	if id == "" {
		return nil, requiredError("lead id")
	}
	if status == "" {
		return nil, requiredError("status")
	}

	var out Lead
	endpoint := EndpointLeads + "/" + url.PathEscape(id) + "/status"
	if err := s.client.Patch(ctx, endpoint, updateLeadStatusRequest{Status: status, Notes: notes}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
