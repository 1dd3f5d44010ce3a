package nexus

import (
	"context"
	"strings"
	"time"

	"nexusglobal/internal/apiclient"
)

// Параметры Culqi.
const (
	CulqiDefaultURL = "https://secure.culqi.com"
	EndpointTokens  = "/v2/tokens"
)

// Card - данные карты для токенизации.
type Card struct {
	CardNumber      string `json:"card_number"`
	CVV             string `json:"cvv"`
	ExpirationMonth string `json:"expiration_month"`
	ExpirationYear  string `json:"expiration_year"`
	Email           string `json:"email"`
}

// CardToken - токен карты Culqi.
type CardToken struct {
	Object       string `json:"object"`
	ID           string `json:"id"`
	Type         string `json:"type"`
	Email        string `json:"email"`
	Active       bool   `json:"active"`
	LastFour     string `json:"last_four"`
	CardBrand    string `json:"card_brand,omitempty"`
	CreationDate int64  `json:"creation_date"`
}

// CulqiService создает токены карт. Ответы Culqi не обернуты в конверт,
// успех определяется по HTTP статусу.
type CulqiService struct {
	client *apiclient.Client
}

// NewCulqiService создает клиента Culqi с публичным ключом в постоянном заголовке.
func NewCulqiService(baseURL, publicKey string, timeout time.Duration, opts ...apiclient.Option) (*CulqiService, error) {
	if strings.TrimSpace(publicKey) == "" {
		return nil, &apiclient.Error{Kind: apiclient.KindConfiguration, Message: apiclient.Messages{"culqi public key is not configured"}}
	}
	if baseURL == "" {
		baseURL = CulqiDefaultURL
	}

	opts = append(opts, apiclient.WithHeader("Authorization", "Bearer "+publicKey))
	client, err := apiclient.New(apiclient.Config{Context: apiclient.Server, BaseURL: baseURL, Timeout: timeout}, opts...)
	if err != nil {
		return nil, err
	}
	return &CulqiService{client: client}, nil
}

// CreateToken токенизирует карту.
func (s *CulqiService) CreateToken(ctx context.Context, card Card) (*CardToken, error) {
	card.CardNumber = strings.ReplaceAll(card.CardNumber, " ", "")
	if card.CardNumber == "" {
		return nil, requiredError("card number")
	}
	if card.Email == "" {
		return nil, requiredError("email")
	}

	var out CardToken
	if err := s.client.PublicPost(ctx, EndpointTokens, card, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
