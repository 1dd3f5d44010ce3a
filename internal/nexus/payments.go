package nexus

import (
	"context"
	"io"
	"strconv"
	"time"

	"nexusglobal/internal/apiclient"
)

// EndpointPayments - платежи пользователя.
const EndpointPayments = "/api/payments"

// Payment - платеж с ваучером.
type Payment struct {
	ID              int       `json:"id"`
	Amount          float64   `json:"amount"`
	Status          string    `json:"status"`
	PaymentMethod   string    `json:"paymentMethod"`
	OperationCode   string    `json:"operationCode,omitempty"`
	BankName        string    `json:"bankName,omitempty"`
	RejectionReason string    `json:"rejectionReason,omitempty"`
	ConfigCode      string    `json:"configCode,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// PaymentFilter - фильтр списка платежей.
type PaymentFilter struct {
	Status string
	PageQuery
}

// CreatePayment - данные нового платежа.
type CreatePayment struct {
	PaymentConfigID int
	Amount          float64
	PaymentMethod   string
	OperationCode   string
	BankName        string
	Notes           string
}

// Voucher - изображение подтверждения оплаты.
type Voucher struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// PaymentService - платежи.
type PaymentService struct {
	client *apiclient.Client
}

// NewPaymentService создает PaymentService.
func NewPaymentService(client *apiclient.Client) *PaymentService {
	return &PaymentService{client: client}
}

// List возвращает страницу платежей.
func (s *PaymentService) List(ctx context.Context, f PaymentFilter) (*Page[Payment], error) {
	var out Page[Payment]
	params := f.params(map[string]any{"status": f.Status})
	if err := s.client.Get(ctx, EndpointPayments, &out, apiclient.WithParams(params)); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create отправляет платеж и ваучеры одним multipart запросом.
func (s *PaymentService) Create(ctx context.Context, p CreatePayment, vouchers ...Voucher) (*Payment, error) {
	if p.Amount <= 0 {
		return nil, requiredError("amount")
	}
	if len(vouchers) == 0 {
		return nil, requiredError("voucher")
	}

	fields := map[string]string{
		"paymentConfigId": strconv.Itoa(p.PaymentConfigID),
		"amount":          strconv.FormatFloat(p.Amount, 'f', 2, 64),
		"paymentMethod":   p.PaymentMethod,
	}
	optional := map[string]string{
		"operationCode": p.OperationCode,
		"bankName":      p.BankName,
		"notes":         p.Notes,
	}
	for k, v := range optional {
		if v != "" {
			fields[k] = v
		}
	}

	files := make([]apiclient.FormFile, 0, len(vouchers))
	for _, v := range vouchers {
		files = append(files, apiclient.FormFile{
			Field:       "vouchers",
			Name:        v.Name,
			ContentType: v.ContentType,
			Content:     v.Content,
		})
	}

	body, err := apiclient.NewMultipart(fields, files...)
	if err != nil {
		return nil, err
	}

	var out Payment
	if err := s.client.Post(ctx, EndpointPayments, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Forward отправляет уже собранное multipart тело без разбора. Используется
// шлюзом, который передает форму браузера бэкенду как есть.
func (s *PaymentService) Forward(ctx context.Context, body *apiclient.Multipart) (*Payment, error) {
	if body == nil || body.Len() == 0 {
		return nil, requiredError("multipart body")
	}

	var out Payment
	if err := s.client.Post(ctx, EndpointPayments, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
