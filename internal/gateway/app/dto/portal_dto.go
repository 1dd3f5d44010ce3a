package dto

// WithdrawalRequest - заявка на вывод.
type WithdrawalRequest struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

// LeadStatusRequest - смена статуса лида.
type LeadStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}
