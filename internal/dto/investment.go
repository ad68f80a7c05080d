package dto

import (
	"time"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/shopspring/decimal"
)

// InvestRequestDTO names a plan, an amount, or both; when both are given they must agree.
type InvestRequestDTO struct {
	Plan   string          `json:"plan,omitempty" example:"20"`
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"20"`
}

type InvestmentResponseDTO struct {
	ID         int             `json:"id" example:"1"`
	Plan       string          `json:"plan" example:"20"`
	Amount     decimal.Decimal `json:"amount" swaggertype:"string" example:"20"`
	StartDate  time.Time       `json:"start_date" example:"2024-03-01T12:00:00Z"`
	LastPayout *time.Time      `json:"last_payout,omitempty"`
	NextPayout time.Time       `json:"next_payout" example:"2024-03-08T12:00:00Z"`
	Active     bool            `json:"active" example:"true"`
}

type OpenInvestmentResponseDTO struct {
	Investment InvestmentResponseDTO  `json:"investment"`
	Deposit    TransactionResponseDTO `json:"deposit"`
}

type PaymentRequestDTO struct {
	PaymentMethod string `json:"payment_method" example:"visa"`
	CardNumber    string `json:"card_number,omitempty" example:"4111111111111111"`
}

type TransactionResponseDTO struct {
	ID            int             `json:"id" example:"10"`
	Reference     string          `json:"reference" example:"INV-4F1C2B9A7D"`
	Type          string          `json:"type" example:"deposit"`
	Status        string          `json:"status" example:"pending"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string" example:"20"`
	PaymentMethod string          `json:"payment_method" example:"pending"`
	InvestmentID  *int            `json:"investment_id,omitempty" example:"1"`
	CreatedAt     time.Time       `json:"created_at" example:"2024-03-01T12:00:00Z"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

func NewInvestmentResponse(inv domain.Investment) InvestmentResponseDTO {
	return InvestmentResponseDTO{
		ID:         inv.ID,
		Plan:       string(inv.Plan),
		Amount:     inv.Amount,
		StartDate:  inv.StartDate,
		LastPayout: inv.LastPayout,
		NextPayout: inv.DueSince().Add(domain.PayoutPeriod),
		Active:     inv.Active,
	}
}

func NewInvestmentsResponse(invs []domain.Investment) []InvestmentResponseDTO {
	out := make([]InvestmentResponseDTO, len(invs))
	for i, inv := range invs {
		out[i] = NewInvestmentResponse(inv)
	}
	return out
}

func NewTransactionResponse(tx domain.Transaction) TransactionResponseDTO {
	return TransactionResponseDTO{
		ID:            tx.ID,
		Reference:     tx.Reference,
		Type:          string(tx.Type),
		Status:        string(tx.Status),
		Amount:        tx.Amount,
		PaymentMethod: string(tx.PaymentMethod),
		InvestmentID:  tx.InvestmentID,
		CreatedAt:     tx.CreatedAt,
		CompletedAt:   tx.CompletedAt,
	}
}

func NewTransactionsResponse(txs []domain.Transaction) []TransactionResponseDTO {
	out := make([]TransactionResponseDTO, len(txs))
	for i, tx := range txs {
		out[i] = NewTransactionResponse(tx)
	}
	return out
}
