package dto

import "github.com/shopspring/decimal"

type BalanceResponseDTO struct {
	Available decimal.Decimal `json:"available" swaggertype:"string" example:"1.5"`
}

type WithdrawRequestDTO struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"0.75"`
	Method string          `json:"method" example:"mtn"`
}
