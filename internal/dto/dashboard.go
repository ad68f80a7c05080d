package dto

import (
	"time"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/shopspring/decimal"
)

type DashboardResponseDTO struct {
	Username           string                   `json:"username" example:"ghost"`
	Email              string                   `json:"email" example:"ghost@example.com"`
	Verified           bool                     `json:"verified" example:"false"`
	ReferralCode       string                   `json:"referral_code" example:"9D2E7A40"`
	Balance            decimal.Decimal          `json:"balance" swaggertype:"string" example:"1.5"`
	Investments        []InvestmentResponseDTO  `json:"investments"`
	RecentTransactions []TransactionResponseDTO `json:"recent_transactions"`
	ReferralCount      int                      `json:"referral_count" example:"3"`
}

type ReferredUserDTO struct {
	Username string    `json:"username" example:"rookie"`
	JoinedAt time.Time `json:"joined_at" example:"2024-03-02T09:30:00Z"`
}

type ReferralsResponseDTO struct {
	Code        string                   `json:"code" example:"9D2E7A40"`
	Link        string                   `json:"link" example:"/api/user/register?ref=9D2E7A40"`
	Referred    []ReferredUserDTO        `json:"referred"`
	Earnings    []TransactionResponseDTO `json:"earnings"`
	TotalEarned decimal.Decimal          `json:"total_earned" swaggertype:"string" example:"0.5"`
}

func NewReferralsResponse(s *domain.ReferralSummary) ReferralsResponseDTO {
	referred := make([]ReferredUserDTO, len(s.Referred))
	for i, u := range s.Referred {
		referred[i] = ReferredUserDTO{Username: u.Username, JoinedAt: u.CreatedAt}
	}
	return ReferralsResponseDTO{
		Code:        s.Code,
		Link:        "/api/user/register?ref=" + s.Code,
		Referred:    referred,
		Earnings:    NewTransactionsResponse(s.Earnings),
		TotalEarned: s.TotalEarned,
	}
}
