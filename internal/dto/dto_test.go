package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvestmentResponse(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	paid := start.Add(domain.PayoutPeriod)

	tests := []struct {
		name       string
		inv        domain.Investment
		nextPayout time.Time
	}{
		{
			name:       "Never paid",
			inv:        domain.Investment{ID: 1, Plan: domain.Plan20, Amount: decimal.NewFromInt(20), StartDate: start, Active: true},
			nextPayout: start.Add(domain.PayoutPeriod),
		},
		{
			name:       "Paid once",
			inv:        domain.Investment{ID: 2, Plan: domain.Plan5, Amount: decimal.NewFromInt(5), StartDate: start, LastPayout: &paid, Active: true},
			nextPayout: paid.Add(domain.PayoutPeriod),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewInvestmentResponse(tt.inv)
			assert.Equal(t, tt.inv.ID, resp.ID)
			assert.Equal(t, string(tt.inv.Plan), resp.Plan)
			assert.Equal(t, tt.nextPayout, resp.NextPayout)
		})
	}
}

func TestInvestRequestAcceptsNumbersAndStrings(t *testing.T) {
	for _, body := range []string{`{"amount":20}`, `{"amount":"20"}`} {
		var req InvestRequestDTO
		require.NoError(t, json.Unmarshal([]byte(body), &req))
		assert.True(t, req.Amount.Equal(decimal.NewFromInt(20)), body)
	}
}

func TestNewReferralsResponse(t *testing.T) {
	joined := time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)
	resp := NewReferralsResponse(&domain.ReferralSummary{
		Code:        "9D2E7A40",
		Referred:    []domain.User{{Username: "rookie", CreatedAt: joined}},
		Earnings:    []domain.Transaction{{ID: 3, Type: domain.TransactionReferral, Amount: decimal.RequireFromString("0.5")}},
		TotalEarned: decimal.RequireFromString("0.5"),
	})

	assert.Equal(t, "/api/user/register?ref=9D2E7A40", resp.Link)
	require.Len(t, resp.Referred, 1)
	assert.Equal(t, ReferredUserDTO{Username: "rookie", JoinedAt: joined}, resp.Referred[0])
	require.Len(t, resp.Earnings, 1)
	assert.Equal(t, "referral", resp.Earnings[0].Type)
}
