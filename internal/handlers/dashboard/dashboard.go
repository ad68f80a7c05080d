package dashboard

import (
	"context"
	"io"
	"net/http"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/GlebRadaev/heistledger/internal/dto"
	"github.com/GlebRadaev/heistledger/internal/handlers/apierr"
	"github.com/GlebRadaev/heistledger/pkg/auth"
	"github.com/GlebRadaev/heistledger/pkg/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=dashboard.go -destination=mock_dashboard.go -package=dashboard

const recentTransactions = 5

type ProfileService interface {
	Profile(ctx context.Context, userID int) (*domain.User, error)
}

type InvestmentService interface {
	ActiveInvestments(ctx context.Context, userID int) ([]domain.Investment, error)
}

type BalanceService interface {
	AvailableBalance(ctx context.Context, userID int) (decimal.Decimal, error)
	RecentTransactions(ctx context.Context, userID int, limit int) ([]domain.Transaction, error)
}

type ReferralService interface {
	CountReferred(ctx context.Context, userID int) (int, error)
}

type DashboardHandler struct {
	profiles    ProfileService
	investments InvestmentService
	balances    BalanceService
	referrals   ReferralService
}

func New(profiles ProfileService, investments InvestmentService, balances BalanceService, referrals ReferralService) *DashboardHandler {
	return &DashboardHandler{
		profiles:    profiles,
		investments: investments,
		balances:    balances,
		referrals:   referrals,
	}
}

// GetDashboard godoc
//
//	@Summary		Account overview
//	@Description	Profile, balance, active investments, the five latest transactions and the referral count.
//	@Tags			Dashboard
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.DashboardResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		404	{object}	utils.Response	"User not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/dashboard [get]
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	var (
		user        *domain.User
		balance     decimal.Decimal
		investments []domain.Investment
		txs         []domain.Transaction
		referred    int
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		user, err = h.profiles.Profile(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		balance, err = h.balances.AvailableBalance(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		investments, err = h.investments.ActiveInvestments(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		txs, err = h.balances.RecentTransactions(ctx, userID, recentTransactions)
		return err
	})
	g.Go(func() (err error) {
		referred, err = h.referrals.CountReferred(ctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		apierr.Respond(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dto.DashboardResponseDTO{
		Username:           user.Username,
		Email:              user.Email,
		Verified:           user.Verified,
		ReferralCode:       user.ReferralCode,
		Balance:            balance,
		Investments:        dto.NewInvestmentsResponse(investments),
		RecentTransactions: dto.NewTransactionsResponse(txs),
		ReferralCount:      referred,
	})
}

// SubmitKYC godoc
//
//	@Summary		Submit identity documents
//	@Description	Acknowledges the submission. Documents are not stored and verification status does not change.
//	@Tags			Dashboard
//	@Security		BearerAuth
//	@Accept			multipart/form-data
//	@Produce		json
//	@Success		202	{object}	utils.Response	"Submission received"
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Router			/api/user/kyc [post]
func (h *DashboardHandler) SubmitKYC(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	n, _ := io.Copy(io.Discard, r.Body)
	zap.L().Info("kyc submission received", zap.Int("userID", userID), zap.Int64("bytes", n))
	utils.RespondWithJSON(w, http.StatusAccepted, utils.Response{Message: "KYC submission received"})
}
