package balance

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/GlebRadaev/heistledger/internal/dto"
	"github.com/GlebRadaev/heistledger/internal/handlers/apierr"
	"github.com/GlebRadaev/heistledger/pkg/auth"
	"github.com/GlebRadaev/heistledger/pkg/utils"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=balance.go -destination=mock_balance.go -package=balance

const (
	defaultTransactionsLimit = 50
	maxTransactionsLimit     = 500
)

type Service interface {
	AvailableBalance(ctx context.Context, userID int) (decimal.Decimal, error)
	RequestWithdrawal(ctx context.Context, userID int, amount decimal.Decimal, paymentMethod string) (*domain.Transaction, error)
	RecentTransactions(ctx context.Context, userID int, limit int) ([]domain.Transaction, error)
}

type BalanceHandler struct {
	balanceService Service
}

func New(balanceService Service) *BalanceHandler {
	return &BalanceHandler{
		balanceService: balanceService,
	}
}

// GetBalance godoc
//
//	@Summary		Get available balance
//	@Description	Sum of payouts and referral bonuses credited to the authenticated user.
//	@Tags			Balance
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.BalanceResponseDTO	"Available balance"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/user/balance [get]
func (h *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	available, err := h.balanceService.AvailableBalance(r.Context(), userID)
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.BalanceResponseDTO{Available: available})
}

// Withdraw godoc
//
//	@Summary		Request a withdrawal
//	@Description	Record a pending withdrawal no larger than the available balance.
//	@Tags			Balance
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.WithdrawRequestDTO		true	"Withdrawal request payload"
//	@Success		202		{object}	dto.TransactionResponseDTO	"Pending withdrawal"
//	@Failure		400		{object}	utils.Response				"Invalid request body"
//	@Failure		401		{object}	utils.Response				"User not authorized"
//	@Failure		402		{object}	utils.Response				"Insufficient balance"
//	@Failure		422		{object}	utils.Response				"Invalid amount or method"
//	@Failure		500		{object}	utils.Response				"Internal server error"
//	@Router			/api/user/balance/withdraw [post]
func (h *BalanceHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	var req dto.WithdrawRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	method := strings.ToLower(strings.TrimSpace(req.Method))
	withdrawal, err := h.balanceService.RequestWithdrawal(r.Context(), userID, req.Amount, method)
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusAccepted, dto.NewTransactionResponse(*withdrawal))
}

// GetTransactions godoc
//
//	@Summary	Transaction history
//	@Tags		Balance
//	@Security	BearerAuth
//	@Produce	json
//	@Param		limit	query		int							false	"Maximum number of transactions"
//	@Success	200		{array}		dto.TransactionResponseDTO	"Newest first"
//	@Failure	400		{object}	utils.Response				"Invalid limit"
//	@Failure	401		{object}	utils.Response				"User not authorized"
//	@Failure	500		{object}	utils.Response				"Internal server error"
//	@Router		/api/user/transactions [get]
func (h *BalanceHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	limit := defaultTransactionsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, maxTransactionsLimit)
	}

	txs, err := h.balanceService.RecentTransactions(r.Context(), userID, limit)
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTransactionsResponse(txs))
}
