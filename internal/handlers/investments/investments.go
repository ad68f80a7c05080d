package investments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/GlebRadaev/heistledger/internal/dto"
	"github.com/GlebRadaev/heistledger/internal/handlers/apierr"
	"github.com/GlebRadaev/heistledger/pkg/auth"
	"github.com/GlebRadaev/heistledger/pkg/utils"
	"github.com/GlebRadaev/heistledger/pkg/validate"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=investments.go -destination=mock_investments.go -package=investments

type Service interface {
	OpenInvestment(ctx context.Context, userID int, amount decimal.Decimal) (*domain.Investment, *domain.Transaction, error)
	ActiveInvestments(ctx context.Context, userID int) ([]domain.Investment, error)
	CompleteDeposit(ctx context.Context, userID, transactionID int, paymentMethod string) (*domain.Transaction, error)
}

type InvestmentHandler struct {
	investmentService Service
}

func New(investmentService Service) *InvestmentHandler {
	return &InvestmentHandler{
		investmentService: investmentService,
	}
}

// OpenInvestment godoc
//
//	@Summary		Open an investment
//	@Description	Create an investment on one of the fixed plans together with its pending deposit.
//	@Tags			Investments
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.InvestRequestDTO			true	"Plan or amount"
//	@Success		201		{object}	dto.OpenInvestmentResponseDTO	"Investment and pending deposit"
//	@Failure		400		{object}	utils.Response					"Invalid request body"
//	@Failure		401		{object}	utils.Response					"User not authorized"
//	@Failure		422		{object}	utils.Response					"Unknown plan"
//	@Failure		500		{object}	utils.Response					"Internal server error"
//	@Router			/api/user/investments [post]
func (h *InvestmentHandler) OpenInvestment(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	var req dto.InvestRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	amount, err := planAmount(req)
	if err != nil {
		apierr.Respond(w, err)
		return
	}

	inv, deposit, err := h.investmentService.OpenInvestment(r.Context(), userID, amount)
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.OpenInvestmentResponseDTO{
		Investment: dto.NewInvestmentResponse(*inv),
		Deposit:    dto.NewTransactionResponse(*deposit),
	})
}

func planAmount(req dto.InvestRequestDTO) (decimal.Decimal, error) {
	if req.Plan == "" {
		return req.Amount, nil
	}
	plan, err := domain.ParsePlan(strings.TrimSpace(req.Plan))
	if err != nil {
		return decimal.Zero, err
	}
	if !req.Amount.IsZero() && !req.Amount.Equal(plan.Amount()) {
		return decimal.Zero, fmt.Errorf("%w: plan %s does not cost %s", domain.ErrInvalidPlan, plan, req.Amount)
	}
	return plan.Amount(), nil
}

// GetInvestments godoc
//
//	@Summary	List active investments
//	@Tags		Investments
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{array}		dto.InvestmentResponseDTO	"Active investments"
//	@Failure	401	{object}	utils.Response				"User not authorized"
//	@Failure	500	{object}	utils.Response				"Internal server error"
//	@Router		/api/user/investments [get]
func (h *InvestmentHandler) GetInvestments(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	investments, err := h.investmentService.ActiveInvestments(r.Context(), userID)
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewInvestmentsResponse(investments))
}

// Pay godoc
//
//	@Summary		Complete a pending deposit
//	@Description	Confirm payment of a pending deposit. A Visa card number, when given, must pass the Luhn check.
//	@Tags			Investments
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			transactionID	path		int						true	"Deposit transaction id"
//	@Param			request			body		dto.PaymentRequestDTO	true	"Payment method"
//	@Success		200				{object}	dto.TransactionResponseDTO	"Completed deposit"
//	@Failure		400				{object}	utils.Response			"Invalid request"
//	@Failure		401				{object}	utils.Response			"User not authorized"
//	@Failure		404				{object}	utils.Response			"Transaction not found"
//	@Failure		409				{object}	utils.Response			"Transaction is not a pending deposit"
//	@Failure		422				{object}	utils.Response			"Unsupported payment method"
//	@Failure		500				{object}	utils.Response			"Internal server error"
//	@Router			/api/user/payments/{transactionID} [post]
func (h *InvestmentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	transactionID, err := strconv.Atoi(chi.URLParam(r, "transactionID"))
	if err != nil || transactionID <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	var req dto.PaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method == string(domain.MethodVisa) && req.CardNumber != "" && !validate.IsLuhn(req.CardNumber) {
		apierr.Respond(w, domain.ErrInvalidCardNumber)
		return
	}

	deposit, err := h.investmentService.CompleteDeposit(r.Context(), userID, transactionID, method)
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTransactionResponse(*deposit))
}
