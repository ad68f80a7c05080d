// Package apierr maps domain errors onto HTTP responses.
package apierr

import (
	"errors"
	"net/http"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/GlebRadaev/heistledger/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const internalMessage = "Internal server error"

func Status(err error) int {
	switch {
	case errors.Is(err, domain.ErrDuplicateKey),
		errors.Is(err, domain.ErrInvalidTransactionState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidPlan),
		errors.Is(err, domain.ErrUnsupportedPaymentMethod),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidCardNumber),
		errors.Is(err, bcrypt.ErrPasswordTooLong):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// Respond writes err with its mapped status. Unmapped errors are logged and hidden.
func Respond(w http.ResponseWriter, err error) {
	code := Status(err)
	if code == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
		utils.RespondWithError(w, code, internalMessage)
		return
	}
	utils.RespondWithError(w, code, err.Error())
}
