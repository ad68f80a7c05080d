package referrals

import (
	"context"
	"net/http"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/GlebRadaev/heistledger/internal/dto"
	"github.com/GlebRadaev/heistledger/internal/handlers/apierr"
	"github.com/GlebRadaev/heistledger/pkg/auth"
	"github.com/GlebRadaev/heistledger/pkg/utils"
)

//go:generate mockgen -source=referrals.go -destination=mock_referrals.go -package=referrals

type Service interface {
	Summary(ctx context.Context, userID int) (*domain.ReferralSummary, error)
}

type ReferralHandler struct {
	referralService Service
}

func New(referralService Service) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

// GetReferrals godoc
//
//	@Summary	Referral summary
//	@Tags		Referrals
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	dto.ReferralsResponseDTO	"Code, referred users and earnings"
//	@Failure	401	{object}	utils.Response				"User not authorized"
//	@Failure	404	{object}	utils.Response				"User not found"
//	@Failure	500	{object}	utils.Response				"Internal server error"
//	@Router		/api/user/referrals [get]
func (h *ReferralHandler) GetReferrals(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	summary, err := h.referralService.Summary(r.Context(), userID)
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewReferralsResponse(summary))
}
