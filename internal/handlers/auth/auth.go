package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/GlebRadaev/heistledger/internal/dto"
	"github.com/GlebRadaev/heistledger/internal/handlers/apierr"
	"github.com/GlebRadaev/heistledger/pkg/utils"
)

//go:generate mockgen -source=auth.go -destination=mock_auth.go -package=auth

type Service interface {
	Register(ctx context.Context, reg domain.Registration) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GenerateToken(userID int) (string, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type AuthHandler struct {
	authService Service
}

func New(authService Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register godoc
//
//	@Summary		Register a new user
//	@Description	Create an account. A referral code may come in the body or as the ref query parameter.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			ref		query		string					false	"Referral code of the inviting user"
//	@Param			request	body		dto.RegisterRequestDTO	true	"Register request body"
//	@Success		200		{object}	dto.RegisterResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		409		{object}	utils.Response	"Username or email already taken"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/user/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequestDTO
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}
	if req.ReferralCode == "" {
		req.ReferralCode = r.URL.Query().Get("ref")
	}

	user, err := h.authService.Register(r.Context(), domain.Registration{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		Phone:        req.Phone,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	token, err := h.authService.GenerateToken(user.ID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error generating token")
		return
	}
	w.Header().Set("Authorization", "Bearer "+token)
	utils.RespondWithJSON(w, http.StatusOK, dto.RegisterResponseDTO{
		Message:      "User successfully registered",
		ReferralCode: user.ReferralCode,
	})
}

// Login godoc
//
//	@Summary		Authenticate user
//	@Description	Log in with username and password and get a JWT token
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.LoginRequestDTO	true	"Login request body"
//	@Success		200		{object}	dto.LoginResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"Invalid credentials"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/user/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequestDTO
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := h.authService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token, err := h.authService.GenerateToken(user.ID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error generating token")
		return
	}
	w.Header().Set("Authorization", "Bearer "+token)
	utils.RespondWithJSON(w, http.StatusOK, dto.LoginResponseDTO{
		Message: "User successfully authenticated",
	})
}

// CheckUsername godoc
//
//	@Summary	Check whether a username is taken
//	@Tags		Auth
//	@Produce	json
//	@Param		username	query		string	true	"Username to check"
//	@Success	200			{object}	dto.ExistsResponseDTO
//	@Failure	400			{object}	utils.Response	"Missing username"
//	@Failure	500			{object}	utils.Response	"Internal server error"
//	@Router		/api/check_username [get]
func (h *AuthHandler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	h.checkExists(w, r, "username", h.authService.UsernameExists)
}

// CheckEmail godoc
//
//	@Summary	Check whether an email is registered
//	@Tags		Auth
//	@Produce	json
//	@Param		email	query		string	true	"Email to check"
//	@Success	200		{object}	dto.ExistsResponseDTO
//	@Failure	400		{object}	utils.Response	"Missing email"
//	@Failure	500		{object}	utils.Response	"Internal server error"
//	@Router		/api/check_email [get]
func (h *AuthHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	h.checkExists(w, r, "email", h.authService.EmailExists)
}

func (h *AuthHandler) checkExists(w http.ResponseWriter, r *http.Request, param string, exists func(context.Context, string) (bool, error)) {
	value := strings.TrimSpace(r.URL.Query().Get(param))
	if value == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing "+param)
		return
	}
	found, err := exists(r.Context(), value)
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.ExistsResponseDTO{Exists: found})
}
