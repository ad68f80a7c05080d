package handlers

import (
	"net/http"

	_ "github.com/GlebRadaev/heistledger/docs"
	authhandlers "github.com/GlebRadaev/heistledger/internal/handlers/auth"
	balancehandlers "github.com/GlebRadaev/heistledger/internal/handlers/balance"
	dashboardhandlers "github.com/GlebRadaev/heistledger/internal/handlers/dashboard"
	investmenthandlers "github.com/GlebRadaev/heistledger/internal/handlers/investments"
	referralhandlers "github.com/GlebRadaev/heistledger/internal/handlers/referrals"
	"github.com/GlebRadaev/heistledger/internal/service"
	"github.com/GlebRadaev/heistledger/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:generate mockgen -source=handlers.go -destination=mock_handlers.go -package=handlers

type AuthHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	CheckUsername(w http.ResponseWriter, r *http.Request)
	CheckEmail(w http.ResponseWriter, r *http.Request)
}

type InvestmentHandler interface {
	OpenInvestment(w http.ResponseWriter, r *http.Request)
	GetInvestments(w http.ResponseWriter, r *http.Request)
	Pay(w http.ResponseWriter, r *http.Request)
}

type BalanceHandler interface {
	GetBalance(w http.ResponseWriter, r *http.Request)
	Withdraw(w http.ResponseWriter, r *http.Request)
	GetTransactions(w http.ResponseWriter, r *http.Request)
}

type ReferralHandler interface {
	GetReferrals(w http.ResponseWriter, r *http.Request)
}

type DashboardHandler interface {
	GetDashboard(w http.ResponseWriter, r *http.Request)
	SubmitKYC(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	AuthHandler       AuthHandler
	InvestmentHandler InvestmentHandler
	BalanceHandler    BalanceHandler
	ReferralHandler   ReferralHandler
	DashboardHandler  DashboardHandler
	authenticate      func(http.Handler) http.Handler
}

func New(s *service.Services) *Handlers {
	return &Handlers{
		AuthHandler:       authhandlers.New(s.AuthService),
		InvestmentHandler: investmenthandlers.New(s.InvestmentService),
		BalanceHandler:    balancehandlers.New(s.BalanceService),
		ReferralHandler:   referralhandlers.New(s.ReferralService),
		DashboardHandler:  dashboardhandlers.New(s.AuthService, s.InvestmentService, s.BalanceService, s.ReferralService),
		authenticate:      auth.Middleware(s.JWTService),
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Get("/api/check_username", h.AuthHandler.CheckUsername)
	r.Get("/api/check_email", h.AuthHandler.CheckEmail)

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", h.AuthHandler.Register)
		r.Post("/login", h.AuthHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)
			r.Route("/investments", func(r chi.Router) {
				r.Post("/", h.InvestmentHandler.OpenInvestment)
				r.Get("/", h.InvestmentHandler.GetInvestments)
			})
			r.Post("/payments/{transactionID}", h.InvestmentHandler.Pay)
			r.Route("/balance", func(r chi.Router) {
				r.Get("/", h.BalanceHandler.GetBalance)
				r.Post("/withdraw", h.BalanceHandler.Withdraw)
			})
			r.Get("/transactions", h.BalanceHandler.GetTransactions)
			r.Get("/referrals", h.ReferralHandler.GetReferrals)
			r.Get("/dashboard", h.DashboardHandler.GetDashboard)
			r.Post("/kyc", h.DashboardHandler.SubmitKYC)
		})
	})

	return r
}
