package service

import (
	"github.com/GlebRadaev/heistledger/internal/config"
	"github.com/GlebRadaev/heistledger/internal/repo"
	authservice "github.com/GlebRadaev/heistledger/internal/service/authservice"
	balanceservice "github.com/GlebRadaev/heistledger/internal/service/balanceservice"
	investmentservice "github.com/GlebRadaev/heistledger/internal/service/investmentservice"
	referralservice "github.com/GlebRadaev/heistledger/internal/service/referralservice"
	pkgauth "github.com/GlebRadaev/heistledger/pkg/auth"
)

type Services struct {
	AuthService       *authservice.Service
	ReferralService   *referralservice.Service
	InvestmentService *investmentservice.Service
	BalanceService    *balanceservice.Service
	JWTService        pkgauth.JWTServiceInterface
}

func New(repo *repo.Repositories, cfg *config.Config) *Services {
	jwtService := pkgauth.NewJWTService(cfg.JWTSecret)

	referralService := referralservice.New(repo.UserRepo, repo.TransactionRepo, cfg.ReferralPolicy)
	investmentService := investmentservice.New(repo.InvestmentRepo, repo.TransactionRepo, repo.UserRepo, referralService, repo.TxManager)
	balanceService := balanceservice.New(repo.PayoutRepo, repo.TransactionRepo)
	authService := authservice.New(repo.UserRepo, &pkgauth.HashService{}, jwtService)

	return &Services{
		AuthService:       authService,
		ReferralService:   referralService,
		InvestmentService: investmentService,
		BalanceService:    balanceService,
		JWTService:        jwtService,
	}
}
