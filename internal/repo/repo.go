package repo

import (
	"github.com/GlebRadaev/heistledger/internal/pg"
	investmentrepo "github.com/GlebRadaev/heistledger/internal/repo/investment-repo"
	payoutrepo "github.com/GlebRadaev/heistledger/internal/repo/payout-repo"
	transactionrepo "github.com/GlebRadaev/heistledger/internal/repo/transaction-repo"
	userrepo "github.com/GlebRadaev/heistledger/internal/repo/user-repo"
)

// Repositories share one connection; calls made inside TxManager.Begin join its transaction.
type Repositories struct {
	UserRepo        *userrepo.Repository
	InvestmentRepo  *investmentrepo.Repository
	TransactionRepo *transactionrepo.Repository
	PayoutRepo      *payoutrepo.Repository
	TxManager       pg.TXManager
}

func New(conn pg.Database, txManager pg.TXManager) *Repositories {
	return &Repositories{
		UserRepo:        userrepo.New(conn),
		InvestmentRepo:  investmentrepo.New(conn),
		TransactionRepo: transactionrepo.New(conn),
		PayoutRepo:      payoutrepo.New(conn),
		TxManager:       txManager,
	}
}
