package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GlebRadaev/heistledger/internal/config"
	"github.com/GlebRadaev/heistledger/internal/pg"
	"github.com/GlebRadaev/heistledger/internal/repo"
	"github.com/GlebRadaev/heistledger/internal/service"
	"github.com/GlebRadaev/heistledger/pkg/auth"
	"github.com/go-chi/chi/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	services := service.New(repo.New(mockDB, pg.NewMockTXManager(ctrl)), &config.Config{JWTSecret: "test-secret"})

	h := New(services)
	assert.NotNil(t, h, "Handlers should not be nil")
	assert.NotNil(t, h.DashboardHandler)
	assert.NotNil(t, h.authenticate)
}

func TestInitRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)

	mockAuthHandler := NewMockAuthHandler(ctrl)
	mockInvestmentHandler := NewMockInvestmentHandler(ctrl)
	mockBalanceHandler := NewMockBalanceHandler(ctrl)
	mockReferralHandler := NewMockReferralHandler(ctrl)
	mockDashboardHandler := NewMockDashboardHandler(ctrl)

	mockAuthHandler.EXPECT().Register(gomock.Any(), gomock.Any()).AnyTimes()
	mockAuthHandler.EXPECT().Login(gomock.Any(), gomock.Any()).AnyTimes()
	mockAuthHandler.EXPECT().CheckUsername(gomock.Any(), gomock.Any()).AnyTimes()
	mockAuthHandler.EXPECT().CheckEmail(gomock.Any(), gomock.Any()).AnyTimes()
	mockInvestmentHandler.EXPECT().OpenInvestment(gomock.Any(), gomock.Any()).AnyTimes()
	mockInvestmentHandler.EXPECT().GetInvestments(gomock.Any(), gomock.Any()).AnyTimes()
	mockInvestmentHandler.EXPECT().Pay(gomock.Any(), gomock.Any()).AnyTimes()
	mockBalanceHandler.EXPECT().GetBalance(gomock.Any(), gomock.Any()).AnyTimes()
	mockBalanceHandler.EXPECT().Withdraw(gomock.Any(), gomock.Any()).AnyTimes()
	mockBalanceHandler.EXPECT().GetTransactions(gomock.Any(), gomock.Any()).AnyTimes()
	mockReferralHandler.EXPECT().GetReferrals(gomock.Any(), gomock.Any()).AnyTimes()
	mockDashboardHandler.EXPECT().GetDashboard(gomock.Any(), gomock.Any()).AnyTimes()
	mockDashboardHandler.EXPECT().SubmitKYC(gomock.Any(), gomock.Any()).AnyTimes()

	jwtService := auth.NewJWTService("test-secret")
	h := &Handlers{
		AuthHandler:       mockAuthHandler,
		InvestmentHandler: mockInvestmentHandler,
		BalanceHandler:    mockBalanceHandler,
		ReferralHandler:   mockReferralHandler,
		DashboardHandler:  mockDashboardHandler,
		authenticate:      auth.Middleware(jwtService),
	}

	router := chi.NewRouter()
	h.InitRoutes(router)

	token, err := jwtService.GenerateJWT(1, time.Now().Add(time.Hour))
	require.NoError(t, err)

	protected := []struct {
		method string
		url    string
	}{
		{"POST", "/api/user/investments"},
		{"GET", "/api/user/investments"},
		{"POST", "/api/user/payments/10"},
		{"GET", "/api/user/balance"},
		{"POST", "/api/user/balance/withdraw"},
		{"GET", "/api/user/transactions"},
		{"GET", "/api/user/referrals"},
		{"GET", "/api/user/dashboard"},
		{"POST", "/api/user/kyc"},
	}

	for _, tt := range protected {
		t.Run("anonymous "+tt.method+" "+tt.url, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.url, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
		t.Run("authorized "+tt.method+" "+tt.url, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.url, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}

	public := []struct {
		method string
		url    string
	}{
		{"POST", "/api/user/register"},
		{"POST", "/api/user/login"},
		{"GET", "/api/check_username?username=ghost"},
		{"GET", "/api/check_email?email=ghost@example.com"},
		{"GET", "/swagger/doc.json"},
	}

	for _, tt := range public {
		t.Run(tt.method+" "+tt.url, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.url, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}
