package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/GlebRadaev/heistledger/internal/dto"
	"github.com/GlebRadaev/heistledger/pkg/utils"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

func NewMock(t *testing.T) (*AuthHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	return handler, service
}

func TestRegisterHandler(t *testing.T) {
	newUser := &domain.User{ID: 1, Username: "newuser", ReferralCode: "9D2E7A40"}

	tests := []struct {
		name          string
		target        string
		body          string
		prepareMock   func(service *MockService)
		expectedCode  int
		expectedError string
	}{
		{
			name:   "Successful registration",
			target: "/api/user/register",
			body:   `{"username":"newuser","email":"new@example.com","password":"password123","phone":"555"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Register(context.Background(), domain.Registration{
					Username: "newuser", Email: "new@example.com", Password: "password123", Phone: "555",
				}).Return(newUser, nil)
				service.EXPECT().GenerateToken(1).Return("some-jwt-token", nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:   "Referral code from the query string",
			target: "/api/user/register?ref=ABC123",
			body:   `{"username":"newuser","email":"new@example.com","password":"password123"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Register(context.Background(), domain.Registration{
					Username: "newuser", Email: "new@example.com", Password: "password123", ReferralCode: "ABC123",
				}).Return(newUser, nil)
				service.EXPECT().GenerateToken(1).Return("some-jwt-token", nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:   "Body referral code wins over the query string",
			target: "/api/user/register?ref=ABC123",
			body:   `{"username":"newuser","email":"new@example.com","password":"password123","referral_code":"XYZ789"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Register(context.Background(), domain.Registration{
					Username: "newuser", Email: "new@example.com", Password: "password123", ReferralCode: "XYZ789",
				}).Return(newUser, nil)
				service.EXPECT().GenerateToken(1).Return("some-jwt-token", nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:   "User already exists",
			target: "/api/user/register",
			body:   `{"username":"existinguser","email":"e@example.com","password":"password123"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Register(context.Background(), gomock.Any()).Return(nil, &domain.DuplicateKeyError{Field: "username"})
			},
			expectedCode:  http.StatusConflict,
			expectedError: "duplicate key: username already taken",
		},
		{
			name:          "Missing fields",
			target:        "/api/user/register",
			body:          `{"username":"  ","email":"e@example.com","password":"password123"}`,
			prepareMock:   func(*MockService) {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Username, email and password are required",
		},
		{
			name:          "Invalid request body",
			target:        "/api/user/register",
			body:          `{invalid json`,
			prepareMock:   func(*MockService) {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid request body",
		},
		{
			name:   "Error generating token",
			target: "/api/user/register",
			body:   `{"username":"newuser","email":"new@example.com","password":"password123"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Register(context.Background(), gomock.Any()).Return(newUser, nil)
				service.EXPECT().GenerateToken(1).Return("", errors.New("token generation error"))
			},
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Error generating token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			req := httptest.NewRequest("POST", tt.target, bytes.NewReader([]byte(tt.body)))
			rr := httptest.NewRecorder()

			handler.Register(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)

			if tt.expectedError != "" {
				var resp utils.Response
				err := json.NewDecoder(rr.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedError, resp.Message)
				return
			}
			assert.Equal(t, "Bearer some-jwt-token", rr.Header().Get("Authorization"))
			var resp dto.RegisterResponseDTO
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, "9D2E7A40", resp.ReferralCode)
		})
	}
}

func TestLoginHandler(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		prepareMock   func(service *MockService)
		expectedCode  int
		expectedError string
	}{
		{
			name: "Successful login",
			body: `{"username":"testuser","password":"password123"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Authenticate(context.Background(), "testuser", "password123").
					Return(&domain.User{ID: 1, Username: "testuser"}, nil)
				service.EXPECT().GenerateToken(1).Return("some-jwt-token", nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Invalid credentials",
			body: `{"username":"testuser","password":"wrong"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Authenticate(context.Background(), "testuser", "wrong").
					Return(nil, domain.ErrInvalidCredentials)
			},
			expectedCode:  http.StatusUnauthorized,
			expectedError: "Invalid credentials",
		},
		{
			name:          "Invalid request body",
			body:          `{invalid json`,
			prepareMock:   func(*MockService) {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid request body",
		},
		{
			name: "Error generating token",
			body: `{"username":"testuser","password":"password123"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Authenticate(context.Background(), "testuser", "password123").
					Return(&domain.User{ID: 1}, nil)
				service.EXPECT().GenerateToken(1).Return("", errors.New("token generation error"))
			},
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Error generating token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			req := httptest.NewRequest("POST", "/api/user/login", bytes.NewReader([]byte(tt.body)))
			rr := httptest.NewRecorder()

			handler.Login(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)
			if tt.expectedError != "" {
				var resp utils.Response
				err := json.NewDecoder(rr.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedError, resp.Message)
				return
			}
			assert.Equal(t, "Bearer some-jwt-token", rr.Header().Get("Authorization"))
		})
	}
}

func TestCheckHandlers(t *testing.T) {
	tests := []struct {
		name         string
		target       string
		call         func(h *AuthHandler) http.HandlerFunc
		prepareMock  func(service *MockService)
		expectedCode int
		expectedBody string
	}{
		{
			name:   "Username taken",
			target: "/api/check_username?username=ghost",
			call:   func(h *AuthHandler) http.HandlerFunc { return h.CheckUsername },
			prepareMock: func(service *MockService) {
				service.EXPECT().UsernameExists(context.Background(), "ghost").Return(true, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `{"exists":true}`,
		},
		{
			name:   "Email free",
			target: "/api/check_email?email=free%40example.com",
			call:   func(h *AuthHandler) http.HandlerFunc { return h.CheckEmail },
			prepareMock: func(service *MockService) {
				service.EXPECT().EmailExists(context.Background(), "free@example.com").Return(false, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `{"exists":false}`,
		},
		{
			name:         "Missing parameter",
			target:       "/api/check_username",
			call:         func(h *AuthHandler) http.HandlerFunc { return h.CheckUsername },
			prepareMock:  func(*MockService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"message":"Missing username"}`,
		},
		{
			name:   "Store failure",
			target: "/api/check_email?email=a%40b.c",
			call:   func(h *AuthHandler) http.HandlerFunc { return h.CheckEmail },
			prepareMock: func(service *MockService) {
				service.EXPECT().EmailExists(context.Background(), "a@b.c").Return(false, errors.New("db error"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"message":"Internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			req := httptest.NewRequest("GET", tt.target, nil)
			rr := httptest.NewRecorder()
			tt.call(handler)(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)
			assert.JSONEq(t, tt.expectedBody, rr.Body.String())
		})
	}
}
