package authservice

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/GlebRadaev/heistledger/pkg/auth"
	"go.uber.org/zap"
)

//go:generate mockgen -source=authservice.go -destination=mock_authservice.go -package=authservice

const (
	tokenTTL = 24 * time.Hour
	// maxCodeAttempts bounds referral code regeneration on collision.
	maxCodeAttempts = 5
)

type Repo interface {
	FindByID(ctx context.Context, id int) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id int, at time.Time) error
}

type Service struct {
	userRepo    Repo
	hashService auth.HashServiceInterface
	jwtService  auth.JWTServiceInterface
	now         func() time.Time
	newCode     func() string
}

func New(repo Repo, hashService auth.HashServiceInterface, jwtService auth.JWTServiceInterface) *Service {
	return &Service{
		userRepo:    repo,
		hashService: hashService,
		jwtService:  jwtService,
		now:         func() time.Time { return time.Now().UTC() },
		newCode:     domain.NewReferralCode,
	}
}

func (s *Service) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	taken, err := s.UsernameExists(ctx, reg.Username)
	if err != nil {
		zap.L().Error("can't find user: ", zap.Error(err))
		return nil, err
	}
	if taken {
		zap.L().Info("user already exists", zap.String("username", reg.Username))
		return nil, &domain.DuplicateKeyError{Field: "username"}
	}
	taken, err = s.EmailExists(ctx, reg.Email)
	if err != nil {
		zap.L().Error("can't find user: ", zap.Error(err))
		return nil, err
	}
	if taken {
		zap.L().Info("email already registered", zap.String("email", reg.Email))
		return nil, &domain.DuplicateKeyError{Field: "email"}
	}

	hashedPassword, err := s.hashService.HashPassword(reg.Password)
	if err != nil {
		zap.L().Error("can't hash password: ", zap.Error(err))
		return nil, err
	}

	var referredBy *string
	if code := strings.TrimSpace(reg.ReferralCode); code != "" {
		referredBy = &code
	}

	for attempt := 1; ; attempt++ {
		user, err := s.userRepo.Create(ctx, &domain.User{
			Username:     reg.Username,
			Email:        reg.Email,
			PasswordHash: hashedPassword,
			Phone:        reg.Phone,
			ReferralCode: s.newCode(),
			ReferredBy:   referredBy,
		})
		if err == nil {
			zap.L().Info("user successfully registered", zap.String("username", user.Username), zap.String("referralCode", user.ReferralCode))
			return user, nil
		}

		var dup *domain.DuplicateKeyError
		if errors.As(err, &dup) && dup.Field == "referral_code" && attempt < maxCodeAttempts {
			zap.L().Warn("referral code collision, regenerating", zap.Int("attempt", attempt))
			continue
		}
		zap.L().Error("can't create user: ", zap.Error(err))
		return nil, err
	}
}

// Authenticate checks the credentials and records the login time.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil || user == nil {
		zap.L().Error("invalid credentials", zap.Error(err))
		return nil, domain.ErrInvalidCredentials
	}
	if ok := s.hashService.ComparePassword(user.PasswordHash, password); !ok {
		zap.L().Error("invalid credentials", zap.String("username", username))
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	zap.L().Info("user successfully authenticated", zap.String("username", username))
	return user, nil
}

func (s *Service) GenerateToken(userID int) (string, error) {
	token, err := s.jwtService.GenerateJWT(userID, s.now().Add(tokenTTL))
	if err != nil {
		zap.L().Error("can't generate token: ", zap.Error(err))
		return "", err
	}
	return token, nil
}

func (s *Service) UsernameExists(ctx context.Context, username string) (bool, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

func (s *Service) Profile(ctx context.Context, userID int) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}
