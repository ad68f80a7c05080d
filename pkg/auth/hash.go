package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

//go:generate mockgen -source=hash.go -destination=mock_hash.go -package=auth

var ErrEmptyPassword = errors.New("password cannot be empty")

type HashServiceInterface interface {
	HashPassword(password string) (string, error)
	ComparePassword(hashedPassword, password string) bool
}

// HashService stores credentials as bcrypt hashes. The zero value uses bcrypt.DefaultCost.
type HashService struct {
	Cost int
}

func (b *HashService) cost() int {
	if b.Cost < bcrypt.MinCost || b.Cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return b.Cost
}

// HashPassword fails for empty passwords and for passwords over bcrypt's 72 byte limit.
func (b *HashService) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost())
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (b *HashService) ComparePassword(hashedPassword, password string) bool {
	if hashedPassword == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
