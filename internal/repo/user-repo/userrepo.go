package userrepo

import (
	"context"
	"errors"
	"time"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/GlebRadaev/heistledger/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const userColumns = `id, username, email, password_hash, phone, verified, referral_code, referred_by, created_at, last_login`

var constraintFields = map[string]string{
	"users_username_key":      "username",
	"users_email_key":         "email",
	"users_referral_code_key": "referral_code",
}

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Phone,
		&user.Verified, &user.ReferralCode, &user.ReferredBy, &user.CreatedAt, &user.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (repo *Repository) findOne(ctx context.Context, field, query string, arg any) (*domain.User, error) {
	user, err := scanUser(repo.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find user", zap.String("by", field), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (repo *Repository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	return repo.findOne(ctx, "id", "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

// FindByIDForUpdate locks the user's row until the surrounding transaction ends.
func (repo *Repository) FindByIDForUpdate(ctx context.Context, id int) (*domain.User, error) {
	return repo.findOne(ctx, "id", "SELECT "+userColumns+" FROM users WHERE id = $1 FOR UPDATE", id)
}

func (repo *Repository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return repo.findOne(ctx, "username", "SELECT "+userColumns+" FROM users WHERE username = $1", username)
}

func (repo *Repository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return repo.findOne(ctx, "email", "SELECT "+userColumns+" FROM users WHERE email = $1", email)
}

func (repo *Repository) FindByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	return repo.findOne(ctx, "referral_code", "SELECT "+userColumns+" FROM users WHERE referral_code = $1", code)
}

// FindReferredBy lists users whose referred_by equals code, oldest first.
func (repo *Repository) FindReferredBy(ctx context.Context, code string) ([]domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE referred_by = $1
		ORDER BY created_at ASC
	`
	rows, err := repo.db.Query(ctx, query, code)
	if err != nil {
		zap.L().Error("can't get referred users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			zap.L().Error("can't scan referred user row", zap.Error(err))
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (repo *Repository) CountReferredBy(ctx context.Context, code string) (int, error) {
	var count int
	err := repo.db.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE referred_by = $1", code).Scan(&count)
	if err != nil {
		zap.L().Error("can't count referred users", zap.Error(err))
		return 0, err
	}
	return count, nil
}

// Create inserts the user. Collisions on username, email or referral code are
// reported as *domain.DuplicateKeyError.
func (repo *Repository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, phone, verified, referral_code, referred_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := repo.db.QueryRow(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.Phone, user.Verified, user.ReferralCode, user.ReferredBy,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if constraint, ok := pg.UniqueViolation(err); ok {
			return nil, &domain.DuplicateKeyError{Field: constraintFields[constraint]}
		}
		zap.L().Error("can't save user", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (repo *Repository) UpdateLastLogin(ctx context.Context, id int, at time.Time) error {
	tag, err := repo.db.Exec(ctx, "UPDATE users SET last_login = $1 WHERE id = $2", at, id)
	if err != nil {
		zap.L().Error("can't update last login", zap.Int("userID", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
