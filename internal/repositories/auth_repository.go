package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type AuthRepositoryInterface interface {
	IsAuthorized(ctx context.Context, userID int64) (bool, error)
	Authorize(ctx context.Context, userID int64) error
}

type authRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewAuthRepository(storage *pgxpool.Pool, logger *zap.Logger) AuthRepositoryInterface {
	return &authRepository{storage: storage, logger: logger}
}

func (r *authRepository) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	var authorized bool
	err := r.storage.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM authorized_users WHERE user_id = $1 AND authorized)`,
		userID,
	).Scan(&authorized)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки авторизации: %w", err)
	}
	return authorized, nil
}

// Authorize помечает пользователя как прошедшего PIN-проверку. Повторный
// вызов безвреден.
func (r *authRepository) Authorize(ctx context.Context, userID int64) error {
	_, err := r.storage.Exec(ctx, `
		INSERT INTO authorized_users (user_id, authorized)
		VALUES ($1, TRUE)
		ON CONFLICT (user_id) DO UPDATE SET authorized = TRUE`,
		userID)
	if err != nil {
		return fmt.Errorf("ошибка сохранения авторизации: %w", err)
	}
	return nil
}
