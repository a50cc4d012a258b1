package services

import (
	"context"
	"crypto/subtle"

	"go.uber.org/zap"

	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/repositories"
	apperrors "github.com/dch2rfzbnb-cmyk/nano-crm/pkg/errors"
)

type AuthServiceInterface interface {
	IsAuthorized(ctx context.Context, userID int64) (bool, error)
	CheckPin(ctx context.Context, userID int64, pin string) error
}

// AuthService — одноразовая PIN-авторизация: совпавший PIN запоминается
// навсегда, дальше пользователь работает без проверок.
type AuthService struct {
	authRepo repositories.AuthRepositoryInterface
	pin      string
	logger   *zap.Logger
}

func NewAuthService(authRepo repositories.AuthRepositoryInterface, pin string, logger *zap.Logger) *AuthService {
	return &AuthService{authRepo: authRepo, pin: pin, logger: logger}
}

func (s *AuthService) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	return s.authRepo.IsAuthorized(ctx, userID)
}

func (s *AuthService) CheckPin(ctx context.Context, userID int64, pin string) error {
	if subtle.ConstantTimeCompare([]byte(pin), []byte(s.pin)) != 1 {
		s.logger.Warn("неверный PIN", zap.Int64("user_id", userID))
		return apperrors.ErrWrongPin
	}
	if err := s.authRepo.Authorize(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("пользователь авторизован", zap.Int64("user_id", userID))
	return nil
}
