package repositories

import (
	"context"
	"time"
)

// CacheRepositoryInterface — хранилище короткоживущих состояний диалога
// (ожидание PIN, режимы правки, привязка карточек) и ключей антиспама.
// TTL ключей и есть политика удержания: состояния не накапливаются.
type CacheRepositoryInterface interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key ...string) error
	// SetNX устанавливает ключ, только если его нет; возвращает true при
	// успехе. Используется для кулдауна между сообщениями.
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
}
