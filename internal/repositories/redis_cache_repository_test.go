package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/dch2rfzbnb-cmyk/nano-crm/pkg/errors"
)

// Промах кеша обязан выглядеть одинаково для всех реализаций интерфейса:
// потребители различают только apperrors.ErrNotFound.
func TestRedisMissMapsToNotFound(t *testing.T) {
	assert.ErrorIs(t, missToNotFound(redis.Nil), apperrors.ErrNotFound)
	assert.ErrorIs(t, missToNotFound(fmt.Errorf("чтение ключа: %w", redis.Nil)), apperrors.ErrNotFound)

	other := errors.New("connection refused")
	assert.Equal(t, other, missToNotFound(other))
	assert.NoError(t, missToNotFound(nil))
}
