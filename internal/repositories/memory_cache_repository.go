package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/dch2rfzbnb-cmyk/nano-crm/pkg/errors"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCacheRepository — кеш в памяти процесса. Используется в тестах и при
// локальном запуске без Redis; состояния теряются при рестарте.
type MemoryCacheRepository struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryCacheRepository() *MemoryCacheRepository {
	return &MemoryCacheRepository{entries: make(map[string]memoryEntry)}
}

func (m *MemoryCacheRepository) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || expired(e) {
		delete(m.entries, key)
		return "", apperrors.ErrNotFound
	}
	return e.value, nil
}

func (m *MemoryCacheRepository) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: fmt.Sprint(value), expiresAt: deadline(expiration)}
	return nil
}

func (m *MemoryCacheRepository) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *MemoryCacheRepository) SetNX(_ context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok && !expired(e) {
		return false, nil
	}
	m.entries[key] = memoryEntry{value: fmt.Sprint(value), expiresAt: deadline(expiration)}
	return true, nil
}

func expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

func deadline(expiration time.Duration) time.Time {
	if expiration <= 0 {
		return time.Time{}
	}
	return time.Now().Add(expiration)
}
