package shared

import (
	"context"
	"fmt"
	"sync"
)

// InventoryLockKey builds redis keys for per-item critical sections.
func InventoryLockKey(itemKey string) string {
	return fmt.Sprintf("inventory:item:%s:lock", itemKey)
}

// KeyedLocker serializes critical sections per key. The inventory averaging
// sequence (read prev avg, compute, write new avg) must not interleave for the
// same item key.
type KeyedLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// KeyedMutex is an in-process KeyedLocker backed by one mutex per key.
type KeyedMutex struct {
	mu sync.Map
}

// NewKeyedMutex constructs a KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{}
}

// Lock acquires the mutex for key and returns its release func.
func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	v, _ := m.mu.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock, nil
}
