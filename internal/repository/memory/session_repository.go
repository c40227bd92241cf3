package memory

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps one value per session id. Entries expire after ttl
// of inactivity so an abandoned session cannot pin memory forever.
type SessionRepository[T any] struct {
	cache *cache.Cache
	// serializes writers so a Delete can never land inside an Update and be
	// undone by its save
	mu sync.Mutex
}

func NewSessionRepository[T any](ttl time.Duration) *SessionRepository[T] {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &SessionRepository[T]{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *SessionRepository[T]) Save(sessionID string, value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Set(sessionID, value, cache.DefaultExpiration)
}

func (r *SessionRepository[T]) Get(sessionID string) (T, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(T), true
	}
	var zero T
	return zero, false
}

// Update applies fn to the stored value and saves the result. It reports
// false, without calling fn, when nothing is stored under sessionID. fn must
// not call back into the repository.
func (r *SessionRepository[T]) Update(sessionID string, fn func(T) T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.Get(sessionID)
	if !ok {
		return false
	}
	r.cache.Set(sessionID, fn(current), cache.DefaultExpiration)
	return true
}

func (r *SessionRepository[T]) Delete(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(sessionID)
}

func (r *SessionRepository[T]) Len() int {
	return r.cache.ItemCount()
}
