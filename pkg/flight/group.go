package flight

import "sync"

// Group rejects a second caller for a key while the first still holds it.
// Unlike a coalescing single-flight, the loser is refused rather than queued.
// The zero value is ready to use.
type Group struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// Acquire claims key. When ok is false the key is already held and release
// is nil. release is safe to call more than once.
func (g *Group) Acquire(key string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == nil {
		g.active = make(map[string]struct{})
	}
	if _, held := g.active[key]; held {
		return nil, false
	}
	g.active[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, key)
			g.mu.Unlock()
		})
	}, true
}

func (g *Group) Active(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, held := g.active[key]
	return held
}
