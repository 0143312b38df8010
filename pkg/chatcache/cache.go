package chatcache

import "sync"

// Cache is a State shared between goroutines
type Cache struct {
	mu    sync.RWMutex
	state State
	subs  []func(State)
}

func New(self string) *Cache {
	return &Cache{state: NewState(self)}
}

// Dispatch reduces a into the cache and returns the new state
func (c *Cache) Dispatch(actions ...Action) State {
	c.mu.Lock()
	for _, a := range actions {
		c.state = Reduce(c.state, a)
	}
	state := c.state
	subs := c.subs
	c.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
	return state
}

// State returns the current snapshot
func (c *Cache) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// OnChange registers fn to receive every state produced by Dispatch
func (c *Cache) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}
