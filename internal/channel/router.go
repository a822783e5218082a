package channel

import "sync"

// Router hands out one bus per browser tab. The page surface controller for a
// tab attaches the bus; the relay and the popup look it up to send commands.
type Router struct {
	mu    sync.RWMutex
	buses map[int]*Bus
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{
		buses: make(map[int]*Bus),
	}
}

// Attach returns the bus for a tab, creating it if needed.
func (r *Router) Attach(tabID int) *Bus {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bus, ok := r.buses[tabID]; ok {
		return bus
	}
	bus := NewBus()
	r.buses[tabID] = bus
	return bus
}

// Lookup returns the bus for a tab if one is attached.
func (r *Router) Lookup(tabID int) (*Bus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bus, ok := r.buses[tabID]
	return bus, ok
}

// Detach closes and removes a tab's bus. Pending requests resolve to nil.
func (r *Router) Detach(tabID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bus, ok := r.buses[tabID]; ok {
		bus.Close()
		delete(r.buses, tabID)
	}
}
