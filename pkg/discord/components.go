package discord

import (
	"strings"
	"sync"

	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

const customIDSep = ":"

// CustomID joins a route prefix and its arguments into a component custom id
func CustomID(prefix string, args ...string) string {
	return strings.Join(append([]string{prefix}, args...), customIDSep)
}

// ParseCustomID splits a custom id built by CustomID
func ParseCustomID(id string) (prefix string, args []string) {
	parts := strings.Split(id, customIDSep)
	return parts[0], parts[1:]
}

// ComponentRoute handles the buttons, selects and modals of one prefix
type ComponentRoute struct {
	Level  moderation.Level
	Handle CommandRunFunc
}

// ComponentRouter dispatches component and modal interactions by custom id
// prefix.
type ComponentRouter struct {
	mu     sync.RWMutex
	routes map[string]ComponentRoute
}

// NewComponentRouter creates an empty router
func NewComponentRouter() *ComponentRouter {
	return &ComponentRouter{routes: make(map[string]ComponentRoute)}
}

// Handle registers fn for every custom id starting with prefix
func (r *ComponentRouter) Handle(prefix string, level moderation.Level, fn CommandRunFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[prefix] = ComponentRoute{Level: level, Handle: fn}
}

// Lookup finds the route for a custom id
func (r *ComponentRouter) Lookup(customID string) (ComponentRoute, []string, bool) {
	prefix, args := ParseCustomID(customID)
	r.mu.RLock()
	defer r.mu.RUnlock()
	route, ok := r.routes[prefix]
	return route, args, ok
}

// Size returns the number of registered prefixes
func (r *ComponentRouter) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}
