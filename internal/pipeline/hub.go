package pipeline

import "sync"

// Hub keeps one orchestrator per view so refreshing one view never
// supersedes a load of another.
type Hub struct {
	mu    sync.Mutex
	build func() *Orchestrator
	views map[string]*Orchestrator
}

func NewHub(build func() *Orchestrator) *Hub {
	return &Hub{build: build, views: map[string]*Orchestrator{}}
}

// For returns the orchestrator of a view, creating it on first use.
func (h *Hub) For(view string) *Orchestrator {
	h.mu.Lock()
	defer h.mu.Unlock()
	o, ok := h.views[view]
	if !ok {
		o = h.build()
		h.views[view] = o
	}
	return o
}

// Invalidate empties every view's cache and returns the entries dropped.
func (h *Hub) Invalidate() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, o := range h.views {
		n += o.Invalidate()
	}
	return n
}
