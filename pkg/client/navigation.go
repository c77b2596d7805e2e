package client

import (
	"context"
	"sync"
)

// Navigation tracks which view is on screen. Entering a view supersedes the
// previous one, so results that arrive for it are dropped.
type Navigation struct {
	mu      sync.Mutex
	current *View
	next    uint64
}

// View is one visit to a screen
type View struct {
	Name       string
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewNavigation creates a navigation tracker with no active view
func NewNavigation() *Navigation {
	return &Navigation{}
}

// Enter opens a new view and leaves the previous one
func (n *Navigation) Enter(name string) *View {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current != nil {
		n.current.cancel()
	}
	n.next++
	ctx, cancel := context.WithCancel(context.Background())
	n.current = &View{Name: name, generation: n.next, ctx: ctx, cancel: cancel}
	return n.current
}

// Leave closes v if it is still the current view
func (n *Navigation) Leave(v *View) {
	n.mu.Lock()
	defer n.mu.Unlock()

	v.cancel()
	if n.current == v {
		n.current = nil
	}
}

// Current returns the active view, or nil
func (n *Navigation) Current() *View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Active reports whether the view is still on screen
func (v *View) Active() bool {
	return v != nil && v.ctx.Err() == nil
}

// Context is cancelled when the view is left
func (v *View) Context() context.Context {
	return v.ctx
}

// Generation orders views; later views have larger numbers
func (v *View) Generation() uint64 {
	return v.generation
}
