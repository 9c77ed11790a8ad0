// Package location models the addressable fragment (#page) of a browsing context.
package location

import (
	"strings"
	"sync"
)

// Location is the part of a browsing context the router reads and writes.
type Location interface {
	// Fragment returns the current fragment without the leading '#'.
	Fragment() string
	// SetFragment changes the fragment. Implementations notify subscribers
	// when the value actually changes.
	SetFragment(fragment string)
	// Subscribe registers fn for fragment change notifications.
	Subscribe(fn func(fragment string)) (unsubscribe func())
}

// Hash is an in-memory browsing context fragment with back/forward history.
type Hash struct {
	mu      sync.Mutex
	history []string
	index   int
	subs    map[int]func(string)
	nextSub int
}

// NewHash returns a Hash positioned at initial.
func NewHash(initial string) *Hash {
	return &Hash{
		history: []string{Clean(initial)},
		subs:    map[int]func(string){},
	}
}

// Clean strips surrounding whitespace and a leading '#'.
func Clean(fragment string) string {
	return strings.TrimPrefix(strings.TrimSpace(fragment), "#")
}

func (h *Hash) Fragment() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.history[h.index]
}

// SetFragment pushes a new history entry, dropping any forward entries.
func (h *Hash) SetFragment(fragment string) {
	fragment = Clean(fragment)
	h.mu.Lock()
	if h.history[h.index] == fragment {
		h.mu.Unlock()
		return
	}
	h.history = append(h.history[:h.index+1], fragment)
	h.index++
	subs := h.snapshot()
	h.mu.Unlock()
	notify(subs, fragment)
}

// Back moves one entry back in history. It reports false at the oldest entry.
func (h *Hash) Back() bool { return h.move(-1) }

// Forward moves one entry forward in history.
func (h *Hash) Forward() bool { return h.move(1) }

func (h *Hash) move(delta int) bool {
	h.mu.Lock()
	next := h.index + delta
	if next < 0 || next >= len(h.history) {
		h.mu.Unlock()
		return false
	}
	changed := h.history[next] != h.history[h.index]
	h.index = next
	fragment := h.history[next]
	subs := h.snapshot()
	h.mu.Unlock()
	if changed {
		notify(subs, fragment)
	}
	return true
}

// Len returns the number of history entries.
func (h *Hash) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.history)
}

func (h *Hash) Subscribe(fn func(string)) func() {
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// snapshot copies subscribers in registration order. Callers hold h.mu.
func (h *Hash) snapshot() []func(string) {
	out := make([]func(string), 0, len(h.subs))
	for id := 0; id < h.nextSub; id++ {
		if fn, ok := h.subs[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// notify runs outside the lock so subscribers may read or write the location.
func notify(subs []func(string), fragment string) {
	for _, fn := range subs {
		fn(fragment)
	}
}
