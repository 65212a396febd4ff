package lazyload

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Tag identifies the kind of element a handler activates. Tags are lowercase.
type Tag string

// TagImage is the only built-in tag.
const TagImage Tag = "img"

// Handler activates one element. It must call Binding.MarkActivated before
// mutating the element and skip activation when that returns false.
type Handler func(ctx context.Context, e *Engine, b *Binding) error

// Registry maps tags to activation handlers. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Tag]Handler
}

// NewRegistry returns a registry holding the built-in img handler.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[Tag]Handler)}
	r.Register(TagImage, ImageHandler)
	return r
}

// Register adds or replaces the handler for tag. A nil handler removes it.
func (r *Registry) Register(tag Tag, h Handler) {
	tag = normalizeTag(string(tag))

	r.mu.Lock()
	defer r.mu.Unlock()
	if h == nil {
		delete(r.handlers, tag)
		return
	}
	r.handlers[tag] = h
}

// Lookup returns the handler for tag, matched case-insensitively.
func (r *Registry) Lookup(tag string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[normalizeTag(tag)]
	return h, ok
}

// Tags returns the registered tags in sorted order.
func (r *Registry) Tags() []Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]Tag, 0, len(r.handlers))
	for t := range r.handlers {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

func normalizeTag(tag string) Tag {
	return Tag(strings.ToLower(strings.TrimSpace(tag)))
}
