package handler

import (
	"fmt"
	"sort"
	"strings"

	aierrors "github.com/hrygo/genuirouter/internal/errors"
	"github.com/hrygo/genuirouter/plugin/ai/router"
)

// Builder collects handlers at startup. It is not safe for concurrent use.
type Builder struct {
	handlers map[router.Intent]Handler
	order    []router.Intent
	errs     []string
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{handlers: make(map[router.Intent]Handler)}
}

// Register adds a handler under key. Empty, reserved or duplicate keys and nil
// handlers are configuration errors; they are also reported again by Build.
func (b *Builder) Register(key router.Intent, h Handler) error {
	var err error
	switch {
	case strings.TrimSpace(string(key)) == "":
		err = aierrors.Configuration("handler key must not be empty")
	case key == router.IntentFallback:
		err = aierrors.Configuration(fmt.Sprintf("handler key %q is reserved", key))
	case h == nil:
		err = aierrors.Configuration(fmt.Sprintf("handler %q is nil", key))
	case b.handlers[key] != nil:
		err = aierrors.Configuration(fmt.Sprintf("duplicate handler key %q", key))
	}
	if err != nil {
		b.errs = append(b.errs, err.Error())
		return err
	}

	b.handlers[key] = h
	b.order = append(b.order, key)
	return nil
}

// Build freezes the registered handlers into an immutable Registry.
func (b *Builder) Build() (*Registry, error) {
	if len(b.errs) > 0 {
		return nil, aierrors.Configuration(strings.Join(b.errs, "; "))
	}

	handlers := make(map[router.Intent]Handler, len(b.handlers))
	for k, h := range b.handlers {
		handlers[k] = h
	}
	keys := make([]router.Intent, len(b.order))
	copy(keys, b.order)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return &Registry{handlers: handlers, keys: keys, null: NullHandler{}}, nil
}

// Registry maps intents to handlers. It is read-only after Build and safe for concurrent use.
type Registry struct {
	handlers map[router.Intent]Handler
	keys     []router.Intent
	null     Handler
}

// Resolve returns the handler for intent. Unregistered intents and the fallback
// intent resolve to the NullHandler; Resolve never fails.
func (r *Registry) Resolve(intent router.Intent) Handler {
	if h, ok := r.handlers[intent]; ok {
		return h
	}
	return r.null
}

// Has reports whether intent has a registered handler.
func (r *Registry) Has(intent router.Intent) bool {
	_, ok := r.handlers[intent]
	return ok
}

// Keys lists the registered intents in sorted order.
func (r *Registry) Keys() []router.Intent {
	out := make([]router.Intent, len(r.keys))
	copy(out, r.keys)
	return out
}
