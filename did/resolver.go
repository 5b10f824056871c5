package did

import (
	"context"
	"fmt"
	"sync"
)

// Resolver resolves a DID (or DID URL) to its DID document.
type Resolver interface {
	Resolve(ctx context.Context, didURL string) (*Document, error)
}

// MultiResolver dispatches resolution to method-specific resolvers.
type MultiResolver struct {
	mu        sync.RWMutex
	resolvers map[string]Resolver
}

// NewMultiResolver creates an empty MultiResolver.
func NewMultiResolver() *MultiResolver {
	return &MultiResolver{resolvers: make(map[string]Resolver)}
}

// Register binds a resolver to a DID method name, e.g. "jwk" or "web".
// Registering the same method twice replaces the previous resolver.
func (r *MultiResolver) Register(method string, resolver Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resolvers[method] = resolver
}

// Resolve looks up the resolver for the DID's method and delegates to it.
func (r *MultiResolver) Resolve(ctx context.Context, didURL string) (*Document, error) {
	method := Method(didURL)
	if method == "" {
		return nil, fmt.Errorf("invalid DID %q", didURL)
	}

	r.mu.RLock()
	resolver, ok := r.resolvers[method]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no resolver registered for DID method %q", method)
	}

	return resolver.Resolve(ctx, didURL)
}
