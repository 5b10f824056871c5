package did

import (
	"context"
	"fmt"
	"sync"
)

// StaticResolver serves DID documents from an in-memory map. It is meant for
// tests and for agents that pin a fixed set of trusted documents.
type StaticResolver struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewStaticResolver creates a StaticResolver holding the given documents.
func NewStaticResolver(docs ...*Document) *StaticResolver {
	r := &StaticResolver{docs: make(map[string]*Document)}
	for _, doc := range docs {
		r.docs[doc.ID] = doc
	}

	return r
}

// Add registers a document, replacing any previous one with the same ID.
func (r *StaticResolver) Add(doc *Document) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.docs[doc.ID] = doc
}

// Resolve returns the stored document for the DID URL's base DID.
func (r *StaticResolver) Resolve(_ context.Context, didURL string) (*Document, error) {
	base, _ := Split(didURL)

	r.mu.RLock()
	doc, ok := r.docs[base]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("DID %q not found", base)
	}

	return doc, nil
}
