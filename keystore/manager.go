package keystore

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/pilacorp/go-sdjwt-sdk/did"
)

// Manager is an in-memory identity manager: it tracks which DIDs the agent
// controls and which stored keys back each DID document verification method.
type Manager struct {
	store *Store

	mu   sync.RWMutex
	ids  map[string]*did.Identifier
	docs map[string]*did.Document
}

// NewManager creates a Manager backed by the given key store.
func NewManager(store *Store) *Manager {
	return &Manager{
		store: store,
		ids:   make(map[string]*did.Identifier),
		docs:  make(map[string]*did.Document),
	}
}

// Store returns the underlying key store, which doubles as the raw signer.
func (m *Manager) Store() *Store {
	return m.store
}

// Register declares a DID as managed. The document describes the DID's
// verification methods; keys map stored key references onto method ids.
func (m *Manager) Register(identifier string, doc *did.Document, keys []did.ManagedKey) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ids[identifier] = &did.Identifier{DID: identifier, Keys: keys}
	if doc != nil {
		m.docs[identifier] = doc
	}
}

// Get returns the managed identifier record for a base DID.
func (m *Manager) Get(_ context.Context, identifier string) (*did.Identifier, error) {
	m.mu.RLock()
	id, ok := m.ids[identifier]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("identifier %q is not managed", identifier)
	}

	return id, nil
}

// AssertionKeys returns the identifier's managed keys restricted to those
// usable for assertion. When the registered document declares an
// assertionMethod section, only keys mapped to its method ids qualify;
// otherwise every managed key is assumed assertion-capable.
func (m *Manager) AssertionKeys(_ context.Context, identifier *did.Identifier) ([]did.ManagedKey, error) {
	m.mu.RLock()
	doc := m.docs[identifier.DID]
	m.mu.RUnlock()

	if doc == nil || len(doc.AssertionMethod) == 0 {
		return identifier.Keys, nil
	}

	var keys []did.ManagedKey

	for _, key := range identifier.Keys {
		if slices.Contains(doc.AssertionMethod, key.MethodID) {
			keys = append(keys, key)
		}
	}

	return keys, nil
}
