package sdjwt

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pilacorp/go-sdjwt-sdk/did"
	"github.com/pilacorp/go-sdjwt-sdk/keystore"
)

// testAgent bundles a service with the fixtures behind it: an in-memory key
// store, an identity manager, and a static resolver the issuer and holder
// documents are pinned into.
type testAgent struct {
	service  *Service
	store    *keystore.Store
	manager  *keystore.Manager
	resolver *did.StaticResolver
}

func newTestAgent(t *testing.T) *testAgent {
	t.Helper()

	store := keystore.New()
	manager := keystore.NewManager(store)
	resolver := did.NewStaticResolver()

	service, err := New(Config{
		IdentityManager: manager,
		Signer:          store,
		Resolver:        resolver,
	})
	require.NoError(t, err)

	return &testAgent{
		service:  service,
		store:    store,
		manager:  manager,
		resolver: resolver,
	}
}

// addIdentity creates a key of the given type, registers a one-key DID under
// the manager, and pins the matching document into the resolver. It returns
// the DID URL naming the key.
func (a *testAgent) addIdentity(t *testing.T, identifier string, keyType did.KeyType) string {
	t.Helper()

	key, err := a.store.Create(keyType)
	require.NoError(t, err)

	methodID := identifier + "#key-1"

	doc := &did.Document{
		ID: identifier,
		VerificationMethod: []did.VerificationMethod{{
			ID:           methodID,
			Type:         "JsonWebKey2020",
			Controller:   identifier,
			PublicKeyJWK: key.PublicKey,
		}},
		AssertionMethod: []string{methodID},
	}

	a.manager.Register(identifier, doc, []did.ManagedKey{{
		Ref:       key.Ref,
		Type:      key.Type,
		MethodID:  methodID,
		PublicKey: key.PublicKey,
	}})
	a.resolver.Add(doc)

	return methodID
}

// addJWKIdentity creates a key and registers it as a managed did:jwk
// identity. It returns the base identifier and the cnf claim value embedding
// the public key.
func (a *testAgent) addJWKIdentity(t *testing.T, keyType did.KeyType) (string, map[string]interface{}) {
	t.Helper()

	key, err := a.store.Create(keyType)
	require.NoError(t, err)

	identifier, err := did.FromJWK(key.PublicKey)
	require.NoError(t, err)

	a.manager.Register(identifier, nil, []did.ManagedKey{{
		Ref:       key.Ref,
		Type:      key.Type,
		MethodID:  identifier + "#" + did.JWKKeyFragment,
		PublicKey: key.PublicKey,
	}})

	keyBytes, err := key.PublicKey.MarshalJSON()
	require.NoError(t, err)

	var keyMap map[string]interface{}
	require.NoError(t, json.Unmarshal(keyBytes, &keyMap))

	return identifier, map[string]interface{}{"jwk": keyMap}
}

// failingSigner fails the test if the codec ever asks it to sign.
type failingSigner struct {
	t *testing.T
}

func (s *failingSigner) Sign(context.Context, string, []byte) ([]byte, error) {
	s.t.Fatal("signer invoked")

	return nil, nil
}

// stubResolver serves a fixed document or error regardless of input.
type stubResolver struct {
	doc *did.Document
	err error
}

func (r *stubResolver) Resolve(context.Context, string) (*did.Document, error) {
	if r.err != nil {
		return nil, r.err
	}

	return r.doc, nil
}

// unmanagedIdentity rejects every lookup.
type unmanagedIdentity struct{}

func (unmanagedIdentity) Get(_ context.Context, identifier string) (*did.Identifier, error) {
	return nil, fmt.Errorf("identifier %q is not managed", identifier)
}

func (unmanagedIdentity) AssertionKeys(context.Context, *did.Identifier) ([]did.ManagedKey, error) {
	return nil, nil
}
