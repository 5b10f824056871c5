package sdjwt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilacorp/go-sdjwt-sdk/did"
)

func TestResolveSigningKey(t *testing.T) {
	agent := newTestAgent(t)
	issuerKeyID := agent.addIdentity(t, "did:example:issuer", did.KeyTypeSecp256k1)

	sc, err := agent.service.resolveSigningKey(context.Background(), issuerKeyID)
	require.NoError(t, err)

	assert.Equal(t, AlgES256K, sc.alg)
	assert.Equal(t, issuerKeyID, sc.kid)
	assert.NotEmpty(t, sc.keyRef)
}

func TestResolveSigningKeyJWKFragmentNormalization(t *testing.T) {
	agent := newTestAgent(t)
	identifier, _ := agent.addJWKIdentity(t, did.KeyTypeEd25519)

	// the key is mapped under #0; any fragment the caller writes resolves to it
	for _, fragment := range []string{"#0", "#key-1", ""} {
		sc, err := agent.service.resolveSigningKey(context.Background(), identifier+fragment)
		require.NoError(t, err, "fragment %q", fragment)

		assert.Equal(t, identifier+"#0", sc.kid)
		assert.Equal(t, AlgEdDSA, sc.alg)
	}
}

func TestResolveSigningKeyFailures(t *testing.T) {
	agent := newTestAgent(t)
	agent.addIdentity(t, "did:example:issuer", did.KeyTypeEd25519)

	// an identity whose document grants no assertion capability
	agent.manager.Register("did:example:mute", &did.Document{
		ID:              "did:example:mute",
		AssertionMethod: []string{"did:example:mute#absent"},
	}, []did.ManagedKey{{
		Ref:      "ref-1",
		Type:     did.KeyTypeEd25519,
		MethodID: "did:example:mute#key-1",
	}})

	// an identity holding a key of a type outside the supported set
	agent.manager.Register("did:example:odd", nil, []did.ManagedKey{{
		Ref:      "ref-2",
		Type:     did.KeyType("X25519"),
		MethodID: "did:example:odd#key-1",
	}})

	tests := []struct {
		name    string
		didURL  string
		wantErr error
	}{
		{
			name:    "no key for fragment",
			didURL:  "did:example:issuer#key-9",
			wantErr: ErrKeyNotFound,
		},
		{
			name:    "no assertion capability",
			didURL:  "did:example:mute#key-1",
			wantErr: ErrNoKeyManagementCapability,
		},
		{
			name:    "unsupported key type",
			didURL:  "did:example:odd#key-1",
			wantErr: ErrUnsupportedKeyType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := agent.service.resolveSigningKey(context.Background(), tt.didURL)

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.Nil(t, sc)
		})
	}
}
