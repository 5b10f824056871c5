package did

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/jose/jwk/jwksupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJWKResolveRoundTrip(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	key, err := jwksupport.JWKFromKey(pub)
	require.NoError(t, err)

	identifier, err := FromJWK(key)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(identifier, "did:jwk:"))

	doc, err := JWKResolver{}.Resolve(context.Background(), identifier)
	require.NoError(t, err)

	assert.Equal(t, identifier, doc.ID)
	require.Len(t, doc.VerificationMethod, 1)

	method := doc.VerificationMethod[0]
	assert.Equal(t, identifier+"#0", method.ID)
	assert.Equal(t, "JsonWebKey2020", method.Type)
	require.NotNil(t, method.PublicKeyJWK)

	assert.Equal(t, []string{method.ID}, doc.AssertionMethod)
	assert.Equal(t, []string{method.ID}, doc.Authentication)
}

func TestJWKResolverFragmentIgnored(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	key, err := jwksupport.JWKFromKey(pub)
	require.NoError(t, err)

	identifier, err := FromJWK(key)
	require.NoError(t, err)

	// any fragment resolves the same document
	doc, err := JWKResolver{}.Resolve(context.Background(), identifier+"#key-7")
	require.NoError(t, err)

	assert.Equal(t, identifier, doc.ID)
	assert.Equal(t, identifier+"#0", doc.VerificationMethod[0].ID)
}

func TestJWKResolverRejectsOtherMethods(t *testing.T) {
	tests := []struct {
		name   string
		didURL string
	}{
		{
			name:   "different method",
			didURL: "did:web:issuer.example.com",
		},
		{
			name:   "not a DID",
			didURL: "https://issuer.example.com",
		},
		{
			name:   "malformed base64",
			didURL: "did:jwk:!!!",
		},
		{
			name:   "payload is not a JWK",
			didURL: "did:jwk:bm90LWEtandr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := JWKResolver{}.Resolve(context.Background(), tt.didURL)

			assert.Error(t, err)
			assert.Nil(t, doc)
		})
	}
}
