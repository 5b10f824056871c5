package did

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPResolver(t *testing.T) {
	const docJSON = `{
		"id": "did:web:issuer.example.com",
		"verificationMethod": [{
			"id": "did:web:issuer.example.com#key-1",
			"type": "JsonWebKey2020",
			"controller": "did:web:issuer.example.com",
			"publicKeyJwk": {
				"kty": "OKP",
				"crv": "Ed25519",
				"x": "11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo"
			}
		}],
		"assertionMethod": ["did:web:issuer.example.com#key-1"]
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/did:web:issuer.example.com":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(docJSON))
		case "/did:web:broken.example.com":
			w.Write([]byte("not json"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	resolver := NewHTTPResolver(server.URL)

	t.Run("resolves document", func(t *testing.T) {
		doc, err := resolver.Resolve(context.Background(), "did:web:issuer.example.com")

		require.NoError(t, err)
		assert.Equal(t, "did:web:issuer.example.com", doc.ID)
		require.Len(t, doc.VerificationMethod, 1)
		assert.NotNil(t, doc.VerificationMethod[0].PublicKeyJWK)
		assert.Equal(t, []string{"did:web:issuer.example.com#key-1"}, doc.AssertionMethod)
	})

	t.Run("strips fragment before request", func(t *testing.T) {
		doc, err := resolver.Resolve(context.Background(), "did:web:issuer.example.com#key-1")

		require.NoError(t, err)
		assert.Equal(t, "did:web:issuer.example.com", doc.ID)
	})

	t.Run("non-200 status", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), "did:web:unknown.example.com")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-200")
	})

	t.Run("invalid document body", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), "did:web:broken.example.com")

		require.Error(t, err)
	})

	t.Run("empty DID URL", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), "")

		require.Error(t, err)
	})
}
