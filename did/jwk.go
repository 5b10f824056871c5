package did

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/jose/jwk"
)

// MethodJWK is the did:jwk method name.
const MethodJWK = "jwk"

// JWKKeyFragment is the fragment under which a did:jwk document exposes its
// single key. did:jwk documents always carry exactly one verification method,
// indexed as 0.
const JWKKeyFragment = "0"

const jwkPrefix = Prefix + MethodJWK + ":"

// FromJWK synthesizes a did:jwk identifier from a public key. The identifier
// encodes the complete JWK, so it resolves without any registry lookup.
func FromJWK(key *jwk.JWK) (string, error) {
	keyBytes, err := key.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("failed to marshal JWK: %w", err)
	}

	return jwkPrefix + base64.RawURLEncoding.EncodeToString(keyBytes), nil
}

// JWKResolver resolves did:jwk identifiers locally by decoding the key
// embedded in the identifier itself.
type JWKResolver struct{}

// Resolve decodes a did:jwk DID URL into a one-key DID document. The sole
// verification method is exposed under fragment #0 and is usable for both
// authentication and assertion.
func (JWKResolver) Resolve(_ context.Context, didURL string) (*Document, error) {
	base, _ := Split(didURL)

	if !strings.HasPrefix(base, jwkPrefix) {
		return nil, fmt.Errorf("not a did:jwk identifier: %q", didURL)
	}

	keyBytes, err := base64.RawURLEncoding.DecodeString(base[len(jwkPrefix):])
	if err != nil {
		return nil, fmt.Errorf("failed to decode did:jwk identifier: %w", err)
	}

	key := &jwk.JWK{}
	if err := key.UnmarshalJSON(keyBytes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal did:jwk key: %w", err)
	}

	methodID := base + "#" + JWKKeyFragment

	return &Document{
		Context: []string{"https://www.w3.org/ns/did/v1"},
		ID:      base,
		VerificationMethod: []VerificationMethod{{
			ID:           methodID,
			Type:         "JsonWebKey2020",
			Controller:   base,
			PublicKeyJWK: key,
		}},
		Authentication:  []string{methodID},
		AssertionMethod: []string{methodID},
	}, nil
}
