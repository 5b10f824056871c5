// Package did provides the DID document model used by the SD-JWT credential
// plugin, along with DID URL helpers and pluggable document resolution.
package did

import (
	"strings"

	"github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/jose/jwk"
)

// Prefix is the URI scheme prefix shared by every DID.
const Prefix = "did:"

// KeyType identifies the cryptographic key type of a verification method.
// The set is closed: anything outside it is rejected during algorithm
// negotiation.
type KeyType string

const (
	// KeyTypeEd25519 is an Ed25519 signing key (JOSE alg EdDSA).
	KeyTypeEd25519 KeyType = "Ed25519"
	// KeyTypeSecp256k1 is a secp256k1 signing key (JOSE alg ES256K).
	KeyTypeSecp256k1 KeyType = "Secp256k1"
	// KeyTypeSecp256r1 is a NIST P-256 signing key (JOSE alg ES256).
	KeyTypeSecp256r1 KeyType = "Secp256r1"
)

// VerificationMethod is a single key entry within a DID document.
type VerificationMethod struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Controller   string   `json:"controller,omitempty"`
	PublicKeyJWK *jwk.JWK `json:"publicKeyJwk,omitempty"`
}

// Document is a resolved DID document, reduced to the parts the plugin reads.
type Document struct {
	Context            []string             `json:"@context,omitempty"`
	ID                 string               `json:"id"`
	Controller         string               `json:"controller,omitempty"`
	VerificationMethod []VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication     []string             `json:"authentication,omitempty"`
	AssertionMethod    []string             `json:"assertionMethod,omitempty"`
}

// Identifier is a DID managed by an identity manager, together with the key
// references the manager controls for it.
type Identifier struct {
	DID  string
	Keys []ManagedKey
}

// ManagedKey is a managed signing key mapped against a DID document
// verification method. Ref is the opaque handle understood by the key store
// that owns the private key; MethodID is the id of the verification method
// the key appears under in the document.
type ManagedKey struct {
	Ref       string
	Type      KeyType
	MethodID  string
	PublicKey *jwk.JWK
}

// Split separates a DID URL into its base DID and key fragment. The fragment
// is returned without the leading '#' and is empty when the URL has none.
func Split(didURL string) (string, string) {
	base, fragment, _ := strings.Cut(didURL, "#")
	return base, fragment
}

// Method extracts the DID method name, e.g. "jwk" for "did:jwk:...".
// It returns an empty string if the input is not a DID.
func Method(didURL string) string {
	if !strings.HasPrefix(didURL, Prefix) {
		return ""
	}

	method, _, found := strings.Cut(didURL[len(Prefix):], ":")
	if !found {
		return ""
	}

	return method
}

// IsDID reports whether s carries the DID scheme prefix.
func IsDID(s string) bool {
	return strings.HasPrefix(s, Prefix)
}
