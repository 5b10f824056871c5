package sdjwt

import (
	"fmt"

	"github.com/pilacorp/go-sdjwt-sdk/did"
)

// JOSE signing algorithm identifiers negotiated by the plugin.
const (
	AlgEdDSA  = "EdDSA"
	AlgES256K = "ES256K"
	AlgES256  = "ES256"
)

// SigningAlgorithm maps a verification method key type to its JOSE signing
// algorithm. Key types outside the closed supported set fail with
// ErrUnsupportedKeyType.
func SigningAlgorithm(keyType did.KeyType) (string, error) {
	switch keyType {
	case did.KeyTypeEd25519:
		return AlgEdDSA, nil
	case did.KeyTypeSecp256k1:
		return AlgES256K, nil
	case did.KeyTypeSecp256r1:
		return AlgES256, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKeyType, keyType)
	}
}

// allowedAlgorithms is the signing-algorithm allow list handed to the codec
// when validating issuer and holder signatures.
func allowedAlgorithms() []string {
	return []string{AlgEdDSA, AlgES256K, AlgES256}
}
