package sdjwt

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/jose/jwk"
	"github.com/mitchellh/mapstructure"

	"github.com/pilacorp/go-sdjwt-sdk/did"
)

// confirmation is the cnf claim, reduced to the jwk confirmation method.
type confirmation struct {
	JWK map[string]interface{} `json:"jwk"`
}

// holderReference derives the DID URL controlling a presentation's key
// binding from decoded token claims.
//
// A cnf confirmation key takes precedence: the embedded JWK is synthesized
// into a did:jwk identifier with the fixed key fragment #0. Otherwise a sub
// claim holding a DID is returned verbatim. Claims carrying neither fail with
// ErrMissingHolderReference.
func holderReference(claims map[string]interface{}) (string, error) {
	if cnfObj, ok := claims["cnf"]; ok {
		key, err := confirmationKey(cnfObj)
		if err != nil {
			return "", err
		}

		identifier, err := did.FromJWK(key)
		if err != nil {
			return "", fmt.Errorf("failed to synthesize did:jwk holder reference: %w", err)
		}

		return identifier + "#" + did.JWKKeyFragment, nil
	}

	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub, nil
	}

	return "", ErrMissingHolderReference
}

// confirmationKey extracts the public key embedded in a cnf claim.
func confirmationKey(cnfObj interface{}) (*jwk.JWK, error) {
	var cnf confirmation

	if err := mapstructure.Decode(cnfObj, &cnf); err != nil {
		return nil, fmt.Errorf("failed to decode cnf claim: %w", err)
	}

	if cnf.JWK == nil {
		return nil, fmt.Errorf("%w: cnf claim has no jwk", ErrMissingHolderReference)
	}

	keyBytes, err := json.Marshal(cnf.JWK)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cnf jwk: %w", err)
	}

	key := &jwk.JWK{}
	if err := key.UnmarshalJSON(keyBytes); err != nil {
		return nil, fmt.Errorf("failed to parse cnf jwk: %w", err)
	}

	return key, nil
}
