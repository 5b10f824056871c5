package sdjwt

import (
	"context"
	"encoding/json"
	"fmt"

	afjose "github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/jose"
	"github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/jose/jwk"
	afgjwt "github.com/hyperledger/aries-framework-go/component/models/jwt"
	sigverifier "github.com/hyperledger/aries-framework-go/component/models/signature/verifier"

	"github.com/pilacorp/go-sdjwt-sdk/did"
)

// issuerVerifier builds the callback that checks the issuer signature over a
// credential or presentation. The codec invokes it during its own parse; the
// service never calls it directly.
func (s *Service) issuerVerifier(ctx context.Context) afjose.SignatureVerifier {
	return &issuerSignatureVerifier{ctx: ctx, resolver: s.resolver}
}

type issuerSignatureVerifier struct {
	ctx      context.Context
	resolver did.Resolver
}

// Verify decodes the token payload, locates the issuer's public key, and
// delegates the signature check to the low-level verifier matching that key.
func (v *issuerSignatureVerifier) Verify(joseHeaders afjose.Headers, payload, signingInput, signature []byte) error {
	var claims map[string]interface{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return fmt.Errorf("failed to decode token payload: %w", err)
	}

	issuer, _ := claims["iss"].(string)
	if !did.IsDID(issuer) {
		return fmt.Errorf("%w: %q", ErrIssuerNotDid, issuer)
	}

	key, err := v.issuerKey(issuer)
	if err != nil {
		return err
	}

	verifier, err := afgjwt.GetVerifier(&sigverifier.PublicKey{JWK: key})
	if err != nil {
		return fmt.Errorf("failed to build verifier for issuer key: %w", err)
	}

	return verifier.Verify(joseHeaders, payload, signingInput, signature)
}

// issuerKey resolves the issuer DID and extracts its public key. The first
// verification method in the document wins: the issuer path does not
// disambiguate by key fragment.
func (v *issuerSignatureVerifier) issuerKey(issuer string) (*jwk.JWK, error) {
	doc, err := v.resolver.Resolve(v.ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolutionFailed, err)
	}

	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrResolutionFailed, issuer)
	}

	if len(doc.VerificationMethod) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoVerificationMethod, issuer)
	}

	method := doc.VerificationMethod[0]
	if method.PublicKeyJWK == nil {
		return nil, fmt.Errorf("%w: method %q carries no public key JWK", ErrNoVerificationMethod, method.ID)
	}

	return method.PublicKeyJWK, nil
}

// keyBindingVerifier builds the callback that checks the holder's key-binding
// signature, locating the holder key from the presentation payload: a cnf
// confirmation key is used directly with no resolution step, otherwise the
// sub DID URL is resolved and matched by exact verification method id.
func (s *Service) keyBindingVerifier(ctx context.Context, claims map[string]interface{}) (afjose.SignatureVerifier, error) {
	key, err := s.holderKey(ctx, claims)
	if err != nil {
		return nil, err
	}

	verifier, err := afgjwt.GetVerifier(&sigverifier.PublicKey{JWK: key})
	if err != nil {
		return nil, fmt.Errorf("failed to build verifier for holder key: %w", err)
	}

	return verifier, nil
}

func (s *Service) holderKey(ctx context.Context, claims map[string]interface{}) (*jwk.JWK, error) {
	if cnfObj, ok := claims["cnf"]; ok {
		return confirmationKey(cnfObj)
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, ErrMissingHolderReference
	}

	doc, err := s.resolver.Resolve(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolutionFailed, err)
	}

	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrResolutionFailed, sub)
	}

	for _, method := range doc.VerificationMethod {
		if method.ID == sub {
			if method.PublicKeyJWK == nil {
				return nil, fmt.Errorf("%w: method %q carries no public key JWK", ErrNoVerificationMethod, method.ID)
			}

			return method.PublicKeyJWK, nil
		}
	}

	return nil, fmt.Errorf("%w: no verification method matches %q", ErrKeyNotFound, sub)
}
