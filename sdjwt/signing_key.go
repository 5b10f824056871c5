package sdjwt

import (
	"context"
	"fmt"

	afjose "github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/jose"

	"github.com/pilacorp/go-sdjwt-sdk/did"
)

// signingContext pairs a negotiated JOSE algorithm with the managed key that
// produces it. It is created by resolveSigningKey, consumed by exactly one
// signer callback, and discarded with the request.
type signingContext struct {
	alg    string
	keyRef string
	kid    string
}

// resolveSigningKey resolves a DID URL to the managed key it names.
//
// The identifier portion is looked up with the identity manager, its keys are
// mapped against the DID document restricted to the assertion capability, and
// the single method whose id equals the DID URL is selected. did:jwk is the
// exception: such documents expose their sole key under the synthetic
// fragment #0, so the match target is always <base>#0 no matter which
// fragment the caller wrote.
func (s *Service) resolveSigningKey(ctx context.Context, didURL string) (*signingContext, error) {
	base, _ := did.Split(didURL)

	identifier, err := s.idm.Get(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("failed to load identifier %q: %w", base, err)
	}

	keys, err := s.idm.AssertionKeys(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to map keys for %q: %w", base, err)
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoKeyManagementCapability, base)
	}

	target := didURL
	if did.Method(base) == did.MethodJWK {
		target = base + "#" + did.JWKKeyFragment
	}

	var match *did.ManagedKey

	for i := range keys {
		if keys[i].MethodID == target {
			match = &keys[i]
			break
		}
	}

	if match == nil {
		return nil, fmt.Errorf("%w: no assertion key matches %q", ErrKeyNotFound, target)
	}

	alg, err := SigningAlgorithm(match.Type)
	if err != nil {
		return nil, err
	}

	return &signingContext{alg: alg, keyRef: match.Ref, kid: target}, nil
}

// joseSigner adapts the agent's raw signer to the codec's jose.Signer
// callback. The codec drives Sign opaquely during its own processing.
type joseSigner struct {
	ctx    context.Context
	sc     *signingContext
	signer Signer
	typ    string
}

func (s *joseSigner) Sign(data []byte) ([]byte, error) {
	return s.signer.Sign(s.ctx, s.sc.keyRef, data)
}

func (s *joseSigner) Headers() afjose.Headers {
	headers := afjose.Headers{
		afjose.HeaderAlgorithm: s.sc.alg,
		afjose.HeaderKeyID:     s.sc.kid,
	}

	if s.typ != "" {
		headers[afjose.HeaderType] = s.typ
	}

	return headers
}
