// Package sdjwt issues and verifies selective-disclosure JWT credentials and
// presentations for a DID agent. It connects DID documents to the signer and
// verifier callbacks consumed by the SD-JWT codec: resolving an issuer or
// holder DID URL to a concrete key, negotiating the JOSE signing algorithm
// for that key, and enforcing the two-tier trust check (issuer signature over
// the credential, holder signature over the presentation's key binding).
//
// The codec itself, DID resolution, key storage, and raw signing are external
// collaborators injected through Config.
package sdjwt

import (
	"context"
	"errors"

	"github.com/pilacorp/go-sdjwt-sdk/did"
)

// Signer produces raw signatures with a key held by an external key store.
// The key reference is an opaque handle obtained from the identity manager.
type Signer interface {
	Sign(ctx context.Context, keyRef string, data []byte) ([]byte, error)
}

// IdentityManager exposes the DIDs the agent controls and maps each one to
// the signing keys backing its DID document verification methods.
type IdentityManager interface {
	// Get returns the managed identifier record for a base DID.
	Get(ctx context.Context, identifier string) (*did.Identifier, error)

	// AssertionKeys returns the identifier's keys mapped against its DID
	// document, restricted to the assertion capability.
	AssertionKeys(ctx context.Context, identifier *did.Identifier) ([]did.ManagedKey, error)
}

// Config carries the collaborators a Service needs.
type Config struct {
	IdentityManager IdentityManager
	Signer          Signer
	Resolver        did.Resolver

	// VerifyConcurrency caps concurrent verifications in batch calls.
	// Zero picks a default of 4.
	VerifyConcurrency int
}

// Service implements the SD-JWT credential operations. All state is
// request-scoped: a Service only holds its collaborators and is safe for
// concurrent use.
type Service struct {
	idm               IdentityManager
	signer            Signer
	resolver          did.Resolver
	verifyConcurrency int
}

// New creates a Service from its collaborators.
func New(cfg Config) (*Service, error) {
	if cfg.IdentityManager == nil {
		return nil, errors.New("identity manager is required")
	}

	if cfg.Signer == nil {
		return nil, errors.New("signer is required")
	}

	if cfg.Resolver == nil {
		return nil, errors.New("resolver is required")
	}

	concurrency := cfg.VerifyConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return &Service{
		idm:               cfg.IdentityManager,
		signer:            cfg.Signer,
		resolver:          cfg.Resolver,
		verifyConcurrency: concurrency,
	}, nil
}
