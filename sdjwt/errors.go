package sdjwt

import "errors"

// Failure reasons surfaced by the credential operations. Every failure is
// terminal for the invocation that raised it; callers discriminate with
// errors.Is.
var (
	// ErrMissingIssuer is returned when a credential payload carries no iss
	// claim.
	ErrMissingIssuer = errors.New("credential payload has no issuer")

	// ErrIssuerKeyUnspecified is returned when the issuer DID names no key
	// fragment, so the signing key cannot be selected.
	ErrIssuerKeyUnspecified = errors.New("issuer DID does not specify a signing key fragment")

	// ErrUnsupportedKeyType is returned when a verification method's key type
	// maps to no known JOSE signing algorithm.
	ErrUnsupportedKeyType = errors.New("unsupported key type")

	// ErrNoKeyManagementCapability is returned when an identifier yields no
	// assertion-capable keys at all.
	ErrNoKeyManagementCapability = errors.New("identifier has no key management capability")

	// ErrKeyNotFound is returned when no verification method matches the
	// requested DID URL.
	ErrKeyNotFound = errors.New("key not found")

	// ErrMissingHolderReference is returned when a payload carries neither a
	// cnf confirmation key nor a sub DID to identify the holder.
	ErrMissingHolderReference = errors.New("payload carries neither cnf nor sub holder reference")

	// ErrHolderKeyUnspecified is returned when the holder reference resolves
	// but cannot be bound to a managed signing key.
	ErrHolderKeyUnspecified = errors.New("holder signing key could not be resolved")

	// ErrIssuerNotDid is returned when a token's iss claim does not carry the
	// DID scheme prefix.
	ErrIssuerNotDid = errors.New("issuer is not a DID")

	// ErrResolutionFailed is returned when DID resolution yields no document.
	ErrResolutionFailed = errors.New("DID resolution failed")

	// ErrNoVerificationMethod is returned when a resolved DID document
	// declares no verification methods.
	ErrNoVerificationMethod = errors.New("DID document has no verification method")
)
