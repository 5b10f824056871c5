package sdjwt

import (
	"context"
	"crypto"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/models/sdjwt/common"
	"github.com/hyperledger/aries-framework-go/component/models/sdjwt/issuer"
	"golang.org/x/exp/slices"

	"github.com/pilacorp/go-sdjwt-sdk/did"
)

// DisclosureFrame names the claims that may be selectively disclosed. Nested
// claims use dotted paths, e.g. "address.street"; a frame containing a dotted
// path switches issuance to structured (per-level) disclosure.
type DisclosureFrame []string

// Credential is the result of issuing an SD-JWT credential.
type Credential struct {
	// Payload is the signed JWT payload, with disclosable claims replaced by
	// their digests.
	Payload map[string]interface{}

	// Signature is the issuer signature, base64url-encoded.
	Signature string

	// Encoded is the combined format for issuance: <JWT>~<disclosure>~...
	Encoded string

	// Disclosures are the encoded disclosures matching the payload digests.
	Disclosures []string
}

// registered claims that stay in the signed payload no matter what the
// disclosure frame says.
var neverDisclosable = map[string]bool{
	"id":  true,
	"sub": true,
	"iat": true,
	"nbf": true,
	"exp": true,
	"jti": true,
	"aud": true,
	"cnf": true,
	"vct": true,
}

type credentialOptions struct {
	hashAlg      crypto.Hash
	decoyDigests bool
	generateJTI  bool
}

// CredentialOption configures credential issuance.
type CredentialOption func(*credentialOptions)

// WithHashAlgorithm overrides the disclosure digest algorithm (default
// SHA-256).
func WithHashAlgorithm(hash crypto.Hash) CredentialOption {
	return func(o *credentialOptions) {
		o.hashAlg = hash
	}
}

// WithDecoyDigests adds decoy digests to the issued payload.
func WithDecoyDigests() CredentialOption {
	return func(o *credentialOptions) {
		o.decoyDigests = true
	}
}

// WithGeneratedJTI assigns a random urn:uuid jti when the payload has none.
func WithGeneratedJTI() CredentialOption {
	return func(o *credentialOptions) {
		o.generateJTI = true
	}
}

// CreateCredential issues a selectively disclosable credential from a claim
// payload. The payload must carry an iss DID URL naming the signing key
// fragment; the frame marks which claims become disclosures. Exactly one raw
// signing call is made per issuance.
func (s *Service) CreateCredential(ctx context.Context, payload map[string]interface{}, frame DisclosureFrame, opts ...CredentialOption) (*Credential, error) {
	options := &credentialOptions{hashAlg: crypto.SHA256}
	for _, opt := range opts {
		opt(options)
	}

	issuerURL, ok := payload["iss"].(string)
	if !ok || issuerURL == "" {
		return nil, ErrMissingIssuer
	}

	if _, fragment := did.Split(issuerURL); fragment == "" {
		return nil, fmt.Errorf("%w: %q", ErrIssuerKeyUnspecified, issuerURL)
	}

	sc, err := s.resolveSigningKey(ctx, issuerURL)
	if err != nil {
		return nil, err
	}

	claims := make(map[string]interface{}, len(payload))
	for name, value := range payload {
		if name != "iss" {
			claims[name] = value
		}
	}

	if options.generateJTI {
		if _, hasJTI := claims["jti"]; !hasJTI {
			claims["jti"] = "urn:uuid:" + uuid.NewString()
		}
	}

	nonSD, structured := nonDisclosablePaths(claims, frame)

	signer := &joseSigner{ctx: ctx, sc: sc, signer: s.signer, typ: "JWT"}

	token, err := issuer.New(issuerURL, claims, nil, signer,
		issuer.WithHashAlgorithm(options.hashAlg),
		issuer.WithNonSelectivelyDisclosableClaims(nonSD),
		issuer.WithStructuredClaims(structured),
		issuer.WithDecoyDigests(options.decoyDigests),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to issue credential: %w", err)
	}

	encoded, err := token.Serialize(false)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize credential: %w", err)
	}

	cfi := common.ParseCombinedFormatForIssuance(encoded)

	jwtParts := strings.Split(cfi.SDJWT, ".")
	if len(jwtParts) != 3 {
		return nil, fmt.Errorf("issued credential is not a compact JWS")
	}

	return &Credential{
		Payload:     token.SignedJWT.Payload,
		Signature:   jwtParts[2],
		Encoded:     encoded,
		Disclosures: token.Disclosures,
	}, nil
}

// nonDisclosablePaths computes the claim paths excluded from selective
// disclosure: the complement of the frame, plus the registered claims that
// must stay in the signed payload. The second result reports whether the
// frame requires structured (per-level) disclosure.
func nonDisclosablePaths(claims map[string]interface{}, frame DisclosureFrame) ([]string, bool) {
	structured := false

	frameSet := make(map[string]bool, len(frame))
	for _, path := range frame {
		frameSet[path] = true

		if strings.Contains(path, ".") {
			structured = true
		}
	}

	var nonSD []string

	var walk func(prefix string, m map[string]interface{})
	walk = func(prefix string, m map[string]interface{}) {
		for name, value := range m {
			path := name
			if prefix != "" {
				path = prefix + "." + name
			}

			// A framed object is disclosed whole; only descend into
			// objects the frame addresses by nested path.
			if obj, ok := value.(map[string]interface{}); ok && structured && !frameSet[path] && !neverDisclosable[path] {
				walk(path, obj)
				continue
			}

			if neverDisclosable[path] || !frameSet[path] {
				nonSD = append(nonSD, path)
			}
		}
	}

	walk("", claims)
	slices.Sort(nonSD)

	return nonSD, structured
}
