package sdjwt

import (
	"context"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v3/jwt"
	afgjwt "github.com/hyperledger/aries-framework-go/component/models/jwt"
	"github.com/hyperledger/aries-framework-go/component/models/sdjwt/common"
	utils "github.com/hyperledger/aries-framework-go/component/models/util/maphelpers"
	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/sync/errgroup"
)

type verifyOptions struct {
	requiredClaims     []string
	keyBindingRequired bool
	expectedNonce      string
	expectedAudience   string
	claimsSchema       string
	leeway             time.Duration
}

// VerifyOption configures credential and presentation verification.
type VerifyOption func(*verifyOptions)

// WithRequiredClaims rejects the input unless every named claim is present
// among the disclosed claims.
func WithRequiredClaims(names ...string) VerifyOption {
	return func(o *verifyOptions) {
		o.requiredClaims = append(o.requiredClaims, names...)
	}
}

// WithKeyBindingRequired rejects presentations without a key binding JWT.
func WithKeyBindingRequired() VerifyOption {
	return func(o *verifyOptions) {
		o.keyBindingRequired = true
	}
}

// WithExpectedKeyBinding pins the nonce and audience the key binding JWT must
// carry. Empty values skip the corresponding check.
func WithExpectedKeyBinding(nonce, audience string) VerifyOption {
	return func(o *verifyOptions) {
		o.expectedNonce = nonce
		o.expectedAudience = audience
	}
}

// WithClaimsSchema validates the disclosed claims against a JSON schema.
func WithClaimsSchema(schema string) VerifyOption {
	return func(o *verifyOptions) {
		o.claimsSchema = schema
	}
}

// WithLeeway sets the leeway applied to time-based claim checks (default one
// minute).
func WithLeeway(leeway time.Duration) VerifyOption {
	return func(o *verifyOptions) {
		o.leeway = leeway
	}
}

// VerifyCredential checks the issuer signature and disclosure digests of a
// credential in combined format for issuance, resolving the issuer DID to
// obtain the verification key. It returns the claims with all attached
// disclosures applied.
func (s *Service) VerifyCredential(ctx context.Context, credential string, opts ...VerifyOption) (map[string]interface{}, error) {
	options := newVerifyOptions(opts)

	cfi := common.ParseCombinedFormatForIssuance(credential)

	token, err := s.validateIssuerSigned(ctx, cfi.SDJWT, cfi.Disclosures, options)
	if err != nil {
		return nil, err
	}

	claims, err := disclosedClaims(token, cfi.Disclosures)
	if err != nil {
		return nil, err
	}

	if err := checkClaims(claims, options); err != nil {
		return nil, err
	}

	return claims, nil
}

// VerifyCredentials verifies a batch of credentials concurrently. The result
// slice is index-aligned with the input; any failure aborts the batch.
func (s *Service) VerifyCredentials(ctx context.Context, credentials []string, opts ...VerifyOption) ([]map[string]interface{}, error) {
	results := make([]map[string]interface{}, len(credentials))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.verifyConcurrency)

	for i, credential := range credentials {
		i, credential := i, credential

		g.Go(func() error {
			claims, err := s.VerifyCredential(gctx, credential, opts...)
			if err != nil {
				return fmt.Errorf("credential %d: %w", i, err)
			}

			results[i] = claims

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// VerifyPresentation checks a combined format for presentation: the issuer
// signature over the credential, the disclosure digests, and, when present or
// required, the holder's key binding JWT. It returns the disclosed claims.
func (s *Service) VerifyPresentation(ctx context.Context, presentation string, opts ...VerifyOption) (map[string]interface{}, error) {
	options := newVerifyOptions(opts)

	cfp := common.ParseCombinedFormatForPresentation(presentation)

	token, err := s.validateIssuerSigned(ctx, cfp.SDJWT, cfp.Disclosures, options)
	if err != nil {
		return nil, err
	}

	if cfp.HolderVerification == "" {
		if options.keyBindingRequired {
			return nil, fmt.Errorf("presentation has no key binding")
		}
	} else {
		var credentialClaims map[string]interface{}
		if err := token.DecodeClaims(&credentialClaims); err != nil {
			return nil, fmt.Errorf("failed to decode credential claims: %w", err)
		}

		if err := s.verifyKeyBinding(ctx, cfp.HolderVerification, credentialClaims, options); err != nil {
			return nil, fmt.Errorf("key binding verification failed: %w", err)
		}
	}

	claims, err := disclosedClaims(token, cfp.Disclosures)
	if err != nil {
		return nil, err
	}

	if err := checkClaims(claims, options); err != nil {
		return nil, err
	}

	return claims, nil
}

func newVerifyOptions(opts []VerifyOption) *verifyOptions {
	options := &verifyOptions{leeway: jwt.DefaultLeeway}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

func (s *Service) validateIssuerSigned(ctx context.Context, sdjwt string, disclosures []string, options *verifyOptions) (*afgjwt.JSONWebToken, error) {
	token, _, err := afgjwt.Parse(sdjwt, afgjwt.WithSignatureVerifier(s.issuerVerifier(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to validate credential signature: %w", err)
	}

	if err := common.VerifySigningAlg(token.Headers, allowedAlgorithms()); err != nil {
		return nil, fmt.Errorf("failed to verify issuer signing algorithm: %w", err)
	}

	if err := common.VerifyJWT(token, options.leeway); err != nil {
		return nil, fmt.Errorf("failed to verify credential claims: %w", err)
	}

	if err := common.VerifyDisclosuresInSDJWT(disclosures, token); err != nil {
		return nil, fmt.Errorf("failed to verify disclosures: %w", err)
	}

	return token, nil
}

// keyBindingPayload is the claim set of a key binding JWT.
type keyBindingPayload struct {
	Nonce    string           `json:"nonce"`
	Audience string           `json:"aud"`
	IssuedAt *jwt.NumericDate `json:"iat"`
}

func (s *Service) verifyKeyBinding(ctx context.Context, kbJWT string, credentialClaims map[string]interface{}, options *verifyOptions) error {
	verifier, err := s.keyBindingVerifier(ctx, credentialClaims)
	if err != nil {
		return err
	}

	token, _, err := afgjwt.Parse(kbJWT, afgjwt.WithSignatureVerifier(verifier))
	if err != nil {
		return fmt.Errorf("failed to parse key binding JWT: %w", err)
	}

	if err := common.VerifySigningAlg(token.Headers, allowedAlgorithms()); err != nil {
		return fmt.Errorf("failed to verify holder signing algorithm: %w", err)
	}

	var payload keyBindingPayload

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &payload,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       utils.JSONNumberToJwtNumericDate(),
	})
	if err != nil {
		return fmt.Errorf("failed to build key binding decoder: %w", err)
	}

	if err := decoder.Decode(token.Payload); err != nil {
		return fmt.Errorf("failed to decode key binding payload: %w", err)
	}

	if payload.IssuedAt == nil {
		return fmt.Errorf("key binding JWT has no iat")
	}

	if options.expectedNonce != "" && payload.Nonce != options.expectedNonce {
		return fmt.Errorf("unexpected nonce %q", payload.Nonce)
	}

	if options.expectedAudience != "" && payload.Audience != options.expectedAudience {
		return fmt.Errorf("unexpected audience %q", payload.Audience)
	}

	return nil
}

// disclosedClaims resolves the digests in the signed payload against the
// attached disclosures and returns the reassembled claim set. The digest
// algorithm comes from the signed _sd_alg claim.
func disclosedClaims(token *afgjwt.JSONWebToken, disclosures []string) (map[string]interface{}, error) {
	var claims map[string]interface{}
	if err := token.DecodeClaims(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode credential claims: %w", err)
	}

	hash, err := common.GetCryptoHashFromClaims(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to get crypto hash from claims: %w", err)
	}

	disclosureClaims, err := common.GetDisclosureClaims(disclosures, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to decode disclosures: %w", err)
	}

	disclosed, err := common.GetDisclosedClaims(disclosureClaims, utils.CopyMap(claims))
	if err != nil {
		return nil, fmt.Errorf("failed to apply disclosures: %w", err)
	}

	return disclosed, nil
}

func checkClaims(claims map[string]interface{}, options *verifyOptions) error {
	for _, name := range options.requiredClaims {
		if _, ok := claims[name]; !ok {
			return fmt.Errorf("required claim %q is not disclosed", name)
		}
	}

	if options.claimsSchema != "" {
		result, err := gojsonschema.Validate(
			gojsonschema.NewStringLoader(options.claimsSchema),
			gojsonschema.NewGoLoader(claims),
		)
		if err != nil {
			return fmt.Errorf("failed to validate claims schema: %w", err)
		}

		if !result.Valid() {
			return fmt.Errorf("claims do not match schema: %v", result.Errors())
		}
	}

	return nil
}
