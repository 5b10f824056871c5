package sdjwt

import (
	"context"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v3/jwt"
	afgjwt "github.com/hyperledger/aries-framework-go/component/models/jwt"
	"github.com/hyperledger/aries-framework-go/component/models/sdjwt/common"
	"github.com/hyperledger/aries-framework-go/component/models/sdjwt/holder"
)

type presentationOptions struct {
	nonce    string
	audience string
}

// PresentationOption configures presentation creation.
type PresentationOption func(*presentationOptions)

// WithKeyBinding attaches a key binding JWT carrying the verifier's nonce and
// audience. The credential must name a holder key, either through a cnf claim
// or a sub claim holding a DID.
func WithKeyBinding(nonce, audience string) PresentationOption {
	return func(o *presentationOptions) {
		o.nonce = nonce
		o.audience = audience
	}
}

// CreatePresentation builds the combined format for presentation from an
// issued credential, keeping only the named claims disclosed. A nil or empty
// claim list discloses everything the credential carries.
func (s *Service) CreatePresentation(ctx context.Context, credential string, disclose []string, opts ...PresentationOption) (string, error) {
	options := &presentationOptions{}
	for _, opt := range opts {
		opt(options)
	}

	cfi := common.ParseCombinedFormatForIssuance(credential)

	token, _, err := afgjwt.Parse(cfi.SDJWT,
		afgjwt.WithSignatureVerifier(&holder.NoopSignatureVerifier{}))
	if err != nil {
		return "", fmt.Errorf("failed to parse credential: %w", err)
	}

	var claims map[string]interface{}
	if err := token.DecodeClaims(&claims); err != nil {
		return "", fmt.Errorf("failed to decode credential claims: %w", err)
	}

	selected, err := selectDisclosures(claims, cfi.Disclosures, disclose)
	if err != nil {
		return "", err
	}

	var holderOpts []holder.Option

	if options.nonce != "" || options.audience != "" {
		ref, err := holderReference(claims)
		if err != nil {
			return "", err
		}

		sc, err := s.resolveSigningKey(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrHolderKeyUnspecified, err)
		}

		holderOpts = append(holderOpts, holder.WithHolderVerification(&holder.BindingInfo{
			Payload: holder.BindingPayload{
				Nonce:    options.nonce,
				Audience: options.audience,
				IssuedAt: jwt.NewNumericDate(time.Now()),
			},
			Signer: &joseSigner{ctx: ctx, sc: sc, signer: s.signer},
		}))
	}

	presentation, err := holder.CreatePresentation(credential, selected, holderOpts...)
	if err != nil {
		return "", fmt.Errorf("failed to create presentation: %w", err)
	}

	return presentation, nil
}

// selectDisclosures maps claim names onto their encoded disclosures. Unknown
// names are rejected rather than silently dropped.
func selectDisclosures(claims map[string]interface{}, disclosures []string, disclose []string) ([]string, error) {
	if len(disclose) == 0 {
		return disclosures, nil
	}

	hash, err := common.GetCryptoHashFromClaims(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to get crypto hash from claims: %w", err)
	}

	disclosureClaims, err := common.GetDisclosureClaims(disclosures, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to decode disclosures: %w", err)
	}

	byName := make(map[string]string, len(disclosureClaims))
	for _, claim := range disclosureClaims {
		byName[claim.Name] = claim.Disclosure
	}

	selected := make([]string, 0, len(disclose))

	for _, name := range disclose {
		disclosure, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("claim %q has no disclosure", name)
		}

		selected = append(selected, disclosure)
	}

	return selected, nil
}
