// Package keystore provides an in-memory key store and identity manager for
// agents hosting the SD-JWT plugin. Keys never leave the store: callers hold
// opaque references and submit data to be signed.
package keystore

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/jose/jwk"
	"github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/jose/jwk/jwksupport"

	"github.com/pilacorp/go-sdjwt-sdk/did"
)

// Key is the public half of a stored key pair.
type Key struct {
	Ref       string
	Type      did.KeyType
	PublicKey *jwk.JWK
}

type storedKey struct {
	key     Key
	private interface{}
}

// Store is a thread-safe in-memory key store.
type Store struct {
	mu   sync.RWMutex
	keys map[string]*storedKey
}

// New creates an empty Store.
func New() *Store {
	return &Store{keys: make(map[string]*storedKey)}
}

// Create generates a new key pair of the given type and returns its public
// half. The returned Ref is the handle to use with Sign.
func (s *Store) Create(keyType did.KeyType) (*Key, error) {
	var (
		private   interface{}
		publicJWK *jwk.JWK
		err       error
	)

	switch keyType {
	case did.KeyTypeEd25519:
		var pub ed25519.PublicKey

		pub, private, err = ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to generate Ed25519 key: %w", err)
		}

		publicJWK, err = jwksupport.JWKFromKey(pub)
	case did.KeyTypeSecp256k1:
		secpKey, genErr := secp256k1.GeneratePrivateKey()
		if genErr != nil {
			return nil, fmt.Errorf("failed to generate secp256k1 key: %w", genErr)
		}

		ecKey := secpKey.ToECDSA()
		private = ecKey
		publicJWK, err = secp256k1JWK(&ecKey.PublicKey)
	case did.KeyTypeSecp256r1:
		ecKey, genErr := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if genErr != nil {
			return nil, fmt.Errorf("failed to generate P-256 key: %w", genErr)
		}

		private = ecKey
		publicJWK, err = jwksupport.JWKFromKey(&ecKey.PublicKey)
	default:
		return nil, fmt.Errorf("unsupported key type %q", keyType)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to build JWK for %s key: %w", keyType, err)
	}

	key := Key{
		Ref:       uuid.NewString(),
		Type:      keyType,
		PublicKey: publicJWK,
	}

	s.mu.Lock()
	s.keys[key.Ref] = &storedKey{key: key, private: private}
	s.mu.Unlock()

	return &key, nil
}

// Get returns the public half of a stored key.
func (s *Store) Get(ref string) (*Key, error) {
	s.mu.RLock()
	stored, ok := s.keys[ref]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("key %q not found", ref)
	}

	key := stored.key

	return &key, nil
}

// Sign signs data with the referenced key. Ed25519 keys sign the raw input;
// ECDSA keys sign its SHA-256 digest and return a raw R||S signature as
// required by the ES256 and ES256K JOSE algorithms.
func (s *Store) Sign(_ context.Context, ref string, data []byte) ([]byte, error) {
	s.mu.RLock()
	stored, ok := s.keys[ref]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("key %q not found", ref)
	}

	switch private := stored.private.(type) {
	case ed25519.PrivateKey:
		return ed25519.Sign(private, data), nil
	case *ecdsa.PrivateKey:
		hash := sha256.Sum256(data)

		if stored.key.Type == did.KeyTypeSecp256k1 {
			// go-ethereum emits [R || S || V]; JOSE wants only R || S.
			sig, err := ethcrypto.Sign(hash[:], private)
			if err != nil {
				return nil, fmt.Errorf("failed to sign with secp256k1 key: %w", err)
			}

			return sig[:64], nil
		}

		r, ss, err := ecdsa.Sign(rand.Reader, private, hash[:])
		if err != nil {
			return nil, fmt.Errorf("failed to sign with P-256 key: %w", err)
		}

		sig := make([]byte, 64)
		r.FillBytes(sig[:32])
		ss.FillBytes(sig[32:])

		return sig, nil
	default:
		return nil, fmt.Errorf("key %q has unusable private material", ref)
	}
}

// secp256k1JWK builds a JWK for a secp256k1 public key. The go-jose marshaller
// does not know the curve, so the JWK is assembled from raw coordinates.
func secp256k1JWK(pub *ecdsa.PublicKey) (*jwk.JWK, error) {
	coord := func(b []byte) string {
		return base64.RawURLEncoding.EncodeToString(b)
	}

	raw, err := json.Marshal(map[string]string{
		"kty": "EC",
		"crv": "secp256k1",
		"x":   coord(pub.X.FillBytes(make([]byte, 32))),
		"y":   coord(pub.Y.FillBytes(make([]byte, 32))),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal secp256k1 JWK: %w", err)
	}

	key := &jwk.JWK{}
	if err := key.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("failed to parse secp256k1 JWK: %w", err)
	}

	return key, nil
}
