package crypto

import "github.com/MKhiriev/vaultwire/models"

// KeyCustody is the only boundary through which private key material is
// generated, protected at rest, and transiently recovered. It knows nothing
// about the network, the database, or identities; its single job is to
// generate and protect keys.
//
// Scheme of work:
//
//	keys      = GenerateIdentityKeys()              (per identity, once)
//	blob      = Wrap(secret, privateKeyBytes)       (at-rest protection)
//	plaintext = Unwrap(secret, blob)                (transient, in-operation)
//	shared    = DeriveSharedSecret(priv, pub, info) (vault + message engines)
type KeyCustody interface {
	// GenerateIdentityKeys produces a fresh RSA-2048 signing/transport pair
	// and an X25519 key-agreement pair. Private halves are returned in clear
	// and must be wrapped before leaving the calling operation. Fails with
	// ErrKeyGenerationFailed if any underlying primitive errors; it never
	// returns degraded keys.
	GenerateIdentityKeys() (IdentityKeys, error)

	// Wrap authenticated-encrypts key bytes under the master secret,
	// producing a versioned blob safe to persist.
	Wrap(secret MasterSecret, key []byte) (models.WrappedBlob, error)

	// WrapWith is Wrap under an arbitrary 32-byte key instead of the master
	// secret. Used for per-recipient content-key wrapping and bearer keys.
	WrapWith(key, plaintext []byte) (models.WrappedBlob, error)

	// Unwrap decrypts and integrity-checks a wrapped blob. Fails with
	// ErrKeyUnavailable when the secret is absent and ErrIntegrityMismatch
	// when the tag or the format version does not verify. No partial
	// plaintext is ever returned.
	Unwrap(secret MasterSecret, blob models.WrappedBlob) ([]byte, error)

	// UnwrapWith is Unwrap under an arbitrary 32-byte key.
	UnwrapWith(key []byte, blob models.WrappedBlob) ([]byte, error)

	// DeriveSharedSecret runs X25519 between the given private and public
	// keys and expands the result with HKDF-SHA256 using info for domain
	// separation. Returns a 32-byte key.
	DeriveSharedSecret(privateKey, publicKey, info []byte) ([]byte, error)

	// NewContentKey returns 32 random bytes for envelope encryption.
	NewContentKey() ([]byte, error)

	// NewShareToken returns an unguessable bearer token with at least
	// 128 bits of entropy, base64url-encoded.
	NewShareToken() (string, error)
}

// IdentityKeys is the in-memory result of identity key generation. Private
// halves must be wrapped before storage; the struct itself is never persisted.
type IdentityKeys struct {
	SigningPublicKeyPEM  string
	SigningPrivateKeyPEM []byte
	AgreementPublicKey   []byte
	AgreementPrivateKey  []byte
}
