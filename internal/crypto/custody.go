// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"io"

	"github.com/cloudflare/circl/dh/x25519"
	"golang.org/x/crypto/hkdf"

	"github.com/MKhiriev/vaultwire/models"
)

// signingKeyBits is the RSA modulus size of identity signing keys.
const signingKeyBits = 2048

// shareTokenSize is the entropy of a bearer share token in bytes.
const shareTokenSize = 32

// keyCustody is the private implementation of [KeyCustody].
type keyCustody struct{}

// NewKeyCustody constructs the production [KeyCustody]. It is stateless:
// every Wrap/Unwrap receives its controlling secret explicitly, so the same
// instance serves all engines concurrently without locking.
func NewKeyCustody() KeyCustody {
	return &keyCustody{}
}

// GenerateIdentityKeys implements [KeyCustody]. The RSA pair is PEM-encoded
// (PKCS#1) the way certificates and signature verification expect it; the
// X25519 pair is returned as raw 32-byte values.
func (c *keyCustody) GenerateIdentityKeys() (IdentityKeys, error) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, signingKeyBits)
	if err != nil {
		return IdentityKeys{}, fmt.Errorf("%w: rsa: %w", ErrKeyGenerationFailed, err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(rsaKey),
	})
	pubPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(&rsaKey.PublicKey),
	})

	var agreementPriv, agreementPub x25519.Key
	if _, err := io.ReadFull(rand.Reader, agreementPriv[:]); err != nil {
		return IdentityKeys{}, fmt.Errorf("%w: x25519: %w", ErrKeyGenerationFailed, err)
	}
	x25519.KeyGen(&agreementPub, &agreementPriv)

	return IdentityKeys{
		SigningPublicKeyPEM:  string(pubPEM),
		SigningPrivateKeyPEM: privPEM,
		AgreementPublicKey:   append([]byte(nil), agreementPub[:]...),
		AgreementPrivateKey:  append([]byte(nil), agreementPriv[:]...),
	}, nil
}

// Wrap implements [KeyCustody].
func (c *keyCustody) Wrap(secret MasterSecret, key []byte) (models.WrappedBlob, error) {
	if secret.IsZero() {
		return models.WrappedBlob{}, ErrKeyUnavailable
	}
	return c.WrapWith(secret[:], key)
}

// WrapWith implements [KeyCustody]. The blob carries the current format
// version so the wrap algorithm can evolve without breaking older records.
func (c *keyCustody) WrapWith(key, plaintext []byte) (models.WrappedBlob, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return models.WrappedBlob{}, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return models.WrappedBlob{}, fmt.Errorf("generate nonce: %w", err)
	}

	return models.WrappedBlob{
		Version:    models.WrappedBlobVersion,
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, plaintext, nil),
	}, nil
}

// Unwrap implements [KeyCustody].
func (c *keyCustody) Unwrap(secret MasterSecret, blob models.WrappedBlob) ([]byte, error) {
	if secret.IsZero() {
		return nil, ErrKeyUnavailable
	}
	return c.UnwrapWith(secret[:], blob)
}

// UnwrapWith implements [KeyCustody]. A version the process does not know how
// to decrypt is indistinguishable from corruption for the caller, so both
// surface as ErrIntegrityMismatch.
func (c *keyCustody) UnwrapWith(key []byte, blob models.WrappedBlob) ([]byte, error) {
	if blob.Version != models.WrappedBlobVersion {
		return nil, fmt.Errorf("%w: unsupported blob version %d", ErrIntegrityMismatch, blob.Version)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(blob.Nonce) != gcm.NonceSize() {
		return nil, ErrIntegrityMismatch
	}

	plaintext, err := gcm.Open(nil, blob.Nonce, blob.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntegrityMismatch, err)
	}

	return plaintext, nil
}

// DeriveSharedSecret implements [KeyCustody].
func (c *keyCustody) DeriveSharedSecret(privateKey, publicKey, info []byte) ([]byte, error) {
	if len(privateKey) != x25519.Size || len(publicKey) != x25519.Size {
		return nil, ErrSharedSecretDerivation
	}

	var priv, pub, shared x25519.Key
	copy(priv[:], privateKey)
	copy(pub[:], publicKey)

	if ok := x25519.Shared(&shared, &priv, &pub); !ok {
		return nil, ErrSharedSecretDerivation
	}

	return deriveKey(shared[:], nil, info, 32)
}

// NewContentKey implements [KeyCustody].
func (c *keyCustody) NewContentKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("%w: content key: %w", ErrKeyGenerationFailed, err)
	}
	return key, nil
}

// NewShareToken implements [KeyCustody].
func (c *keyCustody) NewShareToken() (string, error) {
	raw := make([]byte, shareTokenSize)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("%w: share token: %w", ErrKeyGenerationFailed, err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// newGCM builds an AES-256-GCM AEAD from a 32-byte key.
func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return gcm, nil
}

// deriveKey expands secret into length key bytes with HKDF-SHA256. The info
// string domain-separates different uses of the same secret.
func deriveKey(secret, salt, info []byte, length int) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, salt, info)
	key := make([]byte, length)

	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	return key, nil
}
