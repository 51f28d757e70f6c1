// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
)

// Context strings for HKDF domain separation. Each derived-key purpose gets
// its own info string so the same secret never yields the same key twice.
const (
	BearerKeyContext    = "vaultwire:share:v1"
	ContentWrapContext  = "vaultwire:vault:v1"
	MessageKeyContext   = "vaultwire:message:v1"
	messageNonceContext = "vaultwire:message-nonce:v1"
)

// ParseSigningPrivateKey decodes a PEM-encoded PKCS#1 RSA private key as
// produced by [KeyCustody.GenerateIdentityKeys].
func ParseSigningPrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("invalid PEM data for signing private key")
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse signing private key: %w", err)
	}

	return key, nil
}

// ParseSigningPublicKey decodes a PEM-encoded PKCS#1 RSA public key.
func ParseSigningPublicKey(pemStr string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, errors.New("invalid PEM data for signing public key")
	}

	key, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse signing public key: %w", err)
	}

	return key, nil
}

// Fingerprint computes the SHA-256 fingerprint (hex) of a public key PEM.
// Certificates store this value so validation never needs the full key.
func Fingerprint(publicKeyPEM string) string {
	sum := sha256.Sum256([]byte(publicKeyPEM))
	return hex.EncodeToString(sum[:])
}

// Digest computes the SHA-256 content digest (hex) used for vault integrity
// checks and signature bundles.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// HashToken computes the SHA-256 hex of a bearer token. Only the hash is
// persisted, which makes the lookup key equivalent in secrecy to a password
// hash and keeps token comparison free of prefix-dependent timing.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// DeriveBearerKey derives the 32-byte decryption key a share-link bearer gets
// from the token alone. Possession of the token is the whole credential.
func DeriveBearerKey(token string) ([]byte, error) {
	return deriveKey([]byte(token), nil, []byte(BearerKeyContext), 32)
}

// DeriveMessageNonce maps the client-supplied nonce string onto a fixed-size
// GCM nonce. Deterministic on purpose: a retransmission with the same inputs
// produces the same ciphertext, which keeps idempotent sends byte-stable.
func DeriveMessageNonce(nonce string) ([]byte, error) {
	return deriveKey([]byte(nonce), nil, []byte(messageNonceContext), 12)
}

// SealContent AES-256-GCM encrypts content under a 32-byte key, returning
// nonce || ciphertext. This is the bulk-data shape; key material uses the
// versioned [models.WrappedBlob] format instead.
func SealContent(key, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// OpenContent reverses [SealContent]. Share-link bearers call this locally
// after unwrapping the content key; the server never sees their plaintext.
func OpenContent(key, data []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(data) < gcm.NonceSize() {
		return nil, errors.New("ciphertext shorter than nonce")
	}

	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertext, nil)
}
