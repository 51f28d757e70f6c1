// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import "errors"

// Sentinel errors returned by the custody layer. Callers should match against
// them with [errors.Is].
var (
	// ErrKeyGenerationFailed is returned when the underlying randomness
	// source or a cryptographic primitive fails during key generation.
	// It is fatal for the operation: no degraded keys are ever returned.
	ErrKeyGenerationFailed = errors.New("key generation failed")

	// ErrKeyUnavailable is returned by Unwrap when no master secret is
	// available to decrypt the blob.
	ErrKeyUnavailable = errors.New("master secret unavailable")

	// ErrIntegrityMismatch is returned when an authenticated decryption does
	// not verify: the blob was tampered with, corrupted, or wrapped under a
	// different secret. The caller receives no partial plaintext.
	ErrIntegrityMismatch = errors.New("integrity check failed")

	// ErrInvalidMasterSecret is returned when the operator-supplied master
	// secret is not exactly 64 hex characters (32 bytes). The process must
	// refuse to start in that case.
	ErrInvalidMasterSecret = errors.New("master secret must be exactly 64 hex chars (32 bytes)")

	// ErrSharedSecretDerivation is returned when X25519 key agreement fails,
	// e.g. for a low-order public key.
	ErrSharedSecretDerivation = errors.New("shared secret derivation failed")
)
