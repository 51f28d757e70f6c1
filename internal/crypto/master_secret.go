// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import "encoding/hex"

// MasterSecretSize is the required length of the process-wide master secret
// in bytes.
const MasterSecretSize = 32

// MasterSecret is the operator-supplied process-wide secret that protects all
// wrapped key material at rest. It is parsed and validated exactly once at
// startup and is read-only afterwards.
//
// The secret is an explicit parameter of every Wrap/Unwrap call rather than
// ambient package state, so tests can substitute alternate secrets.
type MasterSecret [MasterSecretSize]byte

// ParseMasterSecret decodes and validates the hex-encoded master secret from
// configuration. Returns [ErrInvalidMasterSecret] unless the input is exactly
// 64 hex characters.
func ParseMasterSecret(hexSecret string) (MasterSecret, error) {
	var secret MasterSecret

	if len(hexSecret) != hex.EncodedLen(MasterSecretSize) {
		return MasterSecret{}, ErrInvalidMasterSecret
	}

	if _, err := hex.Decode(secret[:], []byte(hexSecret)); err != nil {
		return MasterSecret{}, ErrInvalidMasterSecret
	}

	return secret, nil
}

// IsZero reports whether the secret is unset. An all-zero value is treated
// as an absent secret, never as a usable key.
func (s MasterSecret) IsZero() bool {
	for _, b := range s {
		if b != 0 {
			return false
		}
	}
	return true
}
