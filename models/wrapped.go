package models

import "errors"

// WrappedBlobVersion is the current on-disk format version for wrapped key
// material. Bump it when the wrap algorithm or layout changes so that older
// records stay readable during a migration window.
const WrappedBlobVersion = 1

// ErrMalformedBlob is returned by DecodeWrappedBlob when the encoded bytes are
// too short to contain a version tag, a nonce, and a ciphertext.
var ErrMalformedBlob = errors.New("malformed wrapped blob")

// gcmNonceSize is the nonce length of AES-GCM as used by the custody layer.
const gcmNonceSize = 12

// WrappedBlob is the at-rest form of a secret: the result of authenticated
// encryption under the process master secret (or a derived key). The plaintext
// it protects never persists anywhere.
type WrappedBlob struct {
	// Version is the format-version tag carried with every persisted blob.
	Version uint8

	// Nonce is the unique AES-GCM nonce used for this blob.
	Nonce []byte

	// Ciphertext holds the encrypted secret including the GCM integrity tag.
	Ciphertext []byte
}

// Encode serializes the blob to version || nonce || ciphertext for storage in
// a single binary column.
func (b WrappedBlob) Encode() []byte {
	out := make([]byte, 0, 1+len(b.Nonce)+len(b.Ciphertext))
	out = append(out, b.Version)
	out = append(out, b.Nonce...)
	out = append(out, b.Ciphertext...)
	return out
}

// DecodeWrappedBlob parses the version || nonce || ciphertext layout produced
// by [WrappedBlob.Encode]. Returns [ErrMalformedBlob] if the input is shorter
// than the fixed-size prefix.
func DecodeWrappedBlob(raw []byte) (WrappedBlob, error) {
	if len(raw) < 1+gcmNonceSize {
		return WrappedBlob{}, ErrMalformedBlob
	}

	return WrappedBlob{
		Version:    raw[0],
		Nonce:      raw[1 : 1+gcmNonceSize],
		Ciphertext: raw[1+gcmNonceSize:],
	}, nil
}
