package models

import "time"

// IdentityKeyMaterial holds the cryptographic key pairs bound to a single
// identity. Public halves are stored in clear; private halves exist at rest
// only as wrapped blobs and are unwrapped transiently inside a single engine
// operation.
//
// Rotation replaces the whole record (create-then-swap): the old wrapped blobs
// are discarded, never mutated in place.
type IdentityKeyMaterial struct {
	// IdentityID is the owning identity.
	IdentityID int64

	// SigningPublicKeyPEM is the PEM-encoded RSA-2048 public key used for
	// signatures and certificate binding.
	SigningPublicKeyPEM string

	// SigningPrivateKey is the custody-wrapped PEM of the RSA private key.
	SigningPrivateKey WrappedBlob

	// AgreementPublicKey is the raw X25519 public key (32 bytes) used for
	// key agreement in vault and message encryption.
	AgreementPublicKey []byte

	// AgreementPrivateKey is the custody-wrapped X25519 private key.
	AgreementPrivateKey WrappedBlob

	// CreatedAt is when this key material was generated. A rotation produces
	// a new CreatedAt together with the new key pairs.
	CreatedAt time.Time
}

// TableName returns the name of the database table
// associated with the IdentityKeyMaterial model.
func (m IdentityKeyMaterial) TableName() string {
	return "identity_keys"
}
