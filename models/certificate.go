package models

import "time"

// Stored certificate statuses. Expired is deliberately absent: expiry is a
// read-time derived view computed against ExpiresAt, never an eager update.
const (
	CertificateActive     = "active"
	CertificateSuperseded = "superseded"
	CertificateRevoked    = "revoked"
)

// Issuer values recorded on certificates.
const (
	IssuerRoot = "root"
	IssuerSelf = "self"
)

// CertificateState is the result of validating a certificate at a point in
// time. It folds the stored status together with the derived expiry view.
type CertificateState string

const (
	StateActive     CertificateState = "active"
	StateExpired    CertificateState = "expired"
	StateRevoked    CertificateState = "revoked"
	StateSuperseded CertificateState = "superseded"
	StateUnknown    CertificateState = "unknown"
)

// Certificate binds a subject identity to a public-key fingerprint under the
// authority's root signature, with a validity window and revocation status.
type Certificate struct {
	// Serial is the unique, randomly generated certificate serial.
	Serial string

	// SubjectID is the identity the certificate is issued to.
	SubjectID int64

	// Issuer is [IssuerRoot] for subject certificates and [IssuerSelf] for
	// the root's own certificate.
	Issuer string

	// PublicKeyFingerprint is the SHA-256 fingerprint (hex) of the subject's
	// signing public key PEM at issuance time.
	PublicKeyFingerprint string

	// Signature is the base64 root signature over the certificate payload.
	Signature string

	IssuedAt  time.Time
	ExpiresAt time.Time

	// Status is one of the stored statuses above.
	Status string
}

// StateAt derives the validation state of the certificate at the given time.
// Revocation and supersession win over expiry so that an auditor sees why a
// certificate left service, not merely that it is old.
func (c Certificate) StateAt(at time.Time) CertificateState {
	switch c.Status {
	case CertificateRevoked:
		return StateRevoked
	case CertificateSuperseded:
		return StateSuperseded
	}

	if at.After(c.ExpiresAt) {
		return StateExpired
	}

	return StateActive
}

// TableName returns the name of the database table
// associated with the Certificate model.
func (c Certificate) TableName() string {
	return "certificates"
}

// CARoot is the singleton root record of the certificate authority. Exactly
// one row exists in the store; creation races are settled by a database
// uniqueness constraint, not by in-process state.
type CARoot struct {
	// SigningPublicKeyPEM is the PEM-encoded RSA root public key.
	SigningPublicKeyPEM string

	// SigningPrivateKey is the custody-wrapped root private key.
	SigningPrivateKey WrappedBlob

	// Fingerprint is the SHA-256 fingerprint (hex) of the root public key.
	Fingerprint string

	CreatedAt time.Time
}
