package models

import "time"

// SignatureBundle is a detached signature over a content digest plus a
// snapshot of the signer's certificate at signing time. The snapshot lets
// verification judge the certificate as it stood when the signature was made.
type SignatureBundle struct {
	SignerID int64 `json:"signer_id"`

	// Digest is the SHA-256 digest (hex) of the signed content.
	Digest string `json:"digest"`

	// Signature is the base64 RSA PKCS#1 v1.5 signature over the digest.
	Signature string `json:"signature"`

	// CertificateSerial and CertificateFingerprint reference the signer's
	// certificate at signing time.
	CertificateSerial      string `json:"certificate_serial"`
	CertificateFingerprint string `json:"certificate_fingerprint"`

	SignedAt time.Time `json:"signed_at"`
}

// TableName returns the name of the database table
// associated with the SignatureBundle model.
func (s SignatureBundle) TableName() string {
	return "signatures"
}

// Verification failure reasons. "Not valid" is an expected outcome, so these
// travel inside [VerifyResult] instead of being raised as errors.
const (
	ReasonHashMismatch       = "HASH_MISMATCH"
	ReasonSignatureInvalid   = "SIGNATURE_INVALID"
	ReasonCertificateRevoked = "CERTIFICATE_REVOKED"
	ReasonCertificateExpired = "CERTIFICATE_EXPIRED"
	ReasonCertificateUnknown = "CERTIFICATE_UNKNOWN"
)

// VerifyResult is the structured outcome of a bundle verification.
type VerifyResult struct {
	OK bool `json:"ok"`

	// Reason is set when OK is false.
	Reason string `json:"reason,omitempty"`
}
