package service

import (
	"context"
	"time"

	"github.com/MKhiriev/vaultwire/models"
)

// IdentityService manages per-identity key material lifecycle. It is the only
// service that writes identity keys; every other engine reads through it.
type IdentityService interface {
	// EnsureIdentityKeys returns the identity's key material, generating and
	// persisting a fresh set on first use. When two first-touch callers
	// race, exactly one generated set is persisted and both callers receive
	// it; material handed out always matches the stored record.
	EnsureIdentityKeys(ctx context.Context, identityID int64) (models.IdentityKeyMaterial, error)

	// GetIdentityKeys returns the identity's key material without creating
	// any. Fails with [store.ErrIdentityKeysNotFound] when the identity has
	// never provisioned keys.
	GetIdentityKeys(ctx context.Context, identityID int64) (models.IdentityKeyMaterial, error)

	// RotateIdentityKeys generates a new key set and atomically replaces the
	// old record (create-then-swap). Content wrapped for the old keys stays
	// readable only until rotation; callers own re-sharing.
	RotateIdentityKeys(ctx context.Context, identityID int64) (models.IdentityKeyMaterial, error)
}

// CertificateAuthorityService issues and validates certificates under a single
// custody-wrapped root.
type CertificateAuthorityService interface {
	// InitCA creates the root key pair and self-signed root certificate.
	// Exactly one concurrent caller succeeds; the rest get
	// [ErrAlreadyInitialized].
	InitCA(ctx context.Context) (models.CARoot, error)

	// Issue creates a root-signed certificate for the subject's current
	// signing key. Fails with [ErrCANotInitialized] before InitCA, with
	// [ErrNotFound] when the subject has never provisioned key material,
	// and with the store's active-certificate conflict if the subject
	// already holds one. Issuance never creates key material.
	Issue(ctx context.Context, subjectID int64) (models.Certificate, error)

	// Renew supersedes the subject's active certificate and issues a
	// replacement in one atomic step. Fails with [ErrNotFound] when the
	// subject has no provisioned key material.
	Renew(ctx context.Context, subjectID int64) (models.Certificate, error)

	// Revoke irreversibly marks the certificate revoked.
	Revoke(ctx context.Context, serial string) error

	// Validate reports the certificate's state as of the given time.
	// An unknown serial yields [models.StateUnknown], not an error.
	Validate(ctx context.Context, serial string, at time.Time) (models.CertificateState, error)

	// ValidateSubject reports the state of the subject's active certificate.
	ValidateSubject(ctx context.Context, subjectID int64, at time.Time) (models.CertificateState, error)
}

// VaultService is the envelope-encryption engine for shared content.
type VaultService interface {
	// Upload encrypts content under a fresh content key and wraps that key
	// for the owner plus every listed recipient.
	Upload(ctx context.Context, ownerID int64, title string, content []byte, recipientIDs []int64) (models.UploadResult, error)

	// Decrypt recovers the plaintext for a caller holding a wrapped content
	// key. Callers without one get [ErrAccessDenied]; a digest mismatch
	// after decryption fails rather than releasing suspect plaintext.
	Decrypt(ctx context.Context, callerID int64, itemID string) ([]byte, error)

	// CreateShareLink mints a bearer token granting decryption of the item
	// to anyone who holds it, valid for the preset duration.
	CreateShareLink(ctx context.Context, callerID int64, itemID string, expiryPreset string) (models.ShareLinkResult, error)

	// FetchShareLink redeems a bearer token, returning the item ciphertext,
	// the bearer-wrapped content key and the plaintext digest; decryption
	// happens on the bearer's side. Unknown tokens yield [ErrNotFound],
	// expired ones [ErrShareLinkExpired].
	FetchShareLink(ctx context.Context, token string) (models.SharePayload, error)
}

// MessageService is the end-to-end message encryption engine.
type MessageService interface {
	// Send encrypts and stores an expiring message. The bool reports whether
	// a new message was created; a retry with the same MessageID returns
	// false without side effects.
	Send(ctx context.Context, request models.SendMessageRequest) (bool, error)

	// FetchThread returns the decrypted two-way conversation between the
	// caller and the other identity, unexpired messages only, oldest first.
	// Entries that no longer decrypt, for example after a key rotation, are
	// skipped rather than failing the whole thread.
	FetchThread(ctx context.Context, callerID, otherID int64) ([]models.ThreadEntry, error)
}

// SignatureService produces and verifies detached signature bundles.
type SignatureService interface {
	// Sign produces a signature bundle over the content using the signer's
	// custody-wrapped key, snapshotting the active certificate.
	Sign(ctx context.Context, signerID int64, content []byte) (models.SignatureBundle, error)

	// VerifyBundle checks a bundle against fresh content. "Not valid" is a
	// result, not an error: the returned [models.VerifyResult] carries the
	// first failed check as its reason.
	VerifyBundle(ctx context.Context, content []byte, bundle models.SignatureBundle) (models.VerifyResult, error)
}
