package store

import (
	"context"
	"time"

	"github.com/MKhiriev/vaultwire/models"
)

// IdentityKeyRepository persists per-identity key material. Private halves
// arrive already custody-wrapped; the repository never sees plaintext keys.
type IdentityKeyRepository interface {
	// Save stores the key material, replacing any previous record for the
	// same identity in a single atomic statement (create-then-swap).
	Save(ctx context.Context, material models.IdentityKeyMaterial) error

	// Create inserts the key material only when the identity has none yet.
	// Returns false without error when a record already exists; the stored
	// record is never overwritten.
	Create(ctx context.Context, material models.IdentityKeyMaterial) (bool, error)

	// Get returns the identity's key material or [ErrIdentityKeysNotFound].
	Get(ctx context.Context, identityID int64) (models.IdentityKeyMaterial, error)
}

// CARootRepository manages the singleton certificate-authority root record.
type CARootRepository interface {
	// CreateWithCertificate inserts the root row and its self-signed
	// certificate inside a single transaction. Exactly one caller can ever
	// succeed; losers of the creation race receive [ErrCARootExists], and a
	// failed certificate insert rolls the root row back so a retry is clean.
	CreateWithCertificate(ctx context.Context, root models.CARoot, cert models.Certificate) error

	// Get returns the root row or [ErrCARootNotFound].
	Get(ctx context.Context) (models.CARoot, error)
}

// CertificateRepository persists certificates and performs the atomic status
// transitions the authority's invariants depend on.
type CertificateRepository interface {
	// Create inserts a certificate. Inserting an active certificate for a
	// subject that already has one fails with [ErrActiveCertificateExists]
	// (enforced by a partial unique index, not application logic).
	Create(ctx context.Context, cert models.Certificate) error

	// Get returns the certificate with the given serial or
	// [ErrCertificateNotFound].
	Get(ctx context.Context, serial string) (models.Certificate, error)

	// GetActive returns the subject's current active certificate or
	// [ErrActiveCertificateNotFound].
	GetActive(ctx context.Context, subjectID int64) (models.Certificate, error)

	// Renew supersedes the subject's current active certificate and inserts
	// next inside a single transaction. A concurrent renewal that commits
	// first causes [ErrActiveCertificateExists]; nothing is left half-done.
	Renew(ctx context.Context, subjectID int64, next models.Certificate) error

	// Revoke marks the certificate revoked. Irreversible. Returns
	// [ErrCertificateNotFound] for an unknown serial.
	Revoke(ctx context.Context, serial string) error
}

// VaultRepository persists envelope-encrypted vault items together with their
// per-recipient wrapped content keys.
type VaultRepository interface {
	// SaveItem stores the item and all wrapped keys in one transaction:
	// either the full recipient set is persisted or nothing is.
	SaveItem(ctx context.Context, item models.VaultItem, keys []models.WrappedContentKey) error

	// GetItem returns the vault item or [ErrVaultItemNotFound].
	GetItem(ctx context.Context, itemID string) (models.VaultItem, error)

	// GetWrappedKey returns the recipient's wrapped content key for the item
	// or [ErrWrappedKeyNotFound].
	GetWrappedKey(ctx context.Context, itemID string, recipientID int64) (models.WrappedContentKey, error)
}

// ShareLinkRepository persists bearer share links keyed by token hash.
type ShareLinkRepository interface {
	Save(ctx context.Context, link models.ShareLink) error

	// GetByTokenHash returns the link for the hashed token or
	// [ErrShareLinkNotFound].
	GetByTokenHash(ctx context.Context, tokenHash string) (models.ShareLink, error)

	// DeleteExpired removes links whose expiry lies before now and reports
	// how many were deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// MessageRepository persists expiring encrypted direct messages.
type MessageRepository interface {
	// Save inserts the message. Returns false when the (sender, messageId)
	// pair already exists — the retransmission is a no-op republish.
	Save(ctx context.Context, message models.Message) (bool, error)

	// GetThread returns all unexpired messages between the two identities in
	// both directions, ordered by creation time.
	GetThread(ctx context.Context, firstID, secondID int64, now time.Time) ([]models.Message, error)

	// DeleteExpired removes messages whose expiry lies before now and
	// reports how many were deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SignatureRepository persists issued signature bundles for audit.
type SignatureRepository interface {
	Save(ctx context.Context, bundle models.SignatureBundle) error
}
