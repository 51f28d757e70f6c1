package models

import "time"

// VaultItem is an envelope-encrypted piece of shared content. The plaintext is
// encrypted once under a random content key; the content key itself is stored
// only as per-recipient wrapped copies in [WrappedContentKey] records.
type VaultItem struct {
	// ID is the unique item identifier (UUID).
	ID string

	// OwnerID is the uploading identity. The owner always holds a wrapped
	// copy of the content key.
	OwnerID int64

	// Title is a caller-supplied display name. It is not confidential.
	Title string

	// Ciphertext is nonce || AES-GCM ciphertext of the plaintext content.
	Ciphertext []byte

	// Digest is the SHA-256 digest (hex) of the plaintext, recomputed and
	// compared on every decrypt before plaintext is released.
	Digest string

	CreatedAt time.Time

	// ExpiresAt, when non-nil, marks the item for read-time filtering and
	// eventual physical deletion.
	ExpiresAt *time.Time
}

// TableName returns the name of the database table
// associated with the VaultItem model.
func (v VaultItem) TableName() string {
	return "vault_items"
}

// WrappedContentKey is one recipient's independently-wrapped copy of a vault
// item's content key. Only the holder of the matching key-agreement private
// key can recover the content key from it.
type WrappedContentKey struct {
	ItemID      string
	RecipientID int64

	// EphemeralPublicKey is the X25519 public half of the ephemeral pair used
	// to derive this recipient's wrap key.
	EphemeralPublicKey []byte

	// WrappedKey is the content key encrypted under the derived wrap key.
	WrappedKey WrappedBlob
}

// TableName returns the name of the database table
// associated with the WrappedContentKey model.
func (w WrappedContentKey) TableName() string {
	return "vault_item_keys"
}

// ShareLink grants bearer access to a vault item: possession of the token is
// sufficient and necessary for decryption. The token itself is never stored —
// only its SHA-256 hash, so a store dump does not leak live capabilities and
// lookups carry no prefix-dependent timing.
type ShareLink struct {
	// TokenHash is the SHA-256 hex of the bearer token.
	TokenHash string

	ItemID string

	// WrappedKey is the item's content key encrypted under the bearer key
	// derived from the token.
	WrappedKey WrappedBlob

	CreatedAt time.Time
	ExpiresAt time.Time
}

// TableName returns the name of the database table
// associated with the ShareLink model.
func (s ShareLink) TableName() string {
	return "share_links"
}

// UploadResult is returned by a vault upload: the new item id plus the
// plaintext digest the caller can verify against after a later decrypt.
type UploadResult struct {
	ID     string `json:"id"`
	Digest string `json:"digest"`
}

// ShareLinkResult is returned when a share link is created.
type ShareLinkResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SharePayload is what an anonymous bearer receives for a valid token:
// everything needed to decrypt client-side, nothing that identifies a
// recipient account.
type SharePayload struct {
	Ciphertext []byte `json:"ciphertext"`
	WrappedKey []byte `json:"wrapped_key"`
	Digest     string `json:"digest"`
}
