// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/MKhiriev/vaultwire/internal/crypto"
	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/internal/store"
	"github.com/MKhiriev/vaultwire/internal/utils"
	"github.com/MKhiriev/vaultwire/models"

	"github.com/cloudflare/circl/dh/x25519"
)

// vaultService is the envelope-encryption engine.
//
// Content is encrypted exactly once under a random content key; access is
// granted by wrapping that key per recipient (ephemeral x25519 + HKDF +
// AES-GCM) or under a bearer key derived from a share-link token. The content
// key is never persisted in clear anywhere.
type vaultService struct {
	vault      store.VaultRepository
	shareLinks store.ShareLinkRepository
	identities IdentityService
	custody    crypto.KeyCustody
	secret     crypto.MasterSecret
	uuid       *utils.UUIDGenerator
	logger     *logger.Logger
}

// NewVaultService constructs a VaultService.
func NewVaultService(vault store.VaultRepository, shareLinks store.ShareLinkRepository, identities IdentityService, custody crypto.KeyCustody, secret crypto.MasterSecret, logger *logger.Logger) VaultService {
	return &vaultService{
		vault:      vault,
		shareLinks: shareLinks,
		identities: identities,
		custody:    custody,
		secret:     secret,
		uuid:       utils.NewUUIDGenerator(),
		logger:     logger,
	}
}

// Upload encrypts the content under a fresh content key, computes the
// plaintext digest, and wraps the content key for the owner plus every
// distinct recipient. The item row and the full recipient set are stored in
// one transaction.
func (s *vaultService) Upload(ctx context.Context, ownerID int64, title string, content []byte, recipientIDs []int64) (models.UploadResult, error) {
	log := logger.FromContext(ctx)

	if len(content) == 0 {
		return models.UploadResult{}, ErrInvalidDataProvided
	}

	contentKey, err := s.custody.NewContentKey()
	if err != nil {
		return models.UploadResult{}, fmt.Errorf("generating content key: %w", err)
	}

	ciphertext, err := crypto.SealContent(contentKey, content)
	if err != nil {
		return models.UploadResult{}, fmt.Errorf("encrypting content: %w", err)
	}

	item := models.VaultItem{
		ID:         s.uuid.Generate(),
		OwnerID:    ownerID,
		Title:      title,
		Ciphertext: ciphertext,
		Digest:     crypto.Digest(content),
		CreatedAt:  time.Now(),
	}

	// the owner always holds a wrapped copy
	recipients := append([]int64{ownerID}, recipientIDs...)
	seen := make(map[int64]struct{}, len(recipients))
	keys := make([]models.WrappedContentKey, 0, len(recipients))

	for _, recipientID := range recipients {
		if _, dup := seen[recipientID]; dup {
			continue
		}
		seen[recipientID] = struct{}{}

		wrapped, wrapErr := s.wrapForRecipient(ctx, item.ID, recipientID, contentKey)
		if wrapErr != nil {
			log.Err(wrapErr).
				Str("func", "*vaultService.Upload").
				Int64("recipient_id", recipientID).
				Msg("failed to wrap content key for recipient")
			return models.UploadResult{}, wrapErr
		}
		keys = append(keys, wrapped)
	}

	if err := s.vault.SaveItem(ctx, item, keys); err != nil {
		return models.UploadResult{}, fmt.Errorf("saving vault item: %w", err)
	}

	log.Info().
		Str("func", "*vaultService.Upload").
		Str("item_id", item.ID).
		Int("recipients", len(keys)).
		Msg("vault item uploaded")

	return models.UploadResult{ID: item.ID, Digest: item.Digest}, nil
}

// Decrypt recovers the plaintext for a caller holding a wrapped content key.
// The stored digest is recomputed against the decrypted plaintext; a mismatch
// fails the whole operation instead of releasing suspect bytes.
func (s *vaultService) Decrypt(ctx context.Context, callerID int64, itemID string) ([]byte, error) {
	log := logger.FromContext(ctx)

	item, err := s.vault.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrVaultItemNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading vault item: %w", err)
	}

	wrappedKey, err := s.vault.GetWrappedKey(ctx, itemID, callerID)
	if err != nil {
		if errors.Is(err, store.ErrWrappedKeyNotFound) {
			log.Warn().
				Str("func", "*vaultService.Decrypt").
				Str("item_id", itemID).
				Int64("caller_id", callerID).
				Msg("caller holds no wrapped content key")
			return nil, ErrAccessDenied
		}
		return nil, fmt.Errorf("loading wrapped key: %w", err)
	}

	contentKey, err := s.unwrapForRecipient(ctx, callerID, wrappedKey)
	if err != nil {
		return nil, err
	}

	return s.openAndVerify(item, contentKey)
}

// CreateShareLink mints a bearer token for the item. Only the owner or a
// recipient already able to decrypt the item can create a link; the content
// key is recovered through the caller's own wrapped copy and re-wrapped under
// the key derived from the token.
func (s *vaultService) CreateShareLink(ctx context.Context, callerID int64, itemID string, expiryPreset string) (models.ShareLinkResult, error) {
	log := logger.FromContext(ctx)

	expiresAt, err := models.ExpiryFromPreset(expiryPreset, time.Now())
	if err != nil {
		return models.ShareLinkResult{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	if _, err := s.vault.GetItem(ctx, itemID); err != nil {
		if errors.Is(err, store.ErrVaultItemNotFound) {
			return models.ShareLinkResult{}, ErrNotFound
		}
		return models.ShareLinkResult{}, fmt.Errorf("loading vault item: %w", err)
	}

	wrappedKey, err := s.vault.GetWrappedKey(ctx, itemID, callerID)
	if err != nil {
		if errors.Is(err, store.ErrWrappedKeyNotFound) {
			return models.ShareLinkResult{}, ErrAccessDenied
		}
		return models.ShareLinkResult{}, fmt.Errorf("loading wrapped key: %w", err)
	}

	contentKey, err := s.unwrapForRecipient(ctx, callerID, wrappedKey)
	if err != nil {
		return models.ShareLinkResult{}, err
	}

	token, err := s.custody.NewShareToken()
	if err != nil {
		return models.ShareLinkResult{}, fmt.Errorf("generating share token: %w", err)
	}

	bearerKey, err := crypto.DeriveBearerKey(token)
	if err != nil {
		return models.ShareLinkResult{}, fmt.Errorf("deriving bearer key: %w", err)
	}

	wrappedForBearer, err := s.custody.WrapWith(bearerKey, contentKey)
	if err != nil {
		return models.ShareLinkResult{}, fmt.Errorf("wrapping content key for bearer: %w", err)
	}

	link := models.ShareLink{
		TokenHash:  crypto.HashToken(token),
		ItemID:     itemID,
		WrappedKey: wrappedForBearer,
		CreatedAt:  time.Now(),
		ExpiresAt:  expiresAt,
	}

	if err := s.shareLinks.Save(ctx, link); err != nil {
		return models.ShareLinkResult{}, fmt.Errorf("saving share link: %w", err)
	}

	log.Info().
		Str("func", "*vaultService.CreateShareLink").
		Str("item_id", itemID).
		Time("expires_at", expiresAt).
		Msg("share link created")

	return models.ShareLinkResult{Token: token, ExpiresAt: expiresAt}, nil
}

// FetchShareLink redeems a bearer token. The token is looked up by its hash;
// the bearer key derived from the presented token is the only thing that can
// open the stored wrapped content key.
func (s *vaultService) FetchShareLink(ctx context.Context, token string) (models.SharePayload, error) {
	log := logger.FromContext(ctx)

	link, err := s.shareLinks.GetByTokenHash(ctx, crypto.HashToken(token))
	if err != nil {
		if errors.Is(err, store.ErrShareLinkNotFound) {
			return models.SharePayload{}, ErrNotFound
		}
		return models.SharePayload{}, fmt.Errorf("loading share link: %w", err)
	}

	if time.Now().After(link.ExpiresAt) {
		log.Warn().
			Str("func", "*vaultService.FetchShareLink").
			Str("item_id", link.ItemID).
			Msg("share link expired")
		return models.SharePayload{}, ErrShareLinkExpired
	}

	item, err := s.vault.GetItem(ctx, link.ItemID)
	if err != nil {
		if errors.Is(err, store.ErrVaultItemNotFound) {
			return models.SharePayload{}, ErrNotFound
		}
		return models.SharePayload{}, fmt.Errorf("loading vault item: %w", err)
	}

	// the bearer re-derives the wrap key from the token and decrypts
	// locally; plaintext never leaves the client
	return models.SharePayload{
		Ciphertext: item.Ciphertext,
		WrappedKey: link.WrappedKey.Encode(),
		Digest:     item.Digest,
	}, nil
}

// wrapForRecipient seals the content key to the recipient's key-agreement
// public key: an ephemeral x25519 pair is generated, the shared secret with
// the recipient's static public key is expanded via HKDF, and the content key
// is encrypted under the result. Only the recipient's static private key can
// re-derive the same wrap key.
func (s *vaultService) wrapForRecipient(ctx context.Context, itemID string, recipientID int64, contentKey []byte) (models.WrappedContentKey, error) {
	material, err := s.identities.EnsureIdentityKeys(ctx, recipientID)
	if err != nil {
		return models.WrappedContentKey{}, err
	}

	var ephemeralPrivate, ephemeralPublic x25519.Key
	if _, err := io.ReadFull(rand.Reader, ephemeralPrivate[:]); err != nil {
		return models.WrappedContentKey{}, fmt.Errorf("generating ephemeral key: %w", err)
	}
	x25519.KeyGen(&ephemeralPublic, &ephemeralPrivate)

	wrapKey, err := s.custody.DeriveSharedSecret(ephemeralPrivate[:], material.AgreementPublicKey, []byte(crypto.ContentWrapContext))
	if err != nil {
		return models.WrappedContentKey{}, fmt.Errorf("deriving wrap key: %w", err)
	}

	wrapped, err := s.custody.WrapWith(wrapKey, contentKey)
	if err != nil {
		return models.WrappedContentKey{}, fmt.Errorf("wrapping content key: %w", err)
	}

	return models.WrappedContentKey{
		ItemID:             itemID,
		RecipientID:        recipientID,
		EphemeralPublicKey: ephemeralPublic[:],
		WrappedKey:         wrapped,
	}, nil
}

// unwrapForRecipient recovers the content key through the caller's wrapped
// copy: the caller's custody-wrapped agreement key is transiently unwrapped,
// the shared secret with the stored ephemeral public key is re-derived, and
// the content key is opened.
func (s *vaultService) unwrapForRecipient(ctx context.Context, callerID int64, wrappedKey models.WrappedContentKey) ([]byte, error) {
	material, err := s.identities.EnsureIdentityKeys(ctx, callerID)
	if err != nil {
		return nil, err
	}

	agreementPrivate, err := s.custody.Unwrap(s.secret, material.AgreementPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("unwrapping agreement key: %w", err)
	}

	wrapKey, err := s.custody.DeriveSharedSecret(agreementPrivate, wrappedKey.EphemeralPublicKey, []byte(crypto.ContentWrapContext))
	if err != nil {
		return nil, fmt.Errorf("deriving wrap key: %w", err)
	}

	contentKey, err := s.custody.UnwrapWith(wrapKey, wrappedKey.WrappedKey)
	if err != nil {
		return nil, fmt.Errorf("unwrapping content key: %w", err)
	}

	return contentKey, nil
}

// openAndVerify decrypts the item ciphertext and recomputes the plaintext
// digest against the stored one before releasing anything.
func (s *vaultService) openAndVerify(item models.VaultItem, contentKey []byte) ([]byte, error) {
	plaintext, err := crypto.OpenContent(contentKey, item.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", crypto.ErrIntegrityMismatch, err)
	}

	if crypto.Digest(plaintext) != item.Digest {
		return nil, crypto.ErrIntegrityMismatch
	}

	return plaintext, nil
}
