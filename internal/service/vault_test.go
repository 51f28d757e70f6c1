// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/vaultwire/internal/crypto"
	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/models"
)

func newTestVaultService(t *testing.T) (VaultService, *fakeVaultRepository, *fakeShareLinkRepository) {
	t.Helper()

	secret := testMasterSecret()
	custody := crypto.NewKeyCustody()
	log := logger.Nop()

	identities := NewIdentityService(newFakeIdentityKeyRepository(), custody, secret, log)
	vault := newFakeVaultRepository()
	shareLinks := newFakeShareLinkRepository()
	svc := NewVaultService(vault, shareLinks, identities, custody, secret, log)

	return svc, vault, shareLinks
}

func TestVaultUploadDecrypt(t *testing.T) {
	ctx := context.Background()
	content := []byte("VaultWire smoke content")

	t.Run("success: owner and recipient can decrypt, outsider cannot", func(t *testing.T) {
		svc, _, _ := newTestVaultService(t)

		result, err := svc.Upload(ctx, 1, "notes", content, []int64{2})
		require.NoError(t, err)
		assert.NotEmpty(t, result.ID)
		assert.NotEmpty(t, result.Digest)

		ownerPlain, err := svc.Decrypt(ctx, 1, result.ID)
		require.NoError(t, err)
		assert.Equal(t, content, ownerPlain)

		recipientPlain, err := svc.Decrypt(ctx, 2, result.ID)
		require.NoError(t, err)
		assert.Equal(t, content, recipientPlain)

		_, err = svc.Decrypt(ctx, 3, result.ID)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("error: unknown item", func(t *testing.T) {
		svc, _, _ := newTestVaultService(t)

		_, err := svc.Decrypt(ctx, 1, "no-such-item")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("error: empty content rejected", func(t *testing.T) {
		svc, _, _ := newTestVaultService(t)

		_, err := svc.Upload(ctx, 1, "empty", nil, nil)
		assert.ErrorIs(t, err, ErrInvalidDataProvided)
	})

	t.Run("error: flipped ciphertext bit fails integrity", func(t *testing.T) {
		svc, vault, _ := newTestVaultService(t)

		result, err := svc.Upload(ctx, 1, "notes", content, nil)
		require.NoError(t, err)

		item := vault.items[result.ID]
		item.Ciphertext[len(item.Ciphertext)/2] ^= 0x01
		vault.items[result.ID] = item

		_, err = svc.Decrypt(ctx, 1, result.ID)
		assert.ErrorIs(t, err, crypto.ErrIntegrityMismatch)
	})
}

func TestShareLinks(t *testing.T) {
	ctx := context.Background()
	content := []byte("shared through a link")

	t.Run("success: bearer decrypts locally from the payload", func(t *testing.T) {
		svc, _, _ := newTestVaultService(t)

		result, err := svc.Upload(ctx, 1, "notes", content, nil)
		require.NoError(t, err)

		link, err := svc.CreateShareLink(ctx, 1, result.ID, "1h")
		require.NoError(t, err)
		assert.NotEmpty(t, link.Token)

		payload, err := svc.FetchShareLink(ctx, link.Token)
		require.NoError(t, err)
		assert.NotEmpty(t, payload.Ciphertext)
		assert.NotContains(t, string(payload.Ciphertext), string(content))

		// everything the bearer needs to decrypt without the server ever
		// touching the plaintext
		wrapped, err := models.DecodeWrappedBlob(payload.WrappedKey)
		require.NoError(t, err)
		bearerKey, err := crypto.DeriveBearerKey(link.Token)
		require.NoError(t, err)
		contentKey, err := crypto.NewKeyCustody().UnwrapWith(bearerKey, wrapped)
		require.NoError(t, err)
		plain, err := crypto.OpenContent(contentKey, payload.Ciphertext)
		require.NoError(t, err)

		assert.Equal(t, content, plain)
		assert.Equal(t, crypto.Digest(plain), payload.Digest)
	})

	t.Run("error: only key holders can create links", func(t *testing.T) {
		svc, _, _ := newTestVaultService(t)

		result, err := svc.Upload(ctx, 1, "notes", content, nil)
		require.NoError(t, err)

		_, err = svc.CreateShareLink(ctx, 2, result.ID, "1h")
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("error: unknown token", func(t *testing.T) {
		svc, _, _ := newTestVaultService(t)

		_, err := svc.FetchShareLink(ctx, "bogus-token")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("error: expired link refuses access", func(t *testing.T) {
		svc, _, shareLinks := newTestVaultService(t)

		result, err := svc.Upload(ctx, 1, "notes", content, nil)
		require.NoError(t, err)

		link, err := svc.CreateShareLink(ctx, 1, result.ID, "10m")
		require.NoError(t, err)

		stored := shareLinks.links[crypto.HashToken(link.Token)]
		stored.ExpiresAt = time.Now().Add(-time.Minute)
		shareLinks.links[stored.TokenHash] = stored

		_, err = svc.FetchShareLink(ctx, link.Token)
		assert.ErrorIs(t, err, ErrShareLinkExpired)
	})

	t.Run("error: unsupported expiry preset", func(t *testing.T) {
		svc, _, _ := newTestVaultService(t)

		result, err := svc.Upload(ctx, 1, "notes", content, nil)
		require.NoError(t, err)

		_, err = svc.CreateShareLink(ctx, 1, result.ID, "3w")
		assert.ErrorIs(t, err, ErrInvalidDataProvided)
	})
}
