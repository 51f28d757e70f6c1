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

type signatureTestEnv struct {
	signatures SignatureService
	ca         CertificateAuthorityService
	identities IdentityService
	certs      *fakeCertificateRepository
}

func newSignatureTestEnv(t *testing.T) signatureTestEnv {
	t.Helper()

	secret := testMasterSecret()
	custody := crypto.NewKeyCustody()
	log := logger.Nop()

	identityRepo := newFakeIdentityKeyRepository()
	identities := NewIdentityService(identityRepo, custody, secret, log)
	certs := newFakeCertificateRepository()

	ca := NewCAService(&fakeCARootRepository{certs: certs}, certs, identities, custody, secret, 365*24*time.Hour, log)
	signatures := NewSignatureService(&fakeSignatureRepository{}, certs, identities, custody, secret, log)

	_, err := ca.InitCA(context.Background())
	require.NoError(t, err)

	// issuance requires provisioned key material
	_, err = identities.EnsureIdentityKeys(context.Background(), 42)
	require.NoError(t, err)

	return signatureTestEnv{
		signatures: signatures,
		ca:         ca,
		identities: identities,
		certs:      certs,
	}
}

func TestSignAndVerify(t *testing.T) {
	ctx := context.Background()
	content := []byte("contract text v1")

	t.Run("success: valid bundle verifies", func(t *testing.T) {
		env := newSignatureTestEnv(t)
		_, err := env.ca.Issue(ctx, 42)
		require.NoError(t, err)

		bundle, err := env.signatures.Sign(ctx, 42, content)
		require.NoError(t, err)
		assert.Equal(t, int64(42), bundle.SignerID)
		assert.NotEmpty(t, bundle.Signature)
		assert.NotEmpty(t, bundle.CertificateSerial)

		result, err := env.signatures.VerifyBundle(ctx, content, bundle)
		require.NoError(t, err)
		assert.True(t, result.OK)
		assert.Empty(t, result.Reason)
	})

	t.Run("error: signing without an active certificate", func(t *testing.T) {
		env := newSignatureTestEnv(t)

		_, err := env.signatures.Sign(ctx, 42, content)
		assert.ErrorIs(t, err, ErrNoActiveCertificate)
	})

	t.Run("reason: altered content yields HASH_MISMATCH", func(t *testing.T) {
		env := newSignatureTestEnv(t)
		_, err := env.ca.Issue(ctx, 42)
		require.NoError(t, err)

		bundle, err := env.signatures.Sign(ctx, 42, content)
		require.NoError(t, err)

		result, err := env.signatures.VerifyBundle(ctx, []byte("contract text v2"), bundle)
		require.NoError(t, err)
		assert.False(t, result.OK)
		assert.Equal(t, models.ReasonHashMismatch, result.Reason)
	})

	t.Run("reason: tampered signature yields SIGNATURE_INVALID", func(t *testing.T) {
		env := newSignatureTestEnv(t)
		_, err := env.ca.Issue(ctx, 42)
		require.NoError(t, err)

		bundle, err := env.signatures.Sign(ctx, 42, content)
		require.NoError(t, err)
		bundle.Signature = "bm90IGEgcmVhbCBzaWduYXR1cmU="

		result, err := env.signatures.VerifyBundle(ctx, content, bundle)
		require.NoError(t, err)
		assert.Equal(t, models.ReasonSignatureInvalid, result.Reason)
	})

	t.Run("reason: revoked certificate yields CERTIFICATE_REVOKED", func(t *testing.T) {
		env := newSignatureTestEnv(t)
		cert, err := env.ca.Issue(ctx, 42)
		require.NoError(t, err)

		bundle, err := env.signatures.Sign(ctx, 42, content)
		require.NoError(t, err)

		require.NoError(t, env.ca.Revoke(ctx, cert.Serial))

		result, err := env.signatures.VerifyBundle(ctx, content, bundle)
		require.NoError(t, err)
		assert.Equal(t, models.ReasonCertificateRevoked, result.Reason)
	})

	t.Run("reason: certificate expired at signing time yields CERTIFICATE_EXPIRED", func(t *testing.T) {
		env := newSignatureTestEnv(t)
		cert, err := env.ca.Issue(ctx, 42)
		require.NoError(t, err)

		bundle, err := env.signatures.Sign(ctx, 42, content)
		require.NoError(t, err)
		bundle.SignedAt = cert.ExpiresAt.Add(time.Hour)

		result, err := env.signatures.VerifyBundle(ctx, content, bundle)
		require.NoError(t, err)
		assert.Equal(t, models.ReasonCertificateExpired, result.Reason)
	})

	t.Run("reason: unknown serial yields CERTIFICATE_UNKNOWN", func(t *testing.T) {
		env := newSignatureTestEnv(t)
		_, err := env.ca.Issue(ctx, 42)
		require.NoError(t, err)

		bundle, err := env.signatures.Sign(ctx, 42, content)
		require.NoError(t, err)
		bundle.CertificateSerial = "no-such-serial"

		result, err := env.signatures.VerifyBundle(ctx, content, bundle)
		require.NoError(t, err)
		assert.Equal(t, models.ReasonCertificateUnknown, result.Reason)
	})

	t.Run("reason: key rotated after signing yields SIGNATURE_INVALID", func(t *testing.T) {
		env := newSignatureTestEnv(t)
		_, err := env.ca.Issue(ctx, 42)
		require.NoError(t, err)

		bundle, err := env.signatures.Sign(ctx, 42, content)
		require.NoError(t, err)

		// new keys no longer match the certificate fingerprint snapshot
		_, err = env.identities.RotateIdentityKeys(ctx, 42)
		require.NoError(t, err)

		result, err := env.signatures.VerifyBundle(ctx, content, bundle)
		require.NoError(t, err)
		assert.Equal(t, models.ReasonSignatureInvalid, result.Reason)
	})
}
