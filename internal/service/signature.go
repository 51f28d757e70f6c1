// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/vaultwire/internal/crypto"
	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/internal/store"
	"github.com/MKhiriev/vaultwire/models"
)

// signatureService produces and verifies detached signature bundles.
//
// A bundle snapshots the signer's certificate (serial + fingerprint) at
// signing time. Verification judges the certificate as stored now against the
// claimed time of signing, so a revocation after the fact correctly
// invalidates older bundles while an expiry after signing does not.
type signatureService struct {
	signatures store.SignatureRepository
	certs      store.CertificateRepository
	identities IdentityService
	custody    crypto.KeyCustody
	secret     crypto.MasterSecret
	logger     *logger.Logger
}

// NewSignatureService constructs a SignatureService.
func NewSignatureService(signatures store.SignatureRepository, certs store.CertificateRepository, identities IdentityService, custody crypto.KeyCustody, secret crypto.MasterSecret, logger *logger.Logger) SignatureService {
	return &signatureService{
		signatures: signatures,
		certs:      certs,
		identities: identities,
		custody:    custody,
		secret:     secret,
		logger:     logger,
	}
}

// Sign computes the content digest, signs it with the signer's transiently
// unwrapped private key, and snapshots the signer's active certificate into
// the bundle. Signing requires an active certificate.
func (s *signatureService) Sign(ctx context.Context, signerID int64, content []byte) (models.SignatureBundle, error) {
	log := logger.FromContext(ctx)

	if len(content) == 0 {
		return models.SignatureBundle{}, ErrInvalidDataProvided
	}

	cert, err := s.certs.GetActive(ctx, signerID)
	if err != nil {
		if errors.Is(err, store.ErrActiveCertificateNotFound) {
			return models.SignatureBundle{}, ErrNoActiveCertificate
		}
		return models.SignatureBundle{}, fmt.Errorf("loading active certificate: %w", err)
	}

	material, err := s.identities.EnsureIdentityKeys(ctx, signerID)
	if err != nil {
		return models.SignatureBundle{}, err
	}

	privateKeyPEM, err := s.custody.Unwrap(s.secret, material.SigningPrivateKey)
	if err != nil {
		return models.SignatureBundle{}, fmt.Errorf("unwrapping signing key: %w", err)
	}

	privateKey, err := crypto.ParseSigningPrivateKey(privateKeyPEM)
	if err != nil {
		return models.SignatureBundle{}, fmt.Errorf("parsing signing key: %w", err)
	}

	digest := sha256.Sum256(content)
	signature, err := rsa.SignPKCS1v15(rand.Reader, privateKey, stdcrypto.SHA256, digest[:])
	if err != nil {
		return models.SignatureBundle{}, fmt.Errorf("rsa signing: %w", err)
	}

	bundle := models.SignatureBundle{
		SignerID:               signerID,
		Digest:                 hex.EncodeToString(digest[:]),
		Signature:              base64.StdEncoding.EncodeToString(signature),
		CertificateSerial:      cert.Serial,
		CertificateFingerprint: cert.PublicKeyFingerprint,
		SignedAt:               time.Now(),
	}

	if err := s.signatures.Save(ctx, bundle); err != nil {
		return models.SignatureBundle{}, fmt.Errorf("saving signature bundle: %w", err)
	}

	log.Info().
		Str("func", "*signatureService.Sign").
		Int64("signer_id", signerID).
		Str("serial", cert.Serial).
		Msg("signature bundle created")

	return bundle, nil
}

// VerifyBundle checks the bundle against fresh content. Checks run in order;
// the first failure yields the verdict reason:
//
//  1. fresh digest of content vs bundle digest       → HASH_MISMATCH
//  2. certificate lookup by serial                    → CERTIFICATE_UNKNOWN
//  3. certificate state at SignedAt                   → CERTIFICATE_REVOKED / CERTIFICATE_EXPIRED
//  4. RSA verification against the signer's key      → SIGNATURE_INVALID
//
// None of these outcomes is an error: a failed verification is a result.
func (s *signatureService) VerifyBundle(ctx context.Context, content []byte, bundle models.SignatureBundle) (models.VerifyResult, error) {
	log := logger.FromContext(ctx)

	digest := sha256.Sum256(content)
	if hex.EncodeToString(digest[:]) != bundle.Digest {
		return models.VerifyResult{Reason: models.ReasonHashMismatch}, nil
	}

	cert, err := s.certs.Get(ctx, bundle.CertificateSerial)
	if err != nil {
		if errors.Is(err, store.ErrCertificateNotFound) {
			return models.VerifyResult{Reason: models.ReasonCertificateUnknown}, nil
		}
		return models.VerifyResult{}, fmt.Errorf("loading certificate: %w", err)
	}

	switch cert.StateAt(bundle.SignedAt) {
	case models.StateRevoked:
		return models.VerifyResult{Reason: models.ReasonCertificateRevoked}, nil
	case models.StateExpired:
		return models.VerifyResult{Reason: models.ReasonCertificateExpired}, nil
	}

	material, err := s.identities.EnsureIdentityKeys(ctx, cert.SubjectID)
	if err != nil {
		return models.VerifyResult{}, err
	}

	// the certificate must still speak for the key we are about to trust
	if crypto.Fingerprint(material.SigningPublicKeyPEM) != bundle.CertificateFingerprint {
		return models.VerifyResult{Reason: models.ReasonSignatureInvalid}, nil
	}

	publicKey, err := crypto.ParseSigningPublicKey(material.SigningPublicKeyPEM)
	if err != nil {
		return models.VerifyResult{}, fmt.Errorf("parsing signing public key: %w", err)
	}

	signature, err := base64.StdEncoding.DecodeString(bundle.Signature)
	if err != nil {
		return models.VerifyResult{Reason: models.ReasonSignatureInvalid}, nil
	}

	if err := rsa.VerifyPKCS1v15(publicKey, stdcrypto.SHA256, digest[:], signature); err != nil {
		log.Debug().
			Str("func", "*signatureService.VerifyBundle").
			Str("serial", bundle.CertificateSerial).
			Msg("rsa verification failed")
		return models.VerifyResult{Reason: models.ReasonSignatureInvalid}, nil
	}

	return models.VerifyResult{OK: true}, nil
}
