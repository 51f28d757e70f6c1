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
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/vaultwire/internal/crypto"
	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/internal/store"
	"github.com/MKhiriev/vaultwire/internal/utils"
	"github.com/MKhiriev/vaultwire/models"
)

// caService is the concrete implementation of CertificateAuthorityService.
//
// The root private key never exists unwrapped outside a single operation:
// signing loads the wrapped blob, unwraps it, signs, and lets the plaintext
// go out of scope. Who-wins questions (first InitCA, concurrent renewals) are
// settled by database constraints, not by anything in this struct.
type caService struct {
	roots      store.CARootRepository
	certs      store.CertificateRepository
	identities IdentityService
	custody    crypto.KeyCustody
	secret     crypto.MasterSecret
	certTTL    time.Duration
	uuid       *utils.UUIDGenerator
	logger     *logger.Logger
}

// NewCAService constructs a CertificateAuthorityService. certTTL is the
// validity window applied to every issued certificate.
func NewCAService(roots store.CARootRepository, certs store.CertificateRepository, identities IdentityService, custody crypto.KeyCustody, secret crypto.MasterSecret, certTTL time.Duration, logger *logger.Logger) CertificateAuthorityService {
	return &caService{
		roots:      roots,
		certs:      certs,
		identities: identities,
		custody:    custody,
		secret:     secret,
		certTTL:    certTTL,
		uuid:       utils.NewUUIDGenerator(),
		logger:     logger,
	}
}

// InitCA creates the root key pair, wraps the private half, stores the
// singleton root row and records a self-signed root certificate.
//
// When two callers race, both generate key pairs but only one INSERT commits;
// the loser's material is discarded and [ErrAlreadyInitialized] is returned.
func (s *caService) InitCA(ctx context.Context) (models.CARoot, error) {
	log := logger.FromContext(ctx)

	if _, err := s.roots.Get(ctx); err == nil {
		return models.CARoot{}, ErrAlreadyInitialized
	} else if !errors.Is(err, store.ErrCARootNotFound) {
		return models.CARoot{}, fmt.Errorf("checking root presence: %w", err)
	}

	generated, err := s.custody.GenerateIdentityKeys()
	if err != nil {
		log.Err(err).Str("func", "*caService.InitCA").Msg("root key generation failed")
		return models.CARoot{}, fmt.Errorf("generating root keys: %w", err)
	}

	wrapped, err := s.custody.Wrap(s.secret, generated.SigningPrivateKeyPEM)
	if err != nil {
		return models.CARoot{}, fmt.Errorf("wrapping root key: %w", err)
	}

	now := time.Now()
	root := models.CARoot{
		SigningPublicKeyPEM: generated.SigningPublicKeyPEM,
		SigningPrivateKey:   wrapped,
		Fingerprint:         crypto.Fingerprint(generated.SigningPublicKeyPEM),
		CreatedAt:           now,
	}

	// self-signed root certificate, for auditability of the root itself
	rootKey, err := crypto.ParseSigningPrivateKey(generated.SigningPrivateKeyPEM)
	if err != nil {
		return models.CARoot{}, fmt.Errorf("parsing root key: %w", err)
	}

	rootCert := models.Certificate{
		Serial:               s.uuid.Generate(),
		SubjectID:            0,
		Issuer:               models.IssuerSelf,
		PublicKeyFingerprint: root.Fingerprint,
		IssuedAt:             now,
		ExpiresAt:            now.Add(s.certTTL),
		Status:               models.CertificateActive,
	}
	rootCert.Signature, err = signCertificatePayload(rootKey, rootCert)
	if err != nil {
		return models.CARoot{}, fmt.Errorf("self-signing root certificate: %w", err)
	}

	// the root row and its certificate land in one transaction; a failure
	// here leaves no root behind, so initialization can simply be retried
	if err := s.roots.CreateWithCertificate(ctx, root, rootCert); err != nil {
		if errors.Is(err, store.ErrCARootExists) {
			log.Warn().Str("func", "*caService.InitCA").Msg("initialization race lost")
			return models.CARoot{}, ErrAlreadyInitialized
		}
		return models.CARoot{}, fmt.Errorf("storing root: %w", err)
	}

	log.Info().
		Str("func", "*caService.InitCA").
		Str("fingerprint", root.Fingerprint).
		Msg("certificate authority initialized")

	return root, nil
}

// Issue creates a root-signed certificate binding the subject's current
// signing public key. The subject must have provisioned key material first;
// an issuance never creates keys on the subject's behalf.
func (s *caService) Issue(ctx context.Context, subjectID int64) (models.Certificate, error) {
	log := logger.FromContext(ctx)

	material, err := s.identities.GetIdentityKeys(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrIdentityKeysNotFound) {
			log.Warn().
				Str("func", "*caService.Issue").
				Int64("subject_id", subjectID).
				Msg("subject has no key material")
			return models.Certificate{}, ErrNotFound
		}
		return models.Certificate{}, err
	}

	cert, err := s.buildSignedCertificate(ctx, subjectID, material.SigningPublicKeyPEM)
	if err != nil {
		return models.Certificate{}, err
	}

	if err := s.certs.Create(ctx, cert); err != nil {
		log.Err(err).
			Str("func", "*caService.Issue").
			Int64("subject_id", subjectID).
			Msg("certificate insert failed")
		return models.Certificate{}, fmt.Errorf("storing certificate: %w", err)
	}

	log.Info().
		Str("func", "*caService.Issue").
		Int64("subject_id", subjectID).
		Str("serial", cert.Serial).
		Msg("certificate issued")

	return cert, nil
}

// Renew supersedes the subject's active certificate and issues a replacement
// bound to the subject's current signing key. The supersede and the insert
// commit atomically in the store.
func (s *caService) Renew(ctx context.Context, subjectID int64) (models.Certificate, error) {
	log := logger.FromContext(ctx)

	material, err := s.identities.GetIdentityKeys(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrIdentityKeysNotFound) {
			return models.Certificate{}, ErrNotFound
		}
		return models.Certificate{}, err
	}

	next, err := s.buildSignedCertificate(ctx, subjectID, material.SigningPublicKeyPEM)
	if err != nil {
		return models.Certificate{}, err
	}

	if err := s.certs.Renew(ctx, subjectID, next); err != nil {
		if errors.Is(err, store.ErrActiveCertificateNotFound) {
			return models.Certificate{}, ErrNoActiveCertificate
		}
		log.Err(err).
			Str("func", "*caService.Renew").
			Int64("subject_id", subjectID).
			Msg("renewal failed")
		return models.Certificate{}, fmt.Errorf("renewing certificate: %w", err)
	}

	return next, nil
}

// Revoke irreversibly marks the certificate revoked.
func (s *caService) Revoke(ctx context.Context, serial string) error {
	err := s.certs.Revoke(ctx, serial)
	if errors.Is(err, store.ErrCertificateNotFound) {
		return ErrNotFound
	}

	return err
}

// Validate reports the certificate's state as of the given time. Expiry is
// computed here against the stored window, never written back to the row.
func (s *caService) Validate(ctx context.Context, serial string, at time.Time) (models.CertificateState, error) {
	cert, err := s.certs.Get(ctx, serial)
	if errors.Is(err, store.ErrCertificateNotFound) {
		return models.StateUnknown, nil
	}
	if err != nil {
		return models.StateUnknown, fmt.Errorf("loading certificate: %w", err)
	}

	return cert.StateAt(at), nil
}

// ValidateSubject reports the state of the subject's active certificate.
func (s *caService) ValidateSubject(ctx context.Context, subjectID int64, at time.Time) (models.CertificateState, error) {
	cert, err := s.certs.GetActive(ctx, subjectID)
	if errors.Is(err, store.ErrActiveCertificateNotFound) {
		return models.StateUnknown, nil
	}
	if err != nil {
		return models.StateUnknown, fmt.Errorf("loading active certificate: %w", err)
	}

	return cert.StateAt(at), nil
}

// buildSignedCertificate assembles a certificate for the subject's public key
// and signs its payload with the unwrapped root key.
func (s *caService) buildSignedCertificate(ctx context.Context, subjectID int64, subjectPublicKeyPEM string) (models.Certificate, error) {
	root, err := s.roots.Get(ctx)
	if err != nil {
		if errors.Is(err, store.ErrCARootNotFound) {
			return models.Certificate{}, ErrCANotInitialized
		}
		return models.Certificate{}, fmt.Errorf("loading root: %w", err)
	}

	rootKeyPEM, err := s.custody.Unwrap(s.secret, root.SigningPrivateKey)
	if err != nil {
		return models.Certificate{}, fmt.Errorf("unwrapping root key: %w", err)
	}

	rootKey, err := crypto.ParseSigningPrivateKey(rootKeyPEM)
	if err != nil {
		return models.Certificate{}, fmt.Errorf("parsing root key: %w", err)
	}

	now := time.Now()
	cert := models.Certificate{
		Serial:               s.uuid.Generate(),
		SubjectID:            subjectID,
		Issuer:               models.IssuerRoot,
		PublicKeyFingerprint: crypto.Fingerprint(subjectPublicKeyPEM),
		IssuedAt:             now,
		ExpiresAt:            now.Add(s.certTTL),
		Status:               models.CertificateActive,
	}

	cert.Signature, err = signCertificatePayload(rootKey, cert)
	if err != nil {
		return models.Certificate{}, fmt.Errorf("signing certificate: %w", err)
	}

	return cert, nil
}

// signCertificatePayload signs the canonical certificate payload
// serial|subject|fingerprint|issued|expires with the root key.
func signCertificatePayload(rootKey *rsa.PrivateKey, cert models.Certificate) (string, error) {
	payload := certificatePayload(cert)
	digest := sha256.Sum256(payload)

	signature, err := rsa.SignPKCS1v15(rand.Reader, rootKey, stdcrypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("rsa signing: %w", err)
	}

	return base64.StdEncoding.EncodeToString(signature), nil
}

func certificatePayload(cert models.Certificate) []byte {
	return []byte(fmt.Sprintf("%s|%d|%s|%d|%d",
		cert.Serial,
		cert.SubjectID,
		cert.PublicKeyFingerprint,
		cert.IssuedAt.Unix(),
		cert.ExpiresAt.Unix(),
	))
}
