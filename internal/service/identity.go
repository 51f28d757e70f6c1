// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/vaultwire/internal/crypto"
	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/internal/store"
	"github.com/MKhiriev/vaultwire/models"
)

// identityService is the concrete implementation of IdentityService.
// Private key halves pass through it only transiently: generation happens in
// memory, wrapping happens immediately, and only wrapped blobs are persisted.
type identityService struct {
	keys    store.IdentityKeyRepository
	custody crypto.KeyCustody
	secret  crypto.MasterSecret
	logger  *logger.Logger
}

// NewIdentityService constructs an IdentityService over the given repository
// and custody engine. The master secret is read-only after construction; the
// service carries no other state and is safe for concurrent use.
func NewIdentityService(keys store.IdentityKeyRepository, custody crypto.KeyCustody, secret crypto.MasterSecret, logger *logger.Logger) IdentityService {
	return &identityService{
		keys:    keys,
		custody: custody,
		secret:  secret,
		logger:  logger,
	}
}

// EnsureIdentityKeys returns the identity's key material, generating and
// persisting a fresh set when none exists yet.
//
// First-touch creation is insert-if-absent: when two callers both miss the
// lookup, only one generated set reaches the store and the loser re-reads
// and returns the winner's material. Handing the loser its own discarded
// keys would leave everything wrapped to them permanently undecryptable.
func (s *identityService) EnsureIdentityKeys(ctx context.Context, identityID int64) (models.IdentityKeyMaterial, error) {
	log := logger.FromContext(ctx)

	material, err := s.keys.Get(ctx, identityID)
	if err == nil {
		return material, nil
	}
	if !errors.Is(err, store.ErrIdentityKeysNotFound) {
		log.Err(err).
			Str("func", "*identityService.EnsureIdentityKeys").
			Int64("identity_id", identityID).
			Msg("failed to look up identity keys")
		return models.IdentityKeyMaterial{}, fmt.Errorf("looking up identity keys: %w", err)
	}

	log.Info().
		Str("func", "*identityService.EnsureIdentityKeys").
		Int64("identity_id", identityID).
		Msg("no key material yet, generating")

	generated, err := s.generate(ctx, identityID)
	if err != nil {
		return models.IdentityKeyMaterial{}, err
	}

	inserted, err := s.keys.Create(ctx, generated)
	if err != nil {
		log.Err(err).
			Str("func", "*identityService.EnsureIdentityKeys").
			Int64("identity_id", identityID).
			Msg("failed to persist key material")
		return models.IdentityKeyMaterial{}, fmt.Errorf("saving identity keys: %w", err)
	}
	if !inserted {
		// creation race lost: discard ours and return the winning record
		log.Warn().
			Str("func", "*identityService.EnsureIdentityKeys").
			Int64("identity_id", identityID).
			Msg("key creation race lost, returning stored material")

		winner, err := s.keys.Get(ctx, identityID)
		if err != nil {
			return models.IdentityKeyMaterial{}, fmt.Errorf("re-reading identity keys: %w", err)
		}
		return winner, nil
	}

	return generated, nil
}

// GetIdentityKeys returns the identity's key material without creating any.
func (s *identityService) GetIdentityKeys(ctx context.Context, identityID int64) (models.IdentityKeyMaterial, error) {
	return s.keys.Get(ctx, identityID)
}

// RotateIdentityKeys generates a fresh key set and replaces the old record in
// one atomic statement. The old wrapped blobs are gone after the swap; there
// is no partially rotated state a reader could observe.
func (s *identityService) RotateIdentityKeys(ctx context.Context, identityID int64) (models.IdentityKeyMaterial, error) {
	log := logger.FromContext(ctx)

	material, err := s.generateAndStore(ctx, identityID)
	if err != nil {
		return models.IdentityKeyMaterial{}, err
	}

	log.Info().
		Str("func", "*identityService.RotateIdentityKeys").
		Int64("identity_id", identityID).
		Msg("identity keys rotated")

	return material, nil
}

func (s *identityService) generateAndStore(ctx context.Context, identityID int64) (models.IdentityKeyMaterial, error) {
	log := logger.FromContext(ctx)

	material, err := s.generate(ctx, identityID)
	if err != nil {
		return models.IdentityKeyMaterial{}, err
	}

	if err := s.keys.Save(ctx, material); err != nil {
		log.Err(err).
			Str("func", "*identityService.generateAndStore").
			Int64("identity_id", identityID).
			Msg("failed to persist key material")
		return models.IdentityKeyMaterial{}, fmt.Errorf("saving identity keys: %w", err)
	}

	return material, nil
}

// generate produces a wrapped key set for the identity without touching the
// store. Callers decide between insert-if-absent and replace semantics.
func (s *identityService) generate(ctx context.Context, identityID int64) (models.IdentityKeyMaterial, error) {
	log := logger.FromContext(ctx)

	generated, err := s.custody.GenerateIdentityKeys()
	if err != nil {
		log.Err(err).
			Str("func", "*identityService.generate").
			Int64("identity_id", identityID).
			Msg("key generation failed")
		return models.IdentityKeyMaterial{}, fmt.Errorf("generating identity keys: %w", err)
	}

	wrappedSigning, err := s.custody.Wrap(s.secret, generated.SigningPrivateKeyPEM)
	if err != nil {
		return models.IdentityKeyMaterial{}, fmt.Errorf("wrapping signing key: %w", err)
	}

	wrappedAgreement, err := s.custody.Wrap(s.secret, generated.AgreementPrivateKey)
	if err != nil {
		return models.IdentityKeyMaterial{}, fmt.Errorf("wrapping agreement key: %w", err)
	}

	return models.IdentityKeyMaterial{
		IdentityID:          identityID,
		SigningPublicKeyPEM: generated.SigningPublicKeyPEM,
		SigningPrivateKey:   wrappedSigning,
		AgreementPublicKey:  generated.AgreementPublicKey,
		AgreementPrivateKey: wrappedAgreement,
		CreatedAt:           time.Now(),
	}, nil
}
