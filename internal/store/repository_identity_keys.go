package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/models"
)

// identityKeyRepository is the PostgreSQL-backed implementation of
// [IdentityKeyRepository]. Wrapped private halves travel as single bytea
// columns in the encoded form produced by [models.WrappedBlob.Encode].
type identityKeyRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewIdentityKeyRepository constructs an [IdentityKeyRepository] backed by
// the provided database connection and logger.
func NewIdentityKeyRepository(db *DB, logger *logger.Logger) IdentityKeyRepository {
	logger.Debug().Msg("creating identity key repository")
	return &identityKeyRepository{
		db:     db,
		logger: logger,
	}
}

// Save stores the identity's key material. The statement is an upsert, so a
// rotation replaces the previous record atomically: readers observe either
// the old complete record or the new one, never a mix.
func (r *identityKeyRepository) Save(ctx context.Context, material models.IdentityKeyMaterial) error {
	log := logger.FromContext(ctx)

	_, err := r.db.ExecContext(ctx, upsertIdentityKeys,
		material.IdentityID,
		material.SigningPublicKeyPEM,
		material.SigningPrivateKey.Encode(),
		material.AgreementPublicKey,
		material.AgreementPrivateKey.Encode(),
		material.CreatedAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "*identityKeyRepository.Save").
			Int64("identity_id", material.IdentityID).
			Msg("failed to upsert identity key material")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// Create inserts the identity's key material only when no record exists yet.
// Returns false when a concurrent first touch already won; the stored record
// is left untouched so previously wrapped data stays decryptable.
func (r *identityKeyRepository) Create(ctx context.Context, material models.IdentityKeyMaterial) (bool, error) {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, insertIdentityKeys,
		material.IdentityID,
		material.SigningPublicKeyPEM,
		material.SigningPrivateKey.Encode(),
		material.AgreementPublicKey,
		material.AgreementPrivateKey.Encode(),
		material.CreatedAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "*identityKeyRepository.Create").
			Int64("identity_id", material.IdentityID).
			Msg("failed to insert identity key material")
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return inserted > 0, nil
}

// Get returns the identity's key material or [ErrIdentityKeysNotFound].
func (r *identityKeyRepository) Get(ctx context.Context, identityID int64) (models.IdentityKeyMaterial, error) {
	log := logger.FromContext(ctx)

	var material models.IdentityKeyMaterial
	var signingPrivate, agreementPrivate []byte

	err := r.db.QueryRowContext(ctx, getIdentityKeys, identityID).Scan(
		&material.IdentityID,
		&material.SigningPublicKeyPEM,
		&signingPrivate,
		&material.AgreementPublicKey,
		&agreementPrivate,
		&material.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.IdentityKeyMaterial{}, ErrIdentityKeysNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "*identityKeyRepository.Get").
			Int64("identity_id", identityID).
			Msg("failed to query identity key material")
		return models.IdentityKeyMaterial{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if material.SigningPrivateKey, err = models.DecodeWrappedBlob(signingPrivate); err != nil {
		log.Err(err).
			Str("func", "*identityKeyRepository.Get").
			Int64("identity_id", identityID).
			Msg("stored signing key blob is malformed")
		return models.IdentityKeyMaterial{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	if material.AgreementPrivateKey, err = models.DecodeWrappedBlob(agreementPrivate); err != nil {
		log.Err(err).
			Str("func", "*identityKeyRepository.Get").
			Int64("identity_id", identityID).
			Msg("stored agreement key blob is malformed")
		return models.IdentityKeyMaterial{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return material, nil
}
