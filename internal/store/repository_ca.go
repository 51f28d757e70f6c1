package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"

	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/models"
)

// caRootRepository is the PostgreSQL-backed implementation of
// [CARootRepository]. The root row lives under a fixed primary key of 1, so
// concurrent initialization races are settled by the database: exactly one
// INSERT commits, every other one reports a unique violation.
type caRootRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewCARootRepository constructs a [CARootRepository] backed by the provided
// database connection and logger.
func NewCARootRepository(db *DB, logger *logger.Logger) CARootRepository {
	logger.Debug().Msg("creating ca root repository")
	return &caRootRepository{
		db:     db,
		logger: logger,
	}
}

// CreateWithCertificate inserts the singleton root row together with its
// self-signed certificate in one transaction. Either both rows commit or
// neither does; a failed certificate insert must not leave an orphaned root
// that would block every retry forever.
//
// Error handling:
//   - PostgreSQL unique_violation (23505) on the root row → [ErrCARootExists].
//   - Any other driver-level error → wrapped [ErrExecutingStatement].
func (r *caRootRepository) CreateWithCertificate(ctx context.Context, root models.CARoot, cert models.Certificate) error {
	log := logger.FromContext(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "*caRootRepository.CreateWithCertificate").
			Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, createCARoot,
		root.SigningPublicKeyPEM,
		root.SigningPrivateKey.Encode(),
		root.Fingerprint,
		root.CreatedAt,
	)
	if err != nil {
		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			log.Warn().
				Str("func", "*caRootRepository.CreateWithCertificate").
				Msg("root row already exists, creation race lost")
			return ErrCARootExists
		default:
			log.Err(err).
				Str("func", "*caRootRepository.CreateWithCertificate").
				Msg("failed to insert root row")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	_, err = tx.ExecContext(ctx, createCertificate,
		cert.Serial,
		cert.SubjectID,
		cert.Issuer,
		cert.PublicKeyFingerprint,
		cert.Signature,
		cert.IssuedAt,
		cert.ExpiresAt,
		cert.Status,
	)
	if err != nil {
		log.Err(err).
			Str("func", "*caRootRepository.CreateWithCertificate").
			Str("serial", cert.Serial).
			Msg("failed to insert root certificate")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).
			Str("func", "*caRootRepository.CreateWithCertificate").
			Msg("failed to commit root creation transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}

// Get returns the root row or [ErrCARootNotFound].
func (r *caRootRepository) Get(ctx context.Context) (models.CARoot, error) {
	log := logger.FromContext(ctx)

	var root models.CARoot
	var signingPrivate []byte

	err := r.db.QueryRowContext(ctx, getCARoot).Scan(
		&root.SigningPublicKeyPEM,
		&signingPrivate,
		&root.Fingerprint,
		&root.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CARoot{}, ErrCARootNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "*caRootRepository.Get").
			Msg("failed to query root row")
		return models.CARoot{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if root.SigningPrivateKey, err = models.DecodeWrappedBlob(signingPrivate); err != nil {
		log.Err(err).
			Str("func", "*caRootRepository.Get").
			Msg("stored root key blob is malformed")
		return models.CARoot{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return root, nil
}
