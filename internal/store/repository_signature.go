package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/models"
)

// signatureRepository is the PostgreSQL-backed implementation of
// [SignatureRepository]. Bundles are append-only audit records.
type signatureRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewSignatureRepository constructs a [SignatureRepository] backed by the
// provided database connection and logger.
func NewSignatureRepository(db *DB, logger *logger.Logger) SignatureRepository {
	logger.Debug().Msg("creating signature repository")
	return &signatureRepository{
		db:     db,
		logger: logger,
	}
}

func (r *signatureRepository) Save(ctx context.Context, bundle models.SignatureBundle) error {
	log := logger.FromContext(ctx)

	_, err := r.db.ExecContext(ctx, saveSignatureBundle,
		bundle.SignerID,
		bundle.Digest,
		bundle.Signature,
		bundle.CertificateSerial,
		bundle.CertificateFingerprint,
		bundle.SignedAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "*signatureRepository.Save").
			Int64("signer_id", bundle.SignerID).
			Msg("failed to insert signature bundle")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}
