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

// certificateRepository is the PostgreSQL-backed implementation of
// [CertificateRepository].
//
// The one-active-per-subject invariant is carried by a partial unique index
// on (subject_id) WHERE status = 'active'. Issue and renew both funnel
// through that index, so two racing writers can never leave a subject with
// two active certificates regardless of interleaving.
type certificateRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewCertificateRepository constructs a [CertificateRepository] backed by the
// provided database connection and logger.
func NewCertificateRepository(db *DB, logger *logger.Logger) CertificateRepository {
	logger.Debug().Msg("creating certificate repository")
	return &certificateRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a certificate row.
//
// Error handling:
//   - PostgreSQL unique_violation (23505) → [ErrActiveCertificateExists].
//   - Any other driver-level error → wrapped [ErrExecutingStatement].
func (r *certificateRepository) Create(ctx context.Context, cert models.Certificate) error {
	log := logger.FromContext(ctx)

	_, err := r.db.ExecContext(ctx, createCertificate,
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
		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			log.Warn().
				Str("func", "*certificateRepository.Create").
				Int64("subject_id", cert.SubjectID).
				Msg("subject already holds an active certificate")
			return ErrActiveCertificateExists
		default:
			log.Err(err).
				Str("func", "*certificateRepository.Create").
				Int64("subject_id", cert.SubjectID).
				Msg("failed to insert certificate")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	return nil
}

// Get returns the certificate with the given serial or
// [ErrCertificateNotFound].
func (r *certificateRepository) Get(ctx context.Context, serial string) (models.Certificate, error) {
	return r.getOne(ctx, getCertificate, serial)
}

// GetActive returns the subject's active certificate or
// [ErrActiveCertificateNotFound].
func (r *certificateRepository) GetActive(ctx context.Context, subjectID int64) (models.Certificate, error) {
	cert, err := r.getOne(ctx, getActiveCertificate, subjectID)
	if errors.Is(err, ErrCertificateNotFound) {
		return models.Certificate{}, ErrActiveCertificateNotFound
	}

	return cert, err
}

func (r *certificateRepository) getOne(ctx context.Context, query string, arg any) (models.Certificate, error) {
	log := logger.FromContext(ctx)

	var cert models.Certificate
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&cert.Serial,
		&cert.SubjectID,
		&cert.Issuer,
		&cert.PublicKeyFingerprint,
		&cert.Signature,
		&cert.IssuedAt,
		&cert.ExpiresAt,
		&cert.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Certificate{}, ErrCertificateNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "*certificateRepository.getOne").
			Msg("failed to query certificate")
		return models.Certificate{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return cert, nil
}

// Renew supersedes the subject's current active certificate and inserts the
// next one inside a single transaction.
//
// The UPDATE and the INSERT commit together or not at all, so a failure at
// any point leaves the previous active certificate in service. A concurrent
// renewal that commits first surfaces as [ErrActiveCertificateExists] via the
// partial unique index.
func (r *certificateRepository) Renew(ctx context.Context, subjectID int64, next models.Certificate) error {
	log := logger.FromContext(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "*certificateRepository.Renew").
			Int64("subject_id", subjectID).
			Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, supersedeActiveCertificate, subjectID)
	if err != nil {
		log.Err(err).
			Str("func", "*certificateRepository.Renew").
			Int64("subject_id", subjectID).
			Msg("failed to supersede active certificate")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	superseded, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if superseded == 0 {
		log.Warn().
			Str("func", "*certificateRepository.Renew").
			Int64("subject_id", subjectID).
			Msg("no active certificate to renew")
		return ErrActiveCertificateNotFound
	}

	_, err = tx.ExecContext(ctx, createCertificate,
		next.Serial,
		next.SubjectID,
		next.Issuer,
		next.PublicKeyFingerprint,
		next.Signature,
		next.IssuedAt,
		next.ExpiresAt,
		next.Status,
	)
	if err != nil {
		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return ErrActiveCertificateExists
		default:
			log.Err(err).
				Str("func", "*certificateRepository.Renew").
				Int64("subject_id", subjectID).
				Msg("failed to insert renewed certificate")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).
			Str("func", "*certificateRepository.Renew").
			Int64("subject_id", subjectID).
			Msg("failed to commit renewal transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	log.Info().
		Str("func", "*certificateRepository.Renew").
		Int64("subject_id", subjectID).
		Str("serial", next.Serial).
		Msg("certificate renewed")

	return nil
}

// Revoke marks the certificate revoked. Revocation of an already revoked
// certificate is a no-op success: the end state is what the caller asked for.
func (r *certificateRepository) Revoke(ctx context.Context, serial string) error {
	log := logger.FromContext(ctx)

	res, err := r.db.ExecContext(ctx, revokeCertificate, serial)
	if err != nil {
		log.Err(err).
			Str("func", "*certificateRepository.Revoke").
			Str("serial", serial).
			Msg("failed to revoke certificate")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		// either the serial is unknown or the certificate is already
		// revoked; distinguish the two for the caller
		if _, getErr := r.Get(ctx, serial); getErr != nil {
			return getErr
		}
		return nil
	}

	log.Info().
		Str("func", "*certificateRepository.Revoke").
		Str("serial", serial).
		Msg("certificate revoked")

	return nil
}
