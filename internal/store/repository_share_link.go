package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/models"
)

// shareLinkRepository is the PostgreSQL-backed implementation of
// [ShareLinkRepository]. Rows are keyed by the SHA-256 hash of the bearer
// token; the token itself never reaches the database.
type shareLinkRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewShareLinkRepository constructs a [ShareLinkRepository] backed by the
// provided database connection and logger.
func NewShareLinkRepository(db *DB, logger *logger.Logger) ShareLinkRepository {
	logger.Debug().Msg("creating share link repository")
	return &shareLinkRepository{
		db:     db,
		logger: logger,
	}
}

func (r *shareLinkRepository) Save(ctx context.Context, link models.ShareLink) error {
	log := logger.FromContext(ctx)

	_, err := r.db.ExecContext(ctx, saveShareLink,
		link.TokenHash,
		link.ItemID,
		link.WrappedKey.Encode(),
		link.CreatedAt,
		link.ExpiresAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "*shareLinkRepository.Save").
			Str("item_id", link.ItemID).
			Msg("failed to insert share link")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// GetByTokenHash returns the share link for the hashed token or
// [ErrShareLinkNotFound].
func (r *shareLinkRepository) GetByTokenHash(ctx context.Context, tokenHash string) (models.ShareLink, error) {
	log := logger.FromContext(ctx)

	var link models.ShareLink
	var wrapped []byte

	err := r.db.QueryRowContext(ctx, getShareLinkByTokenHash, tokenHash).Scan(
		&link.TokenHash,
		&link.ItemID,
		&wrapped,
		&link.CreatedAt,
		&link.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ShareLink{}, ErrShareLinkNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "*shareLinkRepository.GetByTokenHash").
			Msg("failed to query share link")
		return models.ShareLink{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if link.WrappedKey, err = models.DecodeWrappedBlob(wrapped); err != nil {
		log.Err(err).
			Str("func", "*shareLinkRepository.GetByTokenHash").
			Str("item_id", link.ItemID).
			Msg("stored wrapped key blob is malformed")
		return models.ShareLink{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return link, nil
}

// DeleteExpired removes links whose expiry lies before now.
func (r *shareLinkRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.Delete(models.ShareLink{}.TableName()).
		Where(sq.Lt{"expires_at": now}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		log.Err(err).
			Str("func", "*shareLinkRepository.DeleteExpired").
			Msg("failed to build delete query")
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "*shareLinkRepository.DeleteExpired").
			Msg("failed to delete expired share links")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return deleted, nil
}
