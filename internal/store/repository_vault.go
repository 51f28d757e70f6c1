package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/models"
)

// vaultRepository is the PostgreSQL-backed implementation of
// [VaultRepository]. Item rows and their per-recipient wrapped content keys
// are written together so a reader can never observe an item without the
// recipient set it was uploaded with.
type vaultRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewVaultRepository constructs a [VaultRepository] backed by the provided
// database connection and logger.
func NewVaultRepository(db *DB, logger *logger.Logger) VaultRepository {
	logger.Debug().Msg("creating vault repository")
	return &vaultRepository{
		db:     db,
		logger: logger,
	}
}

// SaveItem stores the item together with every wrapped content key inside a
// single transaction using a prepared statement for the key inserts.
func (r *vaultRepository) SaveItem(ctx context.Context, item models.VaultItem, keys []models.WrappedContentKey) error {
	log := logger.FromContext(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "*vaultRepository.SaveItem").
			Str("item_id", item.ID).
			Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, saveVaultItem,
		item.ID,
		item.OwnerID,
		item.Title,
		item.Ciphertext,
		item.Digest,
		item.CreatedAt,
		item.ExpiresAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "*vaultRepository.SaveItem").
			Str("item_id", item.ID).
			Msg("failed to insert vault item")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	stmt, err := tx.PrepareContext(ctx, saveWrappedKey)
	if err != nil {
		log.Err(err).
			Str("func", "*vaultRepository.SaveItem").
			Str("item_id", item.ID).
			Msg("failed to prepare wrapped key statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	defer stmt.Close()

	for idx, key := range keys {
		_, execErr := stmt.ExecContext(ctx,
			key.ItemID,
			key.RecipientID,
			key.EphemeralPublicKey,
			key.WrappedKey.Encode(),
		)
		if execErr != nil {
			log.Err(execErr).
				Str("func", "*vaultRepository.SaveItem").
				Str("item_id", item.ID).
				Int("iteration", idx+1).
				Int64("recipient_id", key.RecipientID).
				Msg("failed to insert wrapped content key")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).
			Str("func", "*vaultRepository.SaveItem").
			Str("item_id", item.ID).
			Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	log.Info().
		Str("func", "*vaultRepository.SaveItem").
		Str("item_id", item.ID).
		Int("recipients", len(keys)).
		Msg("vault item saved")

	return nil
}

// GetItem returns the vault item or [ErrVaultItemNotFound].
func (r *vaultRepository) GetItem(ctx context.Context, itemID string) (models.VaultItem, error) {
	log := logger.FromContext(ctx)

	var item models.VaultItem
	err := r.db.QueryRowContext(ctx, getVaultItem, itemID).Scan(
		&item.ID,
		&item.OwnerID,
		&item.Title,
		&item.Ciphertext,
		&item.Digest,
		&item.CreatedAt,
		&item.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.VaultItem{}, ErrVaultItemNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "*vaultRepository.GetItem").
			Str("item_id", itemID).
			Msg("failed to query vault item")
		return models.VaultItem{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return item, nil
}

// GetWrappedKey returns the recipient's wrapped content key for the item or
// [ErrWrappedKeyNotFound].
func (r *vaultRepository) GetWrappedKey(ctx context.Context, itemID string, recipientID int64) (models.WrappedContentKey, error) {
	log := logger.FromContext(ctx)

	var key models.WrappedContentKey
	var wrapped []byte

	err := r.db.QueryRowContext(ctx, getWrappedKey, itemID, recipientID).Scan(
		&key.ItemID,
		&key.RecipientID,
		&key.EphemeralPublicKey,
		&wrapped,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WrappedContentKey{}, ErrWrappedKeyNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "*vaultRepository.GetWrappedKey").
			Str("item_id", itemID).
			Int64("recipient_id", recipientID).
			Msg("failed to query wrapped content key")
		return models.WrappedContentKey{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if key.WrappedKey, err = models.DecodeWrappedBlob(wrapped); err != nil {
		log.Err(err).
			Str("func", "*vaultRepository.GetWrappedKey").
			Str("item_id", itemID).
			Int64("recipient_id", recipientID).
			Msg("stored wrapped key blob is malformed")
		return models.WrappedContentKey{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return key, nil
}
