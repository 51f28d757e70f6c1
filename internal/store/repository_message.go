package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/models"
)

// messageRepository is the PostgreSQL-backed implementation of
// [MessageRepository].
//
// Idempotent delivery rests on the (sender_id, message_id) primary key and
// ON CONFLICT DO NOTHING: a retried send never produces a second row, and
// the zero-rows-affected result is how the first delivery is told apart from
// a retransmission.
type messageRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewMessageRepository constructs a [MessageRepository] backed by the
// provided database connection and logger.
func NewMessageRepository(db *DB, logger *logger.Logger) MessageRepository {
	logger.Debug().Msg("creating message repository")
	return &messageRepository{
		db:     db,
		logger: logger,
	}
}

// Save inserts the message. Returns false when the (sender, messageId) pair
// already exists.
func (r *messageRepository) Save(ctx context.Context, message models.Message) (bool, error) {
	log := logger.FromContext(ctx)

	res, err := r.db.ExecContext(ctx, saveMessage,
		message.SenderID,
		message.RecipientID,
		message.MessageID,
		message.Ciphertext,
		message.Nonce,
		message.CreatedAt,
		message.ExpiresAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "*messageRepository.Save").
			Int64("sender_id", message.SenderID).
			Str("message_id", message.MessageID).
			Msg("failed to insert message")
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if inserted == 0 {
		log.Debug().
			Str("func", "*messageRepository.Save").
			Int64("sender_id", message.SenderID).
			Str("message_id", message.MessageID).
			Msg("duplicate message id, retransmission ignored")
		return false, nil
	}

	return true, nil
}

// GetThread returns all unexpired messages exchanged between the two
// identities in either direction, oldest first.
func (r *messageRepository) GetThread(ctx context.Context, firstID, secondID int64, now time.Time) ([]models.Message, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.Select("sender_id", "recipient_id", "message_id", "ciphertext", "nonce", "created_at", "expires_at").
		From(models.Message{}.TableName()).
		Where(sq.Or{
			sq.And{sq.Eq{"sender_id": firstID}, sq.Eq{"recipient_id": secondID}},
			sq.And{sq.Eq{"sender_id": secondID}, sq.Eq{"recipient_id": firstID}},
		}).
		Where(sq.Gt{"expires_at": now}).
		OrderBy("created_at ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		log.Err(err).
			Str("func", "*messageRepository.GetThread").
			Msg("failed to build thread query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "*messageRepository.GetThread").
			Int64("first_id", firstID).
			Int64("second_id", secondID).
			Msg("failed to execute thread query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0, 50)

	for rows.Next() {
		var message models.Message

		scanErr := rows.Scan(
			&message.SenderID,
			&message.RecipientID,
			&message.MessageID,
			&message.Ciphertext,
			&message.Nonce,
			&message.CreatedAt,
			&message.ExpiresAt,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "*messageRepository.GetThread").
				Msg("failed to scan message row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		messages = append(messages, message)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "*messageRepository.GetThread").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return messages, nil
}

// DeleteExpired removes messages whose expiry lies before now.
func (r *messageRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.Delete(models.Message{}.TableName()).
		Where(sq.Lt{"expires_at": now}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		log.Err(err).
			Str("func", "*messageRepository.DeleteExpired").
			Msg("failed to build delete query")
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "*messageRepository.DeleteExpired").
			Msg("failed to delete expired messages")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return deleted, nil
}
