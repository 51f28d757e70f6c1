package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/models"
)

func newTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newDBFromSQL(db *sql.DB) *DB {
	return &DB{
		DB:     db,
		logger: logger.Nop(),
	}
}

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

func testWrappedBlob(payload string) models.WrappedBlob {
	return models.WrappedBlob{
		Version:    models.WrappedBlobVersion,
		Nonce:      bytes.Repeat([]byte{0x01}, 12),
		Ciphertext: []byte(payload),
	}
}

func TestCARootRepositoryCreateWithCertificate(t *testing.T) {
	root := models.CARoot{
		SigningPublicKeyPEM: "-----BEGIN RSA PUBLIC KEY-----\nAA==\n-----END RSA PUBLIC KEY-----\n",
		SigningPrivateKey:   testWrappedBlob("wrapped-root-key"),
		Fingerprint:         "deadbeef",
		CreatedAt:           time.Now().Truncate(time.Millisecond),
	}
	cert := models.Certificate{
		Serial:               "root-serial",
		SubjectID:            0,
		Issuer:               models.IssuerSelf,
		PublicKeyFingerprint: "deadbeef",
		Signature:            "c2lnbmF0dXJl",
		IssuedAt:             root.CreatedAt,
		ExpiresAt:            root.CreatedAt.Add(365 * 24 * time.Hour),
		Status:               models.CertificateActive,
	}

	t.Run("success: root and certificate commit together", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewCARootRepository(newDBFromSQL(db), logger.Nop())

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO ca_root`)).
			WithArgs(root.SigningPublicKeyPEM, root.SigningPrivateKey.Encode(), root.Fingerprint, root.CreatedAt).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO certificates`)).
			WithArgs(cert.Serial, cert.SubjectID, cert.Issuer, cert.PublicKeyFingerprint,
				cert.Signature, cert.IssuedAt, cert.ExpiresAt, cert.Status).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.CreateWithCertificate(testContext(), root, cert)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error: unique violation maps to ErrCARootExists", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewCARootRepository(newDBFromSQL(db), logger.Nop())

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO ca_root`)).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
		mock.ExpectRollback()

		err := repo.CreateWithCertificate(testContext(), root, cert)

		assert.ErrorIs(t, err, ErrCARootExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error: failed certificate insert rolls the root back", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewCARootRepository(newDBFromSQL(db), logger.Nop())

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO ca_root`)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO certificates`)).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		err := repo.CreateWithCertificate(testContext(), root, cert)

		assert.ErrorIs(t, err, ErrExecutingStatement)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error: driver failure on root insert is wrapped", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewCARootRepository(newDBFromSQL(db), logger.Nop())

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO ca_root`)).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		err := repo.CreateWithCertificate(testContext(), root, cert)

		assert.ErrorIs(t, err, ErrExecutingStatement)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCARootRepositoryGet(t *testing.T) {
	columns := []string{"signing_public_key", "signing_private_key", "fingerprint", "created_at"}

	t.Run("success: round-trips the wrapped blob", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewCARootRepository(newDBFromSQL(db), logger.Nop())

		blob := testWrappedBlob("wrapped-root-key")
		created := time.Now().Truncate(time.Millisecond)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT signing_public_key, signing_private_key, fingerprint, created_at`)).
			WillReturnRows(sqlmock.NewRows(columns).AddRow("pub-pem", blob.Encode(), "deadbeef", created))

		root, err := repo.Get(testContext())

		require.NoError(t, err)
		assert.Equal(t, "pub-pem", root.SigningPublicKeyPEM)
		assert.Equal(t, blob, root.SigningPrivateKey)
		assert.Equal(t, "deadbeef", root.Fingerprint)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error: missing root row maps to ErrCARootNotFound", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewCARootRepository(newDBFromSQL(db), logger.Nop())

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT signing_public_key`)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(testContext())

		assert.ErrorIs(t, err, ErrCARootNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error: malformed stored blob", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewCARootRepository(newDBFromSQL(db), logger.Nop())

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT signing_public_key`)).
			WillReturnRows(sqlmock.NewRows(columns).AddRow("pub-pem", []byte{0xFF}, "deadbeef", time.Now()))

		_, err := repo.Get(testContext())

		assert.ErrorIs(t, err, ErrScanningRow)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
