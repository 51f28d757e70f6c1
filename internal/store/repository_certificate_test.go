package store

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/models"
)

var certificateColumns = []string{
	"serial", "subject_id", "issuer", "public_key_fingerprint",
	"signature", "issued_at", "expires_at", "status",
}

func testCertificate(serial string, subjectID int64, status string) models.Certificate {
	now := time.Now().Truncate(time.Millisecond)
	return models.Certificate{
		Serial:               serial,
		SubjectID:            subjectID,
		Issuer:               models.IssuerRoot,
		PublicKeyFingerprint: "fp-" + serial,
		Signature:            "sig-" + serial,
		IssuedAt:             now,
		ExpiresAt:            now.Add(365 * 24 * time.Hour),
		Status:               status,
	}
}

func certRowArgs(c models.Certificate) []any {
	return []any{c.Serial, c.SubjectID, c.Issuer, c.PublicKeyFingerprint, c.Signature, c.IssuedAt, c.ExpiresAt, c.Status}
}

func TestCertificateRepositoryCreate(t *testing.T) {
	cert := testCertificate("serial-1", 42, models.CertificateActive)

	t.Run("success", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewCertificateRepository(newDBFromSQL(db), logger.Nop())

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO certificates`)).
			WithArgs(cert.Serial, cert.SubjectID, cert.Issuer, cert.PublicKeyFingerprint, cert.Signature, cert.IssuedAt, cert.ExpiresAt, cert.Status).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.Create(testContext(), cert)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error: concurrent issuance loses on partial unique index", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewCertificateRepository(newDBFromSQL(db), logger.Nop())

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO certificates`)).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		err := repo.Create(testContext(), cert)

		assert.ErrorIs(t, err, ErrActiveCertificateExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCertificateRepositoryGet(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewCertificateRepository(newDBFromSQL(db), logger.Nop())

		cert := testCertificate("serial-1", 42, models.CertificateActive)
		rows := sqlmock.NewRows(certificateColumns)
		args := certRowArgs(cert)
		rows.AddRow(args[0], args[1], args[2], args[3], args[4], args[5], args[6], args[7])

		mock.ExpectQuery(regexp.QuoteMeta(`FROM certificates`)).
			WithArgs("serial-1").
			WillReturnRows(rows)

		got, err := repo.Get(testContext(), "serial-1")

		require.NoError(t, err)
		assert.Equal(t, cert, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error: unknown serial", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewCertificateRepository(newDBFromSQL(db), logger.Nop())

		mock.ExpectQuery(regexp.QuoteMeta(`FROM certificates`)).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(testContext(), "missing")

		assert.ErrorIs(t, err, ErrCertificateNotFound)
	})
}

func TestCertificateRepositoryGetActive(t *testing.T) {
	t.Run("error: no active certificate maps to dedicated sentinel", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewCertificateRepository(newDBFromSQL(db), logger.Nop())

		mock.ExpectQuery(regexp.QuoteMeta(`status = 'active'`)).
			WithArgs(int64(42)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetActive(testContext(), 42)

		assert.ErrorIs(t, err, ErrActiveCertificateNotFound)
	})
}

func TestCertificateRepositoryRenew(t *testing.T) {
	next := testCertificate("serial-2", 42, models.CertificateActive)

	t.Run("success: supersede and insert commit together", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewCertificateRepository(newDBFromSQL(db), logger.Nop())

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`SET status = 'superseded'`)).
			WithArgs(int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO certificates`)).
			WithArgs(next.Serial, next.SubjectID, next.Issuer, next.PublicKeyFingerprint, next.Signature, next.IssuedAt, next.ExpiresAt, next.Status).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.Renew(testContext(), 42, next)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error: nothing to supersede rolls back", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewCertificateRepository(newDBFromSQL(db), logger.Nop())

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`SET status = 'superseded'`)).
			WithArgs(int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Renew(testContext(), 42, next)

		assert.ErrorIs(t, err, ErrActiveCertificateNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error: concurrent renewal loses on insert", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewCertificateRepository(newDBFromSQL(db), logger.Nop())

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`SET status = 'superseded'`)).
			WithArgs(int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO certificates`)).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
		mock.ExpectRollback()

		err := repo.Renew(testContext(), 42, next)

		assert.ErrorIs(t, err, ErrActiveCertificateExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCertificateRepositoryRevoke(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewCertificateRepository(newDBFromSQL(db), logger.Nop())

		mock.ExpectExec(regexp.QuoteMeta(`SET status = 'revoked'`)).
			WithArgs("serial-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Revoke(testContext(), "serial-1")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success: revoking an already revoked certificate is a no-op", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewCertificateRepository(newDBFromSQL(db), logger.Nop())

		revoked := testCertificate("serial-1", 42, models.CertificateRevoked)
		rows := sqlmock.NewRows(certificateColumns)
		args := certRowArgs(revoked)
		rows.AddRow(args[0], args[1], args[2], args[3], args[4], args[5], args[6], args[7])

		mock.ExpectExec(regexp.QuoteMeta(`SET status = 'revoked'`)).
			WithArgs("serial-1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM certificates`)).
			WithArgs("serial-1").
			WillReturnRows(rows)

		err := repo.Revoke(testContext(), "serial-1")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error: unknown serial", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewCertificateRepository(newDBFromSQL(db), logger.Nop())

		mock.ExpectExec(regexp.QuoteMeta(`SET status = 'revoked'`)).
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM certificates`)).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		err := repo.Revoke(testContext(), "missing")

		assert.ErrorIs(t, err, ErrCertificateNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
