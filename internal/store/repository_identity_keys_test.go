package store

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/models"
)

func TestIdentityKeyRepositorySave(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewIdentityKeyRepository(newDBFromSQL(db), logger.Nop())

	material := models.IdentityKeyMaterial{
		IdentityID:          7,
		SigningPublicKeyPEM: "pub-pem",
		SigningPrivateKey:   testWrappedBlob("wrapped-rsa"),
		AgreementPublicKey:  []byte("x25519-public"),
		AgreementPrivateKey: testWrappedBlob("wrapped-x25519"),
		CreatedAt:           time.Now().Truncate(time.Millisecond),
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO identity_keys`)).
		WithArgs(
			material.IdentityID,
			material.SigningPublicKeyPEM,
			material.SigningPrivateKey.Encode(),
			material.AgreementPublicKey,
			material.AgreementPrivateKey.Encode(),
			material.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Save(testContext(), material)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityKeyRepositoryCreate(t *testing.T) {
	material := models.IdentityKeyMaterial{
		IdentityID:          7,
		SigningPublicKeyPEM: "pub-pem",
		SigningPrivateKey:   testWrappedBlob("wrapped-rsa"),
		AgreementPublicKey:  []byte("x25519-public"),
		AgreementPrivateKey: testWrappedBlob("wrapped-x25519"),
		CreatedAt:           time.Now().Truncate(time.Millisecond),
	}

	t.Run("success: fresh identity, row inserted", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewIdentityKeyRepository(newDBFromSQL(db), logger.Nop())

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO identity_keys`)).
			WithArgs(
				material.IdentityID,
				material.SigningPublicKeyPEM,
				material.SigningPrivateKey.Encode(),
				material.AgreementPublicKey,
				material.AgreementPrivateKey.Encode(),
				material.CreatedAt,
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		inserted, err := repo.Create(testContext(), material)

		require.NoError(t, err)
		assert.True(t, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing record stays untouched, conflict reported", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewIdentityKeyRepository(newDBFromSQL(db), logger.Nop())

		// ON CONFLICT DO NOTHING surfaces as zero affected rows
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO identity_keys`)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		inserted, err := repo.Create(testContext(), material)

		require.NoError(t, err)
		assert.False(t, inserted)
	})

	t.Run("error: driver failure", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewIdentityKeyRepository(newDBFromSQL(db), logger.Nop())

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO identity_keys`)).
			WillReturnError(sql.ErrConnDone)

		_, err := repo.Create(testContext(), material)

		assert.ErrorIs(t, err, ErrExecutingStatement)
	})
}

func TestIdentityKeyRepositoryGet(t *testing.T) {
	columns := []string{
		"identity_id", "signing_public_key", "signing_private_key",
		"agreement_public_key", "agreement_private_key", "created_at",
	}

	t.Run("success: wrapped blobs decode back", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewIdentityKeyRepository(newDBFromSQL(db), logger.Nop())

		signing := testWrappedBlob("wrapped-rsa")
		agreement := testWrappedBlob("wrapped-x25519")
		created := time.Now().Truncate(time.Millisecond)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM identity_keys`)).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(int64(7), "pub-pem", signing.Encode(), []byte("x25519-public"), agreement.Encode(), created))

		material, err := repo.Get(testContext(), 7)

		require.NoError(t, err)
		assert.Equal(t, signing, material.SigningPrivateKey)
		assert.Equal(t, agreement, material.AgreementPrivateKey)
		assert.Equal(t, "pub-pem", material.SigningPublicKeyPEM)
	})

	t.Run("error: identity without keys", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewIdentityKeyRepository(newDBFromSQL(db), logger.Nop())

		mock.ExpectQuery(regexp.QuoteMeta(`FROM identity_keys`)).
			WithArgs(int64(8)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(testContext(), 8)

		assert.ErrorIs(t, err, ErrIdentityKeysNotFound)
	})
}
