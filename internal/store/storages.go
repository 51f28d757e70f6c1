package store

import "github.com/MKhiriev/vaultwire/internal/logger"

// Storages aggregates every repository behind a single constructor so the
// application wiring stays in one place.
type Storages struct {
	IdentityKeyRepository IdentityKeyRepository
	CARootRepository      CARootRepository
	CertificateRepository CertificateRepository
	VaultRepository       VaultRepository
	ShareLinkRepository   ShareLinkRepository
	MessageRepository     MessageRepository
	SignatureRepository   SignatureRepository
}

// NewStorages constructs all PostgreSQL-backed repositories over the shared
// database connection.
func NewStorages(db *DB, logger *logger.Logger) *Storages {
	return &Storages{
		IdentityKeyRepository: NewIdentityKeyRepository(db, logger),
		CARootRepository:      NewCARootRepository(db, logger),
		CertificateRepository: NewCertificateRepository(db, logger),
		VaultRepository:       NewVaultRepository(db, logger),
		ShareLinkRepository:   NewShareLinkRepository(db, logger),
		MessageRepository:     NewMessageRepository(db, logger),
		SignatureRepository:   NewSignatureRepository(db, logger),
	}
}
