package service

import (
	"github.com/MKhiriev/vaultwire/internal/config"
	"github.com/MKhiriev/vaultwire/internal/crypto"
	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/internal/store"
)

type Services struct {
	IdentityService             IdentityService
	CertificateAuthorityService CertificateAuthorityService
	VaultService                VaultService
	MessageService              MessageService
	SignatureService            SignatureService
}

// NewServices wires every engine over the shared repositories and the single
// parsed master secret. The secret is validated during config parsing; by the
// time this constructor runs it is known well-formed.
func NewServices(storages *store.Storages, cfg config.App, secret crypto.MasterSecret, logger *logger.Logger) *Services {
	custody := crypto.NewKeyCustody()
	identities := NewIdentityService(storages.IdentityKeyRepository, custody, secret, logger)

	return &Services{
		IdentityService:             identities,
		CertificateAuthorityService: NewCAService(storages.CARootRepository, storages.CertificateRepository, identities, custody, secret, cfg.CertificateTTL, logger),
		VaultService:                NewVaultService(storages.VaultRepository, storages.ShareLinkRepository, identities, custody, secret, logger),
		MessageService:              NewMessageService(storages.MessageRepository, identities, custody, secret, logger),
		SignatureService:            NewSignatureService(storages.SignatureRepository, storages.CertificateRepository, identities, custody, secret, logger),
	}
}
