package http

import (
	"github.com/MKhiriev/vaultwire/internal/config"
	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/internal/service"
)

type Handler struct {
	services *service.Services

	// tokenSignKey and tokenIssuer verify inbound identity tokens issued by
	// the external auth collaborator.
	tokenSignKey string
	tokenIssuer  string

	logger *logger.Logger
}

func NewHandler(services *service.Services, cfg config.App, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services:     services,
		tokenSignKey: cfg.TokenSignKey,
		tokenIssuer:  cfg.TokenIssuer,
		logger:       logger,
	}
}
