package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withLogging)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.health)

		// bearer share links carry their own credential: the token
		r.Get("/vault/share/{token}", h.fetchShareLink)

		// authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(h.auth)

			r.Post("/pki/me/rotate-keys", h.rotateKeys)

			r.Post("/vault/upload", h.uploadVaultItem)
			r.Post("/vault/{id}/decrypt", h.decryptVaultItem)
			r.Post("/vault/{id}/share-link", h.createShareLink)

			r.Post("/messages/send", h.sendMessage)
			r.Get("/messages/thread/{otherId}", h.fetchThread)

			r.Post("/signatures/sign", h.sign)
			r.Post("/signatures/verify-bundle", h.verifyBundle)

			// admin-gated PKI operations
			r.Group(func(r chi.Router) {
				r.Use(h.adminOnly)

				r.Post("/pki/admin/init-ca", h.initCA)
				r.Post("/pki/admin/issue/{userId}", h.issueCertificate)
				r.Post("/pki/admin/renew/{userId}", h.renewCertificate)
				r.Post("/pki/admin/revoke/{serial}", h.revokeCertificate)
				r.Get("/pki/admin/validate/{serial}", h.validateCertificate)
			})
		})
	})

	return router
}
