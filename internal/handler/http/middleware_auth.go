// Package http implements the HTTP transport layer of the service.
// It provides middleware, route handlers, and request/response utilities
// for the REST API. Authentication and logging concerns are handled at this
// layer before requests are forwarded to the service layer.
package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/internal/utils"
	"github.com/MKhiriev/vaultwire/models"
)

// auth is an HTTP middleware that enforces JWT-based authentication.
//
// It inspects the incoming "Authorization" header, extracts the bearer token,
// validates it against the configured sign key and issuer, and — on success —
// stores the caller's identity ID and role in the request context before
// delegating to the next handler.
//
// Token issuance lives in the external auth collaborator; this process only
// verifies.
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Err(ErrEmptyAuthorizationHeader).Send()
			http.Error(w, ErrEmptyAuthorizationHeader.Error(), http.StatusUnauthorized)
			return
		}

		tokenString, err := getTokenFromAuthHeader(authHeader)
		if err != nil {
			log.Err(err).Send()
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		token, err := utils.ValidateAndParseJWTToken(tokenString, h.tokenSignKey, h.tokenIssuer)
		if err != nil {
			log.Err(err).Msg("error occurred during parsing token")
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), utils.IdentityIDCtxKey, token.IdentityID)
		ctx = context.WithValue(ctx, utils.RoleCtxKey, token.Role)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// adminOnly gates administrative PKI routes on the token role claim. It must
// run after [Handler.auth].
func (h *Handler) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		role, ok := utils.GetRoleFromContext(r.Context())
		if !ok || role != models.RoleAdmin {
			log.Warn().Str("role", role).Msg("admin route rejected")
			http.Error(w, ErrAdminRoleRequired.Error(), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getTokenFromAuthHeader extracts the bearer token string from a raw
// "Authorization" HTTP header value of the standard form
//
//	Authorization: <scheme> <token>
func getTokenFromAuthHeader(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) < 2 {
		return "", ErrInvalidAuthorizationHeader
	}

	tokenString := parts[1]
	if tokenString == "" {
		return "", ErrEmptyToken
	}

	return tokenString, nil
}
