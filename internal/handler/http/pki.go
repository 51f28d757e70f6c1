package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/internal/utils"
	"github.com/MKhiriev/vaultwire/models"
)

func (h *Handler) initCA(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	root, err := h.services.CertificateAuthorityService.InitCA(r.Context())
	if err != nil {
		log.Err(err).Str("func", "*Handler.initCA").Msg("init-ca failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"fingerprint": root.Fingerprint,
		"created_at":  root.CreatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) issueCertificate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	subjectID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	cert, err := h.services.CertificateAuthorityService.Issue(r.Context(), subjectID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.issueCertificate").Int64("subject_id", subjectID).Msg("issue failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(certificateResponse(cert))
}

func (h *Handler) renewCertificate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	subjectID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	cert, err := h.services.CertificateAuthorityService.Renew(r.Context(), subjectID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.renewCertificate").Int64("subject_id", subjectID).Msg("renew failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(certificateResponse(cert))
}

func (h *Handler) revokeCertificate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	serial := chi.URLParam(r, "serial")
	if serial == "" {
		http.Error(w, "missing serial", http.StatusBadRequest)
		return
	}

	if err := h.services.CertificateAuthorityService.Revoke(r.Context(), serial); err != nil {
		log.Err(err).Str("func", "*Handler.revokeCertificate").Str("serial", serial).Msg("revoke failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) validateCertificate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	serial := chi.URLParam(r, "serial")
	state, err := h.services.CertificateAuthorityService.Validate(r.Context(), serial, time.Now())
	if err != nil {
		log.Err(err).Str("func", "*Handler.validateCertificate").Str("serial", serial).Msg("validate failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"serial": serial, "state": string(state)})
}

func certificateResponse(cert models.Certificate) map[string]any {
	return map[string]any{
		"serial":                 cert.Serial,
		"subject_id":             cert.SubjectID,
		"issuer":                 cert.Issuer,
		"public_key_fingerprint": cert.PublicKeyFingerprint,
		"signature":              cert.Signature,
		"issued_at":              cert.IssuedAt.Format(time.RFC3339),
		"expires_at":             cert.ExpiresAt.Format(time.RFC3339),
		"status":                 cert.Status,
	}
}

func (h *Handler) rotateKeys(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	identityID, ok := utils.GetIdentityIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	material, err := h.services.IdentityService.RotateIdentityKeys(r.Context(), identityID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.rotateKeys").Int64("identity_id", identityID).Msg("rotation failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"identity_id":        material.IdentityID,
		"signing_public_key": material.SigningPublicKeyPEM,
		"rotated_at":         material.CreatedAt.Format(time.RFC3339),
	})
}
