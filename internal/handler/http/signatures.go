package http

import (
	"encoding/json"
	"net/http"

	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/internal/utils"
	"github.com/MKhiriev/vaultwire/models"
)

type signRequest struct {
	Content string `json:"content"`
}

func (h *Handler) sign(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	identityID, ok := utils.GetIdentityIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var body signRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Err(err).Str("func", "*Handler.sign").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	bundle, err := h.services.SignatureService.Sign(r.Context(), identityID, []byte(body.Content))
	if err != nil {
		log.Err(err).Str("func", "*Handler.sign").Msg("signing failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(bundle)
}

type verifyBundleRequest struct {
	Content string                 `json:"content"`
	Bundle  models.SignatureBundle `json:"bundle"`
}

func (h *Handler) verifyBundle(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	var body verifyBundleRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Err(err).Str("func", "*Handler.verifyBundle").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	result, err := h.services.SignatureService.VerifyBundle(r.Context(), []byte(body.Content), body.Bundle)
	if err != nil {
		log.Err(err).Str("func", "*Handler.verifyBundle").Msg("verification failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}
