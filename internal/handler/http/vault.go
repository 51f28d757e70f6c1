package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/internal/utils"
)

type uploadVaultItemRequest struct {
	Title        string  `json:"title"`
	Content      string  `json:"content"`
	RecipientIDs []int64 `json:"recipient_ids"`
}

func (h *Handler) uploadVaultItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	identityID, ok := utils.GetIdentityIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var body uploadVaultItemRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Err(err).Str("func", "*Handler.uploadVaultItem").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	result, err := h.services.VaultService.Upload(r.Context(), identityID, body.Title, []byte(body.Content), body.RecipientIDs)
	if err != nil {
		log.Err(err).Str("func", "*Handler.uploadVaultItem").Msg("upload failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(result)
}

func (h *Handler) decryptVaultItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	identityID, ok := utils.GetIdentityIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	itemID := chi.URLParam(r, "id")
	plaintext, err := h.services.VaultService.Decrypt(r.Context(), identityID, itemID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.decryptVaultItem").Str("item_id", itemID).Msg("decrypt failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"content": string(plaintext)})
}

type createShareLinkRequest struct {
	ExpiryPreset string `json:"expiry_preset"`
}

func (h *Handler) createShareLink(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	identityID, ok := utils.GetIdentityIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var body createShareLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Err(err).Str("func", "*Handler.createShareLink").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	itemID := chi.URLParam(r, "id")
	result, err := h.services.VaultService.CreateShareLink(r.Context(), identityID, itemID, body.ExpiryPreset)
	if err != nil {
		log.Err(err).Str("func", "*Handler.createShareLink").Str("item_id", itemID).Msg("share link creation failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"token":      result.Token,
		"expires_at": result.ExpiresAt.Format(time.RFC3339),
	})
}

func (h *Handler) fetchShareLink(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	token := chi.URLParam(r, "token")
	payload, err := h.services.VaultService.FetchShareLink(r.Context(), token)
	if err != nil {
		log.Err(err).Str("func", "*Handler.fetchShareLink").Msg("share link fetch failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	// ciphertext plus the token-wrapped content key; the bearer decrypts
	// locally and the plaintext never transits the server
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
