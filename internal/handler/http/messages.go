package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/internal/utils"
	"github.com/MKhiriev/vaultwire/models"
)

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	identityID, ok := utils.GetIdentityIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var request models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		log.Err(err).Str("func", "*Handler.sendMessage").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}
	request.SenderID = identityID

	created, err := h.services.MessageService.Send(r.Context(), request)
	if err != nil {
		log.Err(err).Str("func", "*Handler.sendMessage").Msg("send failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	status := http.StatusCreated
	if !created {
		// идемпотентный повтор
		status = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]bool{"created": created})
}

func (h *Handler) fetchThread(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	identityID, ok := utils.GetIdentityIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	otherID, err := strconv.ParseInt(chi.URLParam(r, "otherId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	thread, err := h.services.MessageService.FetchThread(r.Context(), identityID, otherID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.fetchThread").Int64("other_id", otherID).Msg("thread fetch failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(thread)
}
