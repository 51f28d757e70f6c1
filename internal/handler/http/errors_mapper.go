package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/vaultwire/internal/crypto"
	"github.com/MKhiriev/vaultwire/internal/service"
	"github.com/MKhiriev/vaultwire/internal/store"
	"github.com/MKhiriev/vaultwire/models"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided: http.StatusBadRequest,
	service.ErrAlreadyInitialized:  http.StatusConflict,
	service.ErrCANotInitialized:    http.StatusConflict,
	service.ErrNotFound:            http.StatusNotFound,
	service.ErrAccessDenied:        http.StatusForbidden,
	service.ErrShareLinkExpired:    http.StatusGone,
	service.ErrNoActiveCertificate: http.StatusConflict,

	models.ErrUnknownExpiryPreset: http.StatusBadRequest,

	crypto.ErrIntegrityMismatch: http.StatusConflict,
	crypto.ErrKeyUnavailable:    http.StatusInternalServerError,

	store.ErrActiveCertificateExists:   http.StatusConflict,
	store.ErrActiveCertificateNotFound: http.StatusConflict,
	store.ErrCertificateNotFound:       http.StatusNotFound,
	store.ErrIdentityKeysNotFound:      http.StatusNotFound,
	store.ErrVaultItemNotFound:         http.StatusNotFound,
	store.ErrWrappedKeyNotFound:        http.StatusForbidden,
	store.ErrShareLinkNotFound:         http.StatusNotFound,

	store.ErrBuildingSQLQuery:      http.StatusInternalServerError,
	store.ErrExecutingQuery:        http.StatusInternalServerError,
	store.ErrBeginningTransaction:  http.StatusInternalServerError,
	store.ErrCommitingTransaction:  http.StatusInternalServerError,
	store.ErrExecutingStatement:    http.StatusInternalServerError,
	store.ErrScanningRow:           http.StatusInternalServerError,
	store.ErrScanningRows:          http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
