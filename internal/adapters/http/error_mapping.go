package httpadapter

import (
	"net/http"

	"github.com/biasharahub/docintel/internal/core/domain"
)

// writeError maps domain error kinds onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		status = http.StatusNotFound
	case domain.IsKind(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case domain.IsKind(err, domain.ErrAuthFailed):
		status = http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrTemporary), domain.IsKind(err, domain.ErrCapabilityUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
