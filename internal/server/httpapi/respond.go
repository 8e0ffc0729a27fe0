package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/minkvault/mink/internal/common"
	"github.com/minkvault/mink/internal/cryptox"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			s.logger.Error(context.Background(), "failed to encode response", "error", err)
		}
	}
}

// writeError maps domain sentinels onto HTTP status codes. Authentication
// failures on ciphertext surface as 401: the presented password did not
// produce the right key.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, common.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, cryptox.ErrAuthentication):
		status = http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		s.writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(common.ErrValidation, err)
	}
	return nil
}
