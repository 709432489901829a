package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/spigell/hr-assistant/internal/auth"
	"github.com/spigell/hr-assistant/internal/hr"
)

const maxJSONBody = 1 << 20

// HTTPStatus maps an error onto a response status.
func HTTPStatus(err error) int {
	var denied *hr.PermissionDeniedError
	switch {
	case errors.As(err, &denied):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, hr.ErrNotFound), errors.Is(err, hr.ErrEmptyResult):
		return http.StatusNotFound
	case errors.Is(err, hr.ErrDuplicateIdentity):
		return http.StatusConflict
	case errors.Is(err, hr.ErrValidation), errors.Is(err, hr.ErrExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, hr.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError hides infrastructure details from the client and logs them instead.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)

	var denied *hr.PermissionDeniedError
	msg := err.Error()
	switch {
	case errors.As(err, &denied):
		msg = denied.Reason
	case status == http.StatusServiceUnavailable:
		s.logger.Error("dependency unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "service temporarily unavailable"
	case status == http.StatusInternalServerError:
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal error"
	}
	writeMessage(w, status, msg)
}

// decodeJSON reads a single JSON object into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", hr.ErrValidation)
		}
		return fmt.Errorf("%w: %v", hr.ErrValidation, err)
	}
	return hr.Validate(s.validate, dst)
}
