package httpapp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/http/dto"
)

const maxJSONBody = 1 << 20

// Error kinds carried in the code field of error bodies.
const (
	kindValidation  = "validation"
	kindNotFound    = "not_found"
	kindConflict    = "conflict"
	kindService     = "service"
	kindInternal    = "internal"
	kindTooLarge    = "too_large"
	kindUnavailable = "unavailable"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string, details map[string]string) {
	writeJSON(w, status, errorResponse{Error: message, Code: kind, Details: details})
}

func writeValidation(w http.ResponseWriter, errs []dto.ValidationError) {
	writeError(w, http.StatusBadRequest, kindValidation, dto.ToResponse(errs), dto.ToMap(errs))
}

// fail maps a service error onto a status code and kind. Service and
// unexpected errors are logged; the response names only the failed operation.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *domain.ValidationError
		ce *domain.ConflictError
		se *domain.ServiceError
	)
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, kindValidation, ve.Message, ve.Fields)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, kindNotFound, err.Error(), nil)
	case errors.As(err, &ce):
		writeError(w, http.StatusConflict, kindConflict, ce.Message, nil)
	case errors.As(err, &se):
		h.Logger.Error("Service error", "path", r.URL.Path, "op", se.Op, "error", se.Err)
		writeError(w, http.StatusInternalServerError, kindService, se.Op+" failed", nil)
	default:
		h.Logger.Error("Request error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, kindInternal, "internal server error", nil)
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("request body is required", nil)
		}
		return domain.NewValidationError("invalid JSON body: "+err.Error(), nil)
	}
	return nil
}

func (h *Handler) decodeQuery(r *http.Request, v interface{}) error {
	if err := h.decoder.Decode(v, r.URL.Query()); err != nil {
		return domain.NewValidationError("invalid query parameters: "+err.Error(), nil)
	}
	return nil
}
