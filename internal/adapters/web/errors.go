package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"freightops/internal/core"
)

type errorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Fields    map[string]string `json:"fields,omitempty"`
	Allowed   *bool             `json:"allowed,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, errorResponse{Error: message, Code: code}, status)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, resp errorResponse, status int) {
	resp.RequestID = requestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusForKind maps a core error kind to its HTTP status.
func statusForKind(kind core.ErrorKind) int {
	switch kind {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindReference:
		return http.StatusUnprocessableEntity
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict, core.KindGuard:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError translates an error returned by the application layer.
// Integrity violations and untyped errors are logged and answered opaquely.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ce, ok := core.AsError(err)
	if !ok {
		if ctxErr := r.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			writeError(w, r, "request cancelled", "REQUEST_CANCELLED", http.StatusServiceUnavailable)
			return
		}
		h.logger.Error().Err(err).
			Str("request_id", requestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	switch ce.Kind {
	case core.KindIntegrity:
		h.logger.Error().Err(err).
			Str("request_id", requestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("integrity violation")
		writeError(w, r, "the operation could not be completed and was rolled back", ce.Code, http.StatusInternalServerError)
	case core.KindGuard:
		allowed := false
		writeErrorResponse(w, r, errorResponse{
			Error:   ce.Message,
			Code:    ce.Code,
			Allowed: &allowed,
			Reason:  ce.Message,
		}, http.StatusConflict)
	default:
		writeErrorResponse(w, r, errorResponse{
			Error:     ce.Message,
			Code:      ce.Code,
			Fields:    ce.Fields,
			Retryable: ce.Retryable(),
		}, statusForKind(ce.Kind))
	}
}
