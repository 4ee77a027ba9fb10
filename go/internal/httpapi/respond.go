package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
	// ConflictsWith names the booking blocking a requested slot.
	ConflictsWith string `json:"conflicts_with,omitempty"`
	Retryable     bool   `json:"retryable,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, code int, body errorResponse) {
	respondWithJSON(w, code, body)
}

// respondWithAppError maps the error taxonomy onto HTTP statuses.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *apperrors.ValidationError
		cerr *apperrors.ConflictError
	)
	switch {
	// Checked first: the cause of a failed side effect may itself be a NotFound or similar.
	case errors.Is(err, apperrors.ErrSideEffectFailed):
		log.Error().Err(err).Str("path", r.URL.Path).Msg("accept side effect failed")
		respondWithError(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Code: "side_effect_failed", Retryable: true})
	case errors.As(err, &verr):
		respondWithError(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation", Field: verr.Field})
	case errors.As(err, &cerr):
		respondWithError(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "conflict", ConflictsWith: cerr.ExistingID})
	case errors.Is(err, apperrors.ErrNotAuthorized):
		respondWithError(w, http.StatusForbidden, errorResponse{Error: err.Error(), Code: "not_authorized"})
	case errors.Is(err, apperrors.ErrInvalidState):
		respondWithError(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "invalid_state"})
	case errors.Is(err, apperrors.ErrNotFound):
		respondWithError(w, http.StatusNotFound, errorResponse{Error: err.Error(), Code: "not_found"})
	default:
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		respondWithError(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := jsonDecoder(r.Body).Decode(dst); err != nil {
		// Time fields decode through the parser, so their failures are validation errors.
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			respondWithAppError(w, r, err)
			return false
		}
		respondWithError(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body: " + err.Error(), Code: "bad_request"})
		return false
	}
	return true
}

func jsonDecoder(r io.Reader) *json.Decoder {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec
}
