package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/Betucciny/predictive-module/internal/logging"
)

// respondJSON writes data as the flat JSON response body spec.md's HTTP
// surface expects, with no enveloping status/metadata wrapper.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		logging.CtxErr(r.Context(), err).Msg("api: failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logging.CtxErr(r.Context(), err).Msg("api: failed to write response")
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// respondNotFound writes the 404 response the spec's Validation error kind
// maps to: unknown client id, unknown product id, malformed path parameters.
func respondNotFound(w http.ResponseWriter, r *http.Request, message string) {
	respondJSON(w, r, http.StatusNotFound, errorBody{Error: message})
}

// respondBackendError writes the 500 response the spec's Backend error kind
// maps to, logging the underlying cause.
func respondBackendError(w http.ResponseWriter, r *http.Request, err error) {
	logging.CtxErr(r.Context(), err).Msg("api: backend error")
	respondJSON(w, r, http.StatusInternalServerError, errorBody{Error: "internal error"})
}
