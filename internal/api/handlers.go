package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Betucciny/predictive-module/internal/catalog"
	"github.com/Betucciny/predictive-module/internal/modelserver"
)

type recommendResponse struct {
	Client   catalog.ClientRow    `json:"client"`
	Products []catalog.ProductRow `json:"products"`
}

// handlers holds the dependencies every route needs: the live model slot
// and the catalog read adapter.
type handlers struct {
	server  *modelserver.Server
	catalog *catalog.Adapter
}

type metadataResponse struct {
	NumFactors           int      `json:"num_factors"`
	Regularization       float64  `json:"regularization"`
	ConfidenceMultiplier float64  `json:"confidence_multiplier"`
	EPR                  *float64 `json:"epr,omitempty"`
}

// defaultRecommendLimit is used when the caller does not supply a /limit
// path segment.
const defaultRecommendLimit = 5

func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func (h *handlers) recommend(w http.ResponseWriter, r *http.Request) {
	clientID := pathParam(r, "client_id")
	limit := defaultRecommendLimit

	if raw := chi.URLParam(r, "limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondNotFound(w, r, "malformed limit path parameter")
			return
		}
		limit = n
	}

	products, err := h.server.Predict(r.Context(), clientID, limit)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		respondNotFound(w, r, "unknown client id")
		return
	case errors.Is(err, modelserver.ErrNoModel):
		respondNotFound(w, r, "no model available")
		return
	case err != nil:
		respondBackendError(w, r, err)
		return
	}

	client, err := h.catalog.GetClientByID(r.Context(), clientID)
	if errors.Is(err, catalog.ErrNotFound) {
		respondNotFound(w, r, "unknown client id")
		return
	}
	if err != nil {
		respondBackendError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, recommendResponse{Client: client, Products: products})
}

func (h *handlers) metadata(w http.ResponseWriter, r *http.Request) {
	meta, err := h.server.Metadata()
	if errors.Is(err, modelserver.ErrNoModel) {
		respondJSON(w, r, http.StatusOK, metadataResponse{})
		return
	}
	if err != nil {
		respondBackendError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, metadataResponse{
		NumFactors:           meta.Hyperparameters.NumFactors,
		Regularization:       meta.Hyperparameters.Regularization,
		ConfidenceMultiplier: meta.Hyperparameters.ConfidenceMultiplier,
		EPR:                  meta.EPR,
	})
}

func pageParam(r *http.Request) int {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (h *handlers) clients(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	page, err := h.catalog.GetClients(r.Context(), search, pageParam(r))
	if err != nil {
		respondBackendError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, page)
}

func (h *handlers) products(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	page, err := h.catalog.GetProducts(r.Context(), search, pageParam(r))
	if err != nil {
		respondBackendError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, page)
}

func (h *handlers) clientByID(w http.ResponseWriter, r *http.Request) {
	row, err := h.catalog.GetClientByID(r.Context(), pathParam(r, "id"))
	if errors.Is(err, catalog.ErrNotFound) {
		respondNotFound(w, r, "unknown client id")
		return
	}
	if err != nil {
		respondBackendError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, row)
}

func (h *handlers) productByID(w http.ResponseWriter, r *http.Request) {
	row, err := h.catalog.GetProductByID(r.Context(), pathParam(r, "id"))
	if errors.Is(err, catalog.ErrNotFound) {
		respondNotFound(w, r, "unknown product id")
		return
	}
	if err != nil {
		respondBackendError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, row)
}
