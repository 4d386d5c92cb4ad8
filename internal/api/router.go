// Package api wires the HTTP surface of spec.md §6 onto a chi router:
// recommendations, model metadata, and paginated client/product browsing.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Betucciny/predictive-module/internal/catalog"
	"github.com/Betucciny/predictive-module/internal/middleware"
	"github.com/Betucciny/predictive-module/internal/modelserver"
)

// chiMiddleware adapts our http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler so it can be registered with r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// NewRouter builds the full chi.Router serving the recommender's HTTP
// surface against server and cat.
func NewRouter(server *modelserver.Server, cat *catalog.Adapter) http.Handler {
	h := &handlers{server: server, catalog: cat}

	r := chi.NewRouter()
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.Recoverer)

	r.Get("/recommend/{client_id}", h.recommend)
	r.Get("/recommend/{client_id}/{limit}", h.recommend)
	r.Get("/metadata", h.metadata)
	r.Get("/clients", h.clients)
	r.Get("/products", h.products)
	r.Get("/client/{id}", h.clientByID)
	r.Get("/product/{id}", h.productByID)

	return r
}
