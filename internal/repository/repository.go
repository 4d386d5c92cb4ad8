// Package repository defines the narrow data-access surface the core model
// lifecycle requires (spec.md §6): building the client-product interaction
// feed and paginated/by-id catalog lookups. The sqlite-backed implementation
// in sqlite.go parameterizes every query; callers must never string-
// concatenate user input into SQL.
package repository

import "context"

// ClientRow is a single client record.
type ClientRow struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// ProductRow is a single product record.
type ProductRow struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// Interaction is one aggregated (client, product) purchase row, already
// filtered to non-cancelled transactions and non-excluded clients.
type Interaction struct {
	ClientID  string
	ProductID string
	Quantity  float64
}

// Repository is the capability set spec.md §6 requires of the operational
// database: build_client_product_matrix, get_clients, get_products,
// get_client_by_id, get_product_by_id, close. Backend-specific drivers
// (sqlite here; SQL Server/Firebird in original_source are not reimplemented,
// see DESIGN.md) satisfy this interface.
type Repository interface {
	// BuildClientProductMatrix returns one row per (client_id, product_id)
	// with quantities summed, cancelled transactions excluded, and
	// configured excluded client ids excluded.
	BuildClientProductMatrix(ctx context.Context) ([]Interaction, error)

	// GetClients returns page `page` (1-based) of up to `pageSize` clients
	// matching `search` (substring, case-insensitive; empty matches all),
	// excluding generic-public/excluded clients, plus the total matching
	// row count across all pages.
	GetClients(ctx context.Context, search string, page, pageSize int) ([]ClientRow, int, error)

	// GetProducts returns page `page` (1-based) of up to `pageSize`
	// products matching `search`, plus the total matching row count.
	GetProducts(ctx context.Context, search string, page, pageSize int) ([]ProductRow, int, error)

	// GetClientByID returns a client and ok=true if found.
	GetClientByID(ctx context.Context, id string) (ClientRow, bool, error)

	// GetProductByID returns a product and ok=true if found.
	GetProductByID(ctx context.Context, id string) (ProductRow, bool, error)

	// Close releases the repository's resources (e.g. the DB connection).
	Close() error
}
