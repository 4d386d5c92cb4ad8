// Package catalog implements the Catalog Read Adapter: paginated search and
// by-id lookups over clients and products, backed by a repository.Repository.
package catalog

import (
	"context"
	"errors"
	"math"

	"github.com/Betucciny/predictive-module/internal/logging"
	"github.com/Betucciny/predictive-module/internal/repository"
)

// ErrNotFound is returned when a client or product id has no matching row.
var ErrNotFound = errors.New("catalog: not found")

// PageSize is the fixed page size for paginated listings.
const PageSize = 10

// ClientRow and ProductRow are defined by the repository package (the
// lowest layer) and re-exported here since the adapter is their primary
// consumer.
type (
	ClientRow  = repository.ClientRow
	ProductRow = repository.ProductRow
)

// ClientPage is the result of a paginated client search.
type ClientPage struct {
	CurrentPage int         `json:"current_page"`
	TotalPages  int         `json:"total_pages"`
	Clients     []ClientRow `json:"clients"`
}

// ProductPage is the result of a paginated product search.
type ProductPage struct {
	CurrentPage int          `json:"current_page"`
	TotalPages  int          `json:"total_pages"`
	Products    []ProductRow `json:"products"`
}

// Adapter is the Catalog Read Adapter (spec.md §4.7): paginated listings and
// by-id lookups, with generic-public/excluded clients filtered out.
type Adapter struct {
	repo repository.Repository
}

// New builds a Catalog Read Adapter over the given repository.
func New(repo repository.Repository) *Adapter {
	return &Adapter{repo: repo}
}

// GetClients returns page `page` (1-based) of clients matching `search`.
// Generic-public and excluded clients are never returned.
func (a *Adapter) GetClients(ctx context.Context, search string, page int) (ClientPage, error) {
	if page < 1 {
		page = 1
	}
	rows, total, err := a.repo.GetClients(ctx, search, page, PageSize)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("search", search).Msg("catalog: get clients failed")
		return ClientPage{}, err
	}
	return ClientPage{
		CurrentPage: page,
		TotalPages:  totalPages(total),
		Clients:     rows,
	}, nil
}

// GetProducts returns page `page` (1-based) of products matching `search`.
func (a *Adapter) GetProducts(ctx context.Context, search string, page int) (ProductPage, error) {
	if page < 1 {
		page = 1
	}
	rows, total, err := a.repo.GetProducts(ctx, search, page, PageSize)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("search", search).Msg("catalog: get products failed")
		return ProductPage{}, err
	}
	return ProductPage{
		CurrentPage: page,
		TotalPages:  totalPages(total),
		Products:    rows,
	}, nil
}

// GetClientByID looks up a single client, returning ErrNotFound if absent.
func (a *Adapter) GetClientByID(ctx context.Context, id string) (ClientRow, error) {
	row, ok, err := a.repo.GetClientByID(ctx, id)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("client_id", id).Msg("catalog: get client by id failed")
		return ClientRow{}, err
	}
	if !ok {
		return ClientRow{}, ErrNotFound
	}
	return row, nil
}

// GetProductByID looks up a single product, returning ErrNotFound if absent.
func (a *Adapter) GetProductByID(ctx context.Context, id string) (ProductRow, error) {
	row, ok, err := a.repo.GetProductByID(ctx, id)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("product_id", id).Msg("catalog: get product by id failed")
		return ProductRow{}, err
	}
	if !ok {
		return ProductRow{}, ErrNotFound
	}
	return row, nil
}

func totalPages(totalRows int) int {
	if totalRows <= 0 {
		return 0
	}
	return int(math.Ceil(float64(totalRows) / float64(PageSize)))
}
