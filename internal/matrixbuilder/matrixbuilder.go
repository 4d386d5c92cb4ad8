// Package matrixbuilder implements the Matrix Builder: it aggregates raw
// interaction rows from a repository.Repository into the sparse
// client-product interaction matrix the ALS Trainer fits against.
package matrixbuilder

import (
	"context"
	"fmt"

	"github.com/Betucciny/predictive-module/internal/als"
	"github.com/Betucciny/predictive-module/internal/logging"
	"github.com/Betucciny/predictive-module/internal/repository"
)

// ErrEmptyMatrix is returned when a repository scan yields zero rows; the
// Scheduler treats this as "no model" rather than as a fatal error.
var ErrEmptyMatrix = fmt.Errorf("matrixbuilder: no interaction rows available")

// Builder aggregates repository.Repository interaction rows into an
// als.Matrix.
type Builder struct {
	repo repository.Repository
}

// New constructs a Builder backed by repo.
func New(repo repository.Repository) *Builder {
	return &Builder{repo: repo}
}

// Build scans every client-product interaction from the repository and
// accumulates them into an als.Matrix, preserving first-observed ordering
// for both clients and products. It fails with ErrEmptyMatrix when the
// repository returns zero rows.
func (b *Builder) Build(ctx context.Context) (*als.Matrix, error) {
	rows, err := b.repo.BuildClientProductMatrix(ctx)
	if err != nil {
		logging.CtxErr(ctx, err).Msg("matrixbuilder: repository scan failed")
		return nil, fmt.Errorf("matrixbuilder: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyMatrix
	}

	m := als.NewMatrix()
	for _, row := range rows {
		m.Add(row.ClientID, row.ProductID, row.Quantity)
	}

	logging.Ctx(ctx).Info().
		Int("clients", len(m.Clients())).
		Int("products", len(m.Products())).
		Msg("matrixbuilder: built interaction matrix")

	return m, nil
}
