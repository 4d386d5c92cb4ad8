package matrixbuilder

import (
	"context"
	"errors"
	"testing"

	"github.com/Betucciny/predictive-module/internal/repository"
)

func TestBuildAggregatesInteractionsIntoMatrix(t *testing.T) {
	repo := repository.NewMemory()
	repo.Interactions = []repository.Interaction{
		{ClientID: "c1", ProductID: "p1", Quantity: 3},
		{ClientID: "c1", ProductID: "p2", Quantity: 1},
		{ClientID: "c2", ProductID: "p1", Quantity: 2},
	}

	m, err := New(repo).Build(context.Background())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if got, ok := m.Get("c1", "p1"); !ok || got != 3 {
		t.Fatalf("Get(c1, p1) = (%v, %v), want (3, true)", got, ok)
	}
	if len(m.Clients()) != 2 {
		t.Fatalf("len(Clients()) = %d, want 2", len(m.Clients()))
	}
}

func TestBuildReturnsErrEmptyMatrixOnNoRows(t *testing.T) {
	repo := repository.NewMemory()
	_, err := New(repo).Build(context.Background())
	if !errors.Is(err, ErrEmptyMatrix) {
		t.Fatalf("Build() error = %v, want ErrEmptyMatrix", err)
	}
}
