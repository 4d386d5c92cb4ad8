package als

import (
	"context"
	"math"
	"testing"
)

func TestSolveLinearSystemMatchesKnownSolution(t *testing.T) {
	// A = [[4,1],[1,3]], b = [1,2] -> x = [1/11, 7/11]
	A := [][]float64{{4, 1}, {1, 3}}
	b := []float64{1, 2}

	x := solveLinearSystem(A, b)

	wantX0 := 1.0 / 11.0
	wantX1 := 7.0 / 11.0
	if math.Abs(x[0]-wantX0) > 1e-9 || math.Abs(x[1]-wantX1) > 1e-9 {
		t.Fatalf("solveLinearSystem(A, b) = %v, want [%v %v]", x, wantX0, wantX1)
	}
}

func TestSolveLinearSystemIdentity(t *testing.T) {
	A := [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	b := []float64{3, -2, 5}

	x := solveLinearSystem(A, b)
	for i, want := range b {
		if math.Abs(x[i]-want) > 1e-9 {
			t.Fatalf("solveLinearSystem(I, b)[%d] = %v, want %v", i, x[i], want)
		}
	}
}

func TestContextCancelledReflectsContextState(t *testing.T) {
	ctx := context.Background()
	if ContextCancelled(ctx) {
		t.Fatal("background context reported cancelled")
	}

	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()
	if !ContextCancelled(cancelCtx) {
		t.Fatal("cancelled context reported not cancelled")
	}
}
