// Package search implements the Hyperparameter Search: it trains the ALS
// model across a fixed grid of candidates in parallel and selects the one
// with the lowest Expected Percentile Rank (spec.md §4.3).
package search

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Betucciny/predictive-module/internal/als"
	"github.com/Betucciny/predictive-module/internal/logging"
)

// Grid is the fixed 4x2x3 = 24-combination hyperparameter grid every
// training run searches over.
var Grid = buildGrid(
	[]int{20, 50, 100, 200},
	[]float64{0.01, 0.1},
	[]float64{20, 40, 60},
)

func buildGrid(numFactors []int, regularization, confidenceMultiplier []float64) []als.Hyperparameters {
	grid := make([]als.Hyperparameters, 0, len(numFactors)*len(regularization)*len(confidenceMultiplier))
	for _, k := range numFactors {
		for _, lambda := range regularization {
			for _, alpha := range confidenceMultiplier {
				grid = append(grid, als.Hyperparameters{
					NumFactors:           k,
					Regularization:       lambda,
					ConfidenceMultiplier: alpha,
				})
			}
		}
	}
	return grid
}

// Candidate is one grid point's outcome: either a trained model with its
// EPR, or an error if training that combination failed.
type Candidate struct {
	Hyperparameters als.Hyperparameters
	Model           *als.Model
	EPR             float64
	HasEPR          bool
	Err             error
}

// Result is the outcome of a full grid search: the winning candidate (the
// lowest EPR, first-observed order breaking ties) or Found=false if every
// candidate failed or had no EPR to rank by.
type Result struct {
	Winner     *Candidate
	Candidates []Candidate
	Found      bool
}

// Progress reports how many of the grid's candidates have finished, for
// callers that want to log search progress.
type Progress struct {
	Completed int32
	Total     int32
}

// Run trains every combination in Grid against an independent clone of m in
// parallel, polling ctx for cancellation before starting each candidate,
// and returns the candidate with the lowest EPR. progress, if non-nil, is
// incremented atomically as each candidate finishes and may be read
// concurrently from another goroutine.
func Run(ctx context.Context, m *als.Matrix, fitCfg als.FitConfig, progress *int32) Result {
	candidates := make([]Candidate, len(Grid))

	var wg sync.WaitGroup
	for i, hp := range Grid {
		if als.ContextCancelled(ctx) {
			candidates[i] = Candidate{Hyperparameters: hp, Err: ctx.Err()}
			continue
		}
		wg.Add(1)
		go func(i int, hp als.Hyperparameters) {
			defer wg.Done()
			defer func() {
				if progress != nil {
					atomic.AddInt32(progress, 1)
				}
			}()
			candidates[i] = trainCandidate(ctx, m.Clone(), hp, fitCfg)
		}(i, hp)
	}
	wg.Wait()

	return selectWinner(candidates)
}

func trainCandidate(ctx context.Context, m *als.Matrix, hp als.Hyperparameters, fitCfg als.FitConfig) Candidate {
	model, err := als.Fit(ctx, m, hp, fitCfg)
	if err != nil {
		logging.CtxErr(ctx, err).Stringer("hyperparameters", hp).Msg("search: candidate training failed")
		return Candidate{Hyperparameters: hp, Err: err}
	}
	epr, ok := model.ComputeEPR()
	return Candidate{Hyperparameters: hp, Model: model, EPR: epr, HasEPR: ok}
}

// selectWinner picks the candidate with the lowest EPR, breaking ties by
// the grid's first-observed order (stable left-to-right scan).
func selectWinner(candidates []Candidate) Result {
	result := Result{Candidates: candidates}

	var best *Candidate
	for i := range candidates {
		c := &candidates[i]
		if c.Err != nil || c.Model == nil || !c.HasEPR {
			continue
		}
		if best == nil || c.EPR < best.EPR {
			best = c
		}
	}

	if best == nil {
		return result
	}
	result.Winner = best
	result.Found = true
	return result
}
