package search

import (
	"context"
	"testing"

	"github.com/Betucciny/predictive-module/internal/als"
)

func buildTestMatrix() *als.Matrix {
	m := als.NewMatrix()
	m.Add("c1", "p1", 5)
	m.Add("c1", "p2", 1)
	m.Add("c2", "p2", 4)
	m.Add("c2", "p3", 2)
	m.Add("c3", "p1", 3)
	m.Add("c3", "p3", 6)
	return m
}

func fastFitConfig() als.FitConfig {
	return als.FitConfig{MaxIterations: 2, Tolerance: 1e-3, Seed: 3, NumWorkers: 2}
}

func TestGridHas24Combinations(t *testing.T) {
	if len(Grid) != 24 {
		t.Fatalf("len(Grid) = %d, want 24", len(Grid))
	}
}

func TestRunFindsAWinner(t *testing.T) {
	m := buildTestMatrix()
	var progress int32
	result := Run(context.Background(), m, fastFitConfig(), &progress)

	if !result.Found {
		t.Fatal("Run did not find a winning candidate")
	}
	if result.Winner.Model == nil {
		t.Fatal("winning candidate has no model")
	}
	if int(progress) != len(Grid) {
		t.Fatalf("progress = %d, want %d (all candidates accounted for)", progress, len(Grid))
	}
}

func TestRunSelectsLowestEPR(t *testing.T) {
	candidates := []Candidate{
		{Hyperparameters: als.Hyperparameters{NumFactors: 20}, Model: &als.Model{}, EPR: 0.5, HasEPR: true},
		{Hyperparameters: als.Hyperparameters{NumFactors: 50}, Model: &als.Model{}, EPR: 0.2, HasEPR: true},
		{Hyperparameters: als.Hyperparameters{NumFactors: 100}, Model: &als.Model{}, EPR: 0.3, HasEPR: true},
	}
	result := selectWinner(candidates)
	if !result.Found || result.Winner.Hyperparameters.NumFactors != 50 {
		t.Fatalf("winner = %+v, want NumFactors=50 (lowest EPR)", result.Winner)
	}
}

func TestRunBreaksTiesByFirstObservedOrder(t *testing.T) {
	candidates := []Candidate{
		{Hyperparameters: als.Hyperparameters{NumFactors: 20}, Model: &als.Model{}, EPR: 0.3, HasEPR: true},
		{Hyperparameters: als.Hyperparameters{NumFactors: 50}, Model: &als.Model{}, EPR: 0.3, HasEPR: true},
	}
	result := selectWinner(candidates)
	if result.Winner.Hyperparameters.NumFactors != 20 {
		t.Fatalf("tie-break winner NumFactors = %d, want 20 (first observed)", result.Winner.Hyperparameters.NumFactors)
	}
}

func TestRunReturnsNotFoundWhenEveryCandidateFails(t *testing.T) {
	candidates := []Candidate{
		{Hyperparameters: als.Hyperparameters{NumFactors: 20}, Err: context.Canceled},
		{Hyperparameters: als.Hyperparameters{NumFactors: 50}, Err: context.Canceled},
	}
	result := selectWinner(candidates)
	if result.Found {
		t.Fatal("expected Found=false when every candidate failed")
	}
}
