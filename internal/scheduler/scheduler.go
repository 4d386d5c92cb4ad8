// Package scheduler implements the Scheduler: a daily job that rebuilds
// the interaction matrix, runs the Hyperparameter Search, persists the
// winning artifact, and republishes the live model (spec.md §4.6).
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Betucciny/predictive-module/internal/als"
	"github.com/Betucciny/predictive-module/internal/artifact"
	"github.com/Betucciny/predictive-module/internal/logging"
	"github.com/Betucciny/predictive-module/internal/matrixbuilder"
	"github.com/Betucciny/predictive-module/internal/modelserver"
	"github.com/Betucciny/predictive-module/internal/search"
)

// Scheduler runs the training pipeline once a day at midnight in a
// configured timezone, and exposes RunNow for an immediate out-of-band run
// (used at startup when no artifact exists yet).
type Scheduler struct {
	builder *matrixbuilder.Builder
	store   *artifact.Store
	server  *modelserver.Server
	loc     *time.Location
	fitCfg  als.FitConfig

	running int32 // atomic: 1 while a training run is in flight
}

// New constructs a Scheduler that trains at midnight in loc, using builder
// to source interaction data, store to persist the winning artifact, and
// server to republish the live model immediately after a successful run.
func New(builder *matrixbuilder.Builder, store *artifact.Store, server *modelserver.Server, loc *time.Location) *Scheduler {
	return &Scheduler{
		builder: builder,
		store:   store,
		server:  server,
		loc:     loc,
		fitCfg:  als.DefaultFitConfig(),
	}
}

// Run blocks until ctx is cancelled, firing RunNow once daily at midnight
// in the Scheduler's configured timezone.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		wait := time.Until(nextMidnight(time.Now().In(s.loc), s.loc))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.RunNow(ctx)
		}
	}
}

func nextMidnight(now time.Time, loc *time.Location) time.Time {
	year, month, day := now.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if !midnight.After(now) {
		midnight = midnight.AddDate(0, 0, 1)
	}
	return midnight
}

// RunNow executes one training pipeline run immediately: build the
// interaction matrix, search the hyperparameter grid, persist the winning
// artifact, and republish the live model. At most one run is ever in
// flight; a call while a run is already executing is a no-op.
func (s *Scheduler) RunNow(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		logging.Ctx(ctx).Warn().Msg("scheduler: training already in progress, skipping")
		return
	}
	defer atomic.StoreInt32(&s.running, 0)

	log := logging.Ctx(ctx)
	log.Info().Msg("scheduler: training run starting")

	matrix, err := s.builder.Build(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("scheduler: no interaction data, skipping training run")
		return
	}

	var progress int32
	result := search.Run(ctx, matrix, s.fitCfg, &progress)
	if !result.Found {
		log.Warn().Msg("scheduler: no hyperparameter candidate produced a usable model")
		return
	}

	trainedAt := time.Now().In(s.loc)
	epr := result.Winner.EPR
	doc := artifact.FromModel(result.Winner.Model, trainedAt, &epr, matrix)

	if err := s.store.Save(doc); err != nil {
		logging.CtxErr(ctx, err).Msg("scheduler: failed to persist artifact")
		return
	}

	s.server.Publish(result.Winner.Model, &epr, trainedAt)

	log.Info().
		Stringer("hyperparameters", result.Winner.Hyperparameters).
		Float64("epr", epr).
		Msg("scheduler: training run complete")
}
