// Package modelserver implements the Model Server: a single live-model
// slot that serves predictions and recommendations, hot-reloading whenever
// the Artifact Store's file changes on disk (spec.md §4.5).
package modelserver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/Betucciny/predictive-module/internal/als"
	"github.com/Betucciny/predictive-module/internal/artifact"
	"github.com/Betucciny/predictive-module/internal/catalog"
	"github.com/Betucciny/predictive-module/internal/logging"
)

// ErrNoModel is returned by every read operation while no model has ever
// been loaded (no artifact file exists yet and no training run has
// published one).
var ErrNoModel = errors.New("modelserver: no model loaded")

// debounceWindow collapses the burst of events a single atomic rename
// produces (typically a REMOVE and a CREATE in quick succession) into one
// reload.
const debounceWindow = 500 * time.Millisecond

// Server holds the single live-model slot and serves reads against it
// while a background watcher keeps it in sync with the Artifact Store.
type Server struct {
	store   *artifact.Store
	catalog *catalog.Adapter

	mu    sync.RWMutex
	model *als.Model
	epr   *float64
	at    time.Time

	watcher *fsnotify.Watcher
}

// New constructs a Server reading from store and resolving catalog rows
// through cat. It does not load a model until Start is called.
func New(store *artifact.Store, cat *catalog.Adapter) *Server {
	return &Server{store: store, catalog: cat}
}

// Start performs the initial load (if an artifact already exists) and
// launches the background filesystem watcher. It returns once the watcher
// is armed; the initial load itself never blocks on training, since
// training is the Scheduler's responsibility.
func (s *Server) Start(ctx context.Context) error {
	if err := s.reload(ctx); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.CtxErr(ctx, err).Msg("modelserver: initial artifact load failed")
	} else if errors.Is(err, os.ErrNotExist) {
		logging.Ctx(ctx).Info().Str("path", s.store.Path()).Msg("modelserver: waiting for artifact file creation")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("modelserver: create watcher: %w", err)
	}
	dir := filepath.Dir(s.store.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		watcher.Close()
		return fmt.Errorf("modelserver: create artifact directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("modelserver: watch %s: %w", dir, err)
	}
	s.watcher = watcher

	go s.watchLoop(ctx)
	return nil
}

// Close stops the background watcher.
func (s *Server) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}

func (s *Server) watchLoop(ctx context.Context) {
	target := filepath.Base(s.store.Path())
	var timer *time.Timer
	var pending bool
	var mu sync.Mutex

	fire := func() {
		mu.Lock()
		pending = false
		mu.Unlock()
		if err := s.reload(ctx); err != nil {
			logging.CtxErr(ctx, err).Msg("modelserver: reload failed")
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			mu.Lock()
			if !pending {
				pending = true
				timer = time.AfterFunc(debounceWindow, fire)
			} else {
				timer.Reset(debounceWindow)
			}
			mu.Unlock()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logging.CtxErr(ctx, err).Msg("modelserver: watcher error")
		}
	}
}

func (s *Server) reload(ctx context.Context) error {
	doc, err := s.store.Load()
	if err != nil {
		return err
	}
	model, err := doc.ToModel()
	if err != nil {
		return fmt.Errorf("modelserver: %w", err)
	}

	s.mu.Lock()
	s.model = model
	s.epr = doc.EPR
	s.at = doc.TrainedAt
	s.mu.Unlock()

	logging.Ctx(ctx).Info().
		Time("trained_at", doc.TrainedAt).
		Msg("modelserver: loaded model")
	return nil
}

// Publish installs model directly into the live slot without going through
// the Artifact Store, used by the Scheduler right after a training run so
// serving picks up the new model without waiting on the filesystem watcher
// to notice the file it itself just wrote.
func (s *Server) Publish(model *als.Model, epr *float64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
	s.epr = epr
	s.at = at
}

func (s *Server) current() (*als.Model, *float64, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model, s.epr, s.at, s.model != nil
}

// Metadata describes the currently live model. The /metadata handler
// flattens its hyperparameters and EPR into that route's response body.
type Metadata struct {
	Hyperparameters als.Hyperparameters `json:"hyperparameters"`
	EPR             *float64            `json:"epr,omitempty"`
	TrainedAt       time.Time           `json:"trained_at"`
	NumClients      int                 `json:"num_clients"`
	NumProducts     int                 `json:"num_products"`
}

// Metadata returns a snapshot of the live model's hyperparameters, EPR and
// size. It returns ErrNoModel if no model has ever been loaded.
func (s *Server) Metadata() (Metadata, error) {
	model, epr, at, ok := s.current()
	if !ok {
		return Metadata{}, ErrNoModel
	}
	return Metadata{
		Hyperparameters: model.Hyperparameters(),
		EPR:             epr,
		TrainedAt:       at,
		NumClients:      model.ClientIndex().Len(),
		NumProducts:     model.ProductIndex().Len(),
	}, nil
}

// Predict returns up to n recommended products for clientID, resolved
// against the catalog in parallel. It returns ErrNoModel if no model is
// loaded, or catalog.ErrNotFound if clientID is unknown to the model.
// A recommended product id that the catalog no longer carries (present in
// the training matrix but absent from the products table) is dropped from
// the result rather than failing the whole request; only a genuine backend
// error aborts it.
func (s *Server) Predict(ctx context.Context, clientID string, n int) ([]catalog.ProductRow, error) {
	model, _, _, ok := s.current()
	if !ok {
		return nil, ErrNoModel
	}
	if _, known := model.ClientIndex().Index(clientID); !known {
		return nil, catalog.ErrNotFound
	}

	productIDs := model.Recommend(clientID, n)
	products := make([]catalog.ProductRow, len(productIDs))
	found := make([]bool, len(productIDs))

	g, gctx := errgroup.WithContext(ctx)
	for i, pid := range productIDs {
		i, pid := i, pid
		g.Go(func() error {
			row, err := s.catalog.GetProductByID(gctx, pid)
			if errors.Is(err, catalog.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			products[i] = row
			found[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]catalog.ProductRow, 0, len(products))
	for i, ok := range found {
		if ok {
			out = append(out, products[i])
		}
	}
	return out, nil
}
