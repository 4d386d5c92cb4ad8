// Package artifact implements the Artifact Store: the durable JSON document
// that bridges offline training and online serving (spec.md §4.4, §6). A
// training run selects a winning hyperparameter combination and persists it
// here; the Model Server loads it at startup and on every filesystem change.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/Betucciny/predictive-module/internal/als"
)

// ErrMalformed is returned when a document fails structural validation:
// mismatched factor/index shapes, a non-positive num_factors, or a missing
// required section.
var ErrMalformed = fmt.Errorf("artifact: malformed document")

// Document is the exact on-disk JSON shape, matching spec.md §6 field for
// field.
type Document struct {
	Hyperparameters als.Hyperparameters           `json:"hyperparameters"`
	EPR             *float64                      `json:"epr,omitempty"`
	TrainedAt       time.Time                     `json:"trained_at"`
	Matrix          map[string]map[string]float64 `json:"matrix"`
	ClientFactors   [][]float64                   `json:"client_factors"`
	ProductFactors  [][]float64                   `json:"product_factors"`
	ClientIndex     map[string]int                `json:"client_index"`
	ProductIndex    map[string]int                `json:"product_index"`
}

// FromModel builds the Document a successful training run would persist.
func FromModel(m *als.Model, trainedAt time.Time, epr *float64, matrix *als.Matrix) Document {
	var data map[string]map[string]float64
	if matrix != nil {
		data = matrix.Data()
	}
	return Document{
		Hyperparameters: m.Hyperparameters(),
		EPR:             epr,
		TrainedAt:       trainedAt,
		Matrix:          data,
		ClientFactors:   m.ClientFactors(),
		ProductFactors:  m.ProductFactors(),
		ClientIndex:     m.ClientIndex().AsMap(),
		ProductIndex:    m.ProductIndex().AsMap(),
	}
}

// ToModel reconstructs an als.Model from a loaded Document, bypassing
// training entirely.
func (d Document) ToModel() (*als.Model, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	matrix := als.FromData(d.Matrix)
	return als.BuildFromData(d.Hyperparameters, matrix, d.ClientFactors, d.ProductFactors, d.ClientIndex, d.ProductIndex)
}

// Validate rejects malformed or partial documents before they are trusted
// to build a Model: shapes must agree with each other and with
// hyperparameters.num_factors.
func (d Document) Validate() error {
	if d.Hyperparameters.NumFactors <= 0 {
		return fmt.Errorf("%w: num_factors must be positive", ErrMalformed)
	}
	if len(d.ClientIndex) == 0 || len(d.ProductIndex) == 0 {
		return fmt.Errorf("%w: client_index and product_index must be non-empty", ErrMalformed)
	}
	if len(d.ClientFactors) != len(d.ClientIndex) {
		return fmt.Errorf("%w: client_factors has %d rows, client_index has %d entries", ErrMalformed, len(d.ClientFactors), len(d.ClientIndex))
	}
	if len(d.ProductFactors) != len(d.ProductIndex) {
		return fmt.Errorf("%w: product_factors has %d rows, product_index has %d entries", ErrMalformed, len(d.ProductFactors), len(d.ProductIndex))
	}
	for _, row := range d.ClientFactors {
		if len(row) != d.Hyperparameters.NumFactors {
			return fmt.Errorf("%w: client factor row width %d does not match num_factors %d", ErrMalformed, len(row), d.Hyperparameters.NumFactors)
		}
	}
	for _, row := range d.ProductFactors {
		if len(row) != d.Hyperparameters.NumFactors {
			return fmt.Errorf("%w: product factor row width %d does not match num_factors %d", ErrMalformed, len(row), d.Hyperparameters.NumFactors)
		}
	}
	if len(d.Matrix) == 0 {
		return fmt.Errorf("%w: matrix must be non-empty", ErrMalformed)
	}
	return nil
}

// Store reads and atomically writes the artifact file at path.
type Store struct {
	path string
}

// New builds a Store rooted at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the artifact file path this Store was constructed with, for
// the Model Server's filesystem watcher to match change events against.
func (s *Store) Path() string { return s.path }

// Load reads and validates the artifact document. It returns
// os.ErrNotExist unchanged so callers can distinguish "no artifact yet"
// from a read or parse failure.
func (s *Store) Load() (Document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Save writes doc to the artifact path atomically: it serializes to a
// temporary file in the same directory, then renames it over the final
// path, so a reader (or the filesystem watcher) never observes a partially
// written document.
func (s *Store) Save(doc Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact: create artifact directory: %w", err)
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact: encode document: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*.tmp")
	if err != nil {
		return fmt.Errorf("artifact: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("artifact: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("artifact: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("artifact: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("artifact: rename temp file into place: %w", err)
	}
	return nil
}
