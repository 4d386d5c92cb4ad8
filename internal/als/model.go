package als

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
)

// Hyperparameters are the three ALS knobs the Hyperparameter Search grid
// varies (spec.md's Hyperparameters entity).
type Hyperparameters struct {
	NumFactors           int     `json:"num_factors"`
	Regularization       float64 `json:"regularization"`
	ConfidenceMultiplier float64 `json:"confidence_multiplier"`
}

// String renders the hyperparameter triple for search progress logging.
func (h Hyperparameters) String() string {
	return fmt.Sprintf("k=%d lambda=%g alpha=%g", h.NumFactors, h.Regularization, h.ConfidenceMultiplier)
}

// FitConfig controls the Fit loop itself rather than the model being fit:
// convergence, determinism and parallelism.
type FitConfig struct {
	MaxIterations int
	Tolerance     float64
	Seed          int64
	NumWorkers    int
}

// DefaultFitConfig returns the Fit settings used by the Hyperparameter
// Search and the Scheduler's daily training run.
func DefaultFitConfig() FitConfig {
	return FitConfig{
		MaxIterations: 15,
		Tolerance:     1e-4,
		Seed:          42,
		NumWorkers:    runtime.NumCPU(),
	}
}

// Model is a trained (or loaded) FactorMatrix pair plus the indices and
// training matrix needed to predict, recommend and evaluate against it. A
// Model is immutable once returned by Fit or BuildFromData: the Model
// Server republishes the live slot by swapping pointers, never by mutating
// one in place.
type Model struct {
	hp             Hyperparameters
	clientIndex    *IndexMap
	productIndex   *IndexMap
	clientFactors  [][]float64
	productFactors [][]float64
	matrix         *Matrix
}

// Hyperparameters returns the triple this model was trained (or built) with.
func (m *Model) Hyperparameters() Hyperparameters { return m.hp }

// ClientIndex returns the model's client id<->index mapping.
func (m *Model) ClientIndex() *IndexMap { return m.clientIndex }

// ProductIndex returns the model's product id<->index mapping.
func (m *Model) ProductIndex() *IndexMap { return m.productIndex }

// ClientFactors returns the client factor matrix, one row per client index.
func (m *Model) ClientFactors() [][]float64 { return m.clientFactors }

// ProductFactors returns the product factor matrix, one row per product index.
func (m *Model) ProductFactors() [][]float64 { return m.productFactors }

// Fit trains a new Model from an interaction matrix via confidence-weighted
// implicit ALS (Hu, Koren & Volinsky 2008), alternating client-factor and
// product-factor solves until the Frobenius-norm change between sweeps
// drops below cfg.Tolerance or cfg.MaxIterations is reached. Only positive
// quantities in m contribute to the confidence-weighted set S; zero or
// absent cells carry zero confidence beyond the baseline.
func Fit(ctx context.Context, m *Matrix, hp Hyperparameters, cfg FitConfig) (*Model, error) {
	if hp.NumFactors <= 0 {
		return nil, fmt.Errorf("als: num_factors must be positive, got %d", hp.NumFactors)
	}
	if m.IsEmpty() {
		return nil, fmt.Errorf("als: cannot fit on an empty interaction matrix")
	}

	clientIndex := NewIndexMap()
	for _, id := range m.Clients() {
		clientIndex.Add(id)
	}
	productIndex := NewIndexMap()
	for _, id := range m.Products() {
		productIndex.Add(id)
	}

	numClients := clientIndex.Len()
	numProducts := productIndex.Len()
	k := hp.NumFactors

	clientItems, itemClients := buildConfidenceMaps(m, clientIndex, productIndex, hp.ConfidenceMultiplier)

	rng := rand.New(rand.NewSource(cfg.Seed))
	X := initFactors(numClients, k, rng)
	Y := initFactors(numProducts, k, rng)

	workers := cfg.NumWorkers
	if workers <= 0 {
		workers = 1
	}

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}

		prevX := cloneFactors(X)
		updateFactors(X, Y, clientItems, hp.Regularization, workers)
		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}
		prevY := cloneFactors(Y)
		updateFactors(Y, X, itemClients, hp.Regularization, workers)

		deltaX := frobeniusDelta(prevX, X)
		deltaY := frobeniusDelta(prevY, Y)
		if deltaX < cfg.Tolerance && deltaY < cfg.Tolerance {
			break
		}
	}

	return &Model{
		hp:             hp,
		clientIndex:    clientIndex,
		productIndex:   productIndex,
		clientFactors:  X,
		productFactors: Y,
		matrix:         m,
	}, nil
}

// BuildFromData reconstructs a Model from a previously-trained Artifact,
// bypassing Fit entirely. Factor row counts must agree with the index sizes
// and with hp.NumFactors.
func BuildFromData(hp Hyperparameters, matrix *Matrix, clientFactors, productFactors [][]float64, clientIndex, productIndex map[string]int) (*Model, error) {
	ci := FromMap(clientIndex)
	pi := FromMap(productIndex)

	if len(clientFactors) != ci.Len() {
		return nil, fmt.Errorf("als: client_factors has %d rows, client_index has %d entries", len(clientFactors), ci.Len())
	}
	if len(productFactors) != pi.Len() {
		return nil, fmt.Errorf("als: product_factors has %d rows, product_index has %d entries", len(productFactors), pi.Len())
	}
	for _, row := range clientFactors {
		if len(row) != hp.NumFactors {
			return nil, fmt.Errorf("als: client factor row has %d columns, want %d", len(row), hp.NumFactors)
		}
	}
	for _, row := range productFactors {
		if len(row) != hp.NumFactors {
			return nil, fmt.Errorf("als: product factor row has %d columns, want %d", len(row), hp.NumFactors)
		}
	}

	return &Model{
		hp:             hp,
		clientIndex:    ci,
		productIndex:   pi,
		clientFactors:  clientFactors,
		productFactors: productFactors,
		matrix:         matrix,
	}, nil
}

// scored pairs a product index with its predicted score, for sorting with
// the spec's ascending-product-id tie-break.
type scored struct {
	productIdx int
	score      float64
}

func (m *Model) rankProducts(clientRow []float64) []scored {
	ranked := make([]scored, len(m.productFactors))
	for j, row := range m.productFactors {
		ranked[j] = scored{productIdx: j, score: dot(clientRow, row)}
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].score != ranked[b].score {
			return ranked[a].score > ranked[b].score
		}
		idA, _ := m.productIndex.ID(ranked[a].productIdx)
		idB, _ := m.productIndex.ID(ranked[b].productIdx)
		return idA < idB
	})
	return ranked
}

// Recommend returns up to n product ids ranked by predicted score,
// descending, with ties broken by ascending product id. n defaults to 1
// when <= 0. An unknown client yields an empty slice.
func (m *Model) Recommend(clientID string, n int) []string {
	if n <= 0 {
		n = 1
	}
	ci, ok := m.clientIndex.Index(clientID)
	if !ok {
		return nil
	}
	ranked := m.rankProducts(m.clientFactors[ci])
	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id, _ := m.productIndex.ID(ranked[i].productIdx)
		out = append(out, id)
	}
	return out
}

// ComputeEPR computes the Expected Percentile Rank of this model against
// its own training matrix: for every observed positive interaction, the
// percentile rank (0 = top-ranked, approaching 1 = bottom-ranked) of the
// interacted product among all products for that client, averaged across
// every interaction. ok is false when the matrix has no positive
// interactions to evaluate against.
func (m *Model) ComputeEPR() (epr float64, ok bool) {
	if m.matrix == nil || m.matrix.IsEmpty() {
		return 0, false
	}

	var sum float64
	var count int
	numProducts := m.productIndex.Len()

	for _, clientID := range m.matrix.Clients() {
		ci, known := m.clientIndex.Index(clientID)
		if !known {
			continue
		}
		row := m.matrix.Row(clientID)
		if len(row) == 0 {
			continue
		}
		ranked := m.rankProducts(m.clientFactors[ci])
		rankOf := make(map[int]int, len(ranked))
		for pos, r := range ranked {
			rankOf[r.productIdx] = pos
		}
		for productID, qty := range row {
			if qty <= 0 {
				continue
			}
			pi, known := m.productIndex.Index(productID)
			if !known {
				continue
			}
			percentile := float64(rankOf[pi]) / float64(numProducts)
			sum += percentile
			count++
		}
	}

	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func initFactors(n, k int, rng *rand.Rand) [][]float64 {
	factors := make([][]float64, n)
	for i := range factors {
		row := make([]float64, k)
		for f := range row {
			row[f] = 0.1 * (rng.Float64() - 0.5)
		}
		factors[i] = row
	}
	return factors
}

func cloneFactors(f [][]float64) [][]float64 {
	clone := make([][]float64, len(f))
	for i, row := range f {
		clone[i] = append([]float64(nil), row...)
	}
	return clone
}

func frobeniusDelta(prev, next [][]float64) float64 {
	var sum float64
	for i := range prev {
		for j := range prev[i] {
			d := next[i][j] - prev[i][j]
			sum += d * d
		}
	}
	return math.Sqrt(sum)
}

// buildConfidenceMaps turns the raw interaction matrix into sparse
// confidence maps keyed by dense index, one indexed by client (used when
// solving for client factors) and one by product (used when solving for
// product factors). Confidence follows Hu/Koren/Volinsky: c = 1 + alpha*r
// for every r in the positive-entry set S; cells outside S contribute
// nothing beyond the implicit baseline handled inside updateFactors.
func buildConfidenceMaps(m *Matrix, clientIndex, productIndex *IndexMap, alpha float64) (clientItems, itemClients []map[int]float64) {
	clientItems = make([]map[int]float64, clientIndex.Len())
	itemClients = make([]map[int]float64, productIndex.Len())
	for i := range clientItems {
		clientItems[i] = make(map[int]float64)
	}
	for j := range itemClients {
		itemClients[j] = make(map[int]float64)
	}

	for _, clientID := range m.Clients() {
		ci, _ := clientIndex.Index(clientID)
		for productID, qty := range m.Row(clientID) {
			if qty <= 0 {
				continue
			}
			pi, _ := productIndex.Index(productID)
			conf := 1.0 + alpha*qty
			clientItems[ci][pi] = conf
			itemClients[pi][ci] = conf
		}
	}
	return clientItems, itemClients
}

// updateFactors re-solves every row of X against the fixed factor matrix Y,
// given each row's sparse confidence-weighted neighbors, splitting the rows
// across workers goroutines.
func updateFactors(X, Y [][]float64, neighbors []map[int]float64, lambda float64, workers int) {
	k := len(Y[0])
	YtY := gram(Y, k)

	var wg sync.WaitGroup
	rowsPerWorker := (len(X) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := start + rowsPerWorker
		if start >= len(X) {
			break
		}
		if end > len(X) {
			end = len(X)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				X[i] = solveRow(YtY, Y, neighbors[i], X[i], lambda, k)
			}
		}(start, end)
	}
	wg.Wait()
}

// gram computes Y'Y, the k x k Gram matrix shared by every row solve in
// this sweep.
func gram(Y [][]float64, k int) [][]float64 {
	g := make([][]float64, k)
	for i := range g {
		g[i] = make([]float64, k)
	}
	for _, row := range Y {
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				g[i][j] += row[i] * row[j]
			}
		}
	}
	return g
}

// solveRow builds A = Y'Y + lambda*I + sum((c-1)*y*y') and b =
// sum(c*y) over this row's confidence-weighted neighbors, then solves
// A*x = b for the updated factor row. An empty neighbor set (no positive
// interactions for this client or product) leaves prevRow unchanged rather
// than solving against an all-zero b, which would otherwise zero the row.
func solveRow(YtY, Y [][]float64, neighbors map[int]float64, prevRow []float64, lambda float64, k int) []float64 {
	if len(neighbors) == 0 {
		return prevRow
	}

	A := make([][]float64, k)
	for i := range A {
		A[i] = append([]float64(nil), YtY[i]...)
		A[i][i] += lambda
	}
	b := make([]float64, k)

	indices := make([]int, 0, len(neighbors))
	for j := range neighbors {
		indices = append(indices, j)
	}
	sort.Ints(indices)

	for _, j := range indices {
		conf := neighbors[j]
		y := Y[j]
		cMinus1 := conf - 1.0
		for i := 0; i < k; i++ {
			b[i] += conf * y[i]
			for col := 0; col < k; col++ {
				A[i][col] += cMinus1 * y[i] * y[col]
			}
		}
	}

	return solveLinearSystem(A, b)
}
