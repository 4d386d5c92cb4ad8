package als

// Matrix is the sparse client-product interaction matrix (spec.md's
// InteractionMatrix entity): client_id -> product_id -> aggregated
// quantity. Client and product ids are tracked in first-observed order so
// IndexMap construction during Fit is deterministic.
type Matrix struct {
	rows         map[string]map[string]float64
	clientOrder  []string
	productOrder []string
	seenProduct  map[string]bool
}

// NewMatrix builds an empty Matrix.
func NewMatrix() *Matrix {
	return &Matrix{
		rows:        make(map[string]map[string]float64),
		seenProduct: make(map[string]bool),
	}
}

// Add accumulates quantity into the (clientID, productID) cell, recording
// first-observed order for both ids.
func (m *Matrix) Add(clientID, productID string, quantity float64) {
	row, ok := m.rows[clientID]
	if !ok {
		row = make(map[string]float64)
		m.rows[clientID] = row
		m.clientOrder = append(m.clientOrder, clientID)
	}
	if !m.seenProduct[productID] {
		m.seenProduct[productID] = true
		m.productOrder = append(m.productOrder, productID)
	}
	row[productID] += quantity
}

// Clients returns client ids in first-observed order. Callers must not
// mutate the returned slice.
func (m *Matrix) Clients() []string { return m.clientOrder }

// Products returns product ids in first-observed order (the union across
// all clients). Callers must not mutate the returned slice.
func (m *Matrix) Products() []string { return m.productOrder }

// Get returns the quantity recorded for (clientID, productID).
func (m *Matrix) Get(clientID, productID string) (float64, bool) {
	row, ok := m.rows[clientID]
	if !ok {
		return 0, false
	}
	q, ok := row[productID]
	return q, ok
}

// Row returns the product->quantity map for a client. The returned map
// must not be mutated.
func (m *Matrix) Row(clientID string) map[string]float64 {
	return m.rows[clientID]
}

// IsEmpty reports whether the matrix has zero rows.
func (m *Matrix) IsEmpty() bool {
	return len(m.rows) == 0
}

// Data returns the full client->product->quantity map, in the shape the
// Artifact JSON document embeds under "matrix". The returned structure must
// not be mutated.
func (m *Matrix) Data() map[string]map[string]float64 {
	return m.rows
}

// Clone deep-copies the matrix so the Hyperparameter Search can train each
// grid candidate against an independent copy with no shared mutable state.
func (m *Matrix) Clone() *Matrix {
	clone := &Matrix{
		rows:         make(map[string]map[string]float64, len(m.rows)),
		clientOrder:  append([]string(nil), m.clientOrder...),
		productOrder: append([]string(nil), m.productOrder...),
		seenProduct:  make(map[string]bool, len(m.seenProduct)),
	}
	for id := range m.seenProduct {
		clone.seenProduct[id] = true
	}
	for client, row := range m.rows {
		cloned := make(map[string]float64, len(row))
		for product, qty := range row {
			cloned[product] = qty
		}
		clone.rows[client] = cloned
	}
	return clone
}

// FromData rebuilds a Matrix from a previously-serialized client->product
// map (e.g. read back from an Artifact), where iteration order of the
// source map does not matter for a loaded (not re-trained) model.
func FromData(data map[string]map[string]float64) *Matrix {
	m := NewMatrix()
	for client, row := range data {
		for product, qty := range row {
			m.Add(client, product, qty)
		}
	}
	return m
}
