package als

// IndexMap is a bijective mapping between string ids and dense integer
// indices in [0, N), stable for the lifetime of a model (spec.md's
// IndexMap data-model entity). Ids are assigned in first-observed order.
type IndexMap struct {
	idToIndex map[string]int
	indexToID []string
}

// NewIndexMap builds an empty IndexMap.
func NewIndexMap() *IndexMap {
	return &IndexMap{idToIndex: make(map[string]int)}
}

// Add assigns id a fresh index if it is new, and returns its index either way.
func (m *IndexMap) Add(id string) int {
	if idx, ok := m.idToIndex[id]; ok {
		return idx
	}
	idx := len(m.indexToID)
	m.idToIndex[id] = idx
	m.indexToID = append(m.indexToID, id)
	return idx
}

// Index returns the index for id, or ok=false if id was never added.
func (m *IndexMap) Index(id string) (int, bool) {
	idx, ok := m.idToIndex[id]
	return idx, ok
}

// ID returns the id at idx, or ok=false if idx is out of range.
func (m *IndexMap) ID(idx int) (string, bool) {
	if idx < 0 || idx >= len(m.indexToID) {
		return "", false
	}
	return m.indexToID[idx], true
}

// Len returns the number of ids in the map.
func (m *IndexMap) Len() int {
	return len(m.indexToID)
}

// IDs returns all ids in index order. The returned slice must not be mutated.
func (m *IndexMap) IDs() []string {
	return m.indexToID
}

// AsMap returns a copy of the id->index mapping, suitable for JSON encoding
// into the Artifact's client_index/product_index fields.
func (m *IndexMap) AsMap() map[string]int {
	out := make(map[string]int, len(m.idToIndex))
	for id, idx := range m.idToIndex {
		out[id] = idx
	}
	return out
}

// FromMap rebuilds an IndexMap from a previously-serialized id->index
// mapping (e.g. loaded from an Artifact), used by BuildFromData.
func FromMap(m map[string]int) *IndexMap {
	idx := &IndexMap{
		idToIndex: make(map[string]int, len(m)),
		indexToID: make([]string, len(m)),
	}
	for id, i := range m {
		idx.idToIndex[id] = i
		if i >= 0 && i < len(idx.indexToID) {
			idx.indexToID[i] = id
		}
	}
	return idx
}
