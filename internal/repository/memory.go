package repository

import (
	"context"
	"sort"
	"strings"
)

// Memory is an in-memory Repository used by tests in place of a database.
// It is a hand-written fake, not a generated mock, matching the teacher's
// preference for fakes over mock frameworks.
type Memory struct {
	Interactions []Interaction
	Clients      []ClientRow
	Products     []ProductRow
	GenericIDs   map[string]bool
}

// NewMemory builds an empty Memory repository.
func NewMemory() *Memory {
	return &Memory{GenericIDs: map[string]bool{}}
}

// BuildClientProductMatrix implements Repository.
func (m *Memory) BuildClientProductMatrix(_ context.Context) ([]Interaction, error) {
	out := make([]Interaction, len(m.Interactions))
	copy(out, m.Interactions)
	return out, nil
}

// GetClients implements Repository.
func (m *Memory) GetClients(_ context.Context, search string, page, pageSize int) ([]ClientRow, int, error) {
	var matched []ClientRow
	for _, c := range m.Clients {
		if m.GenericIDs[c.ID] {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(search)) &&
			!strings.Contains(strings.ToLower(c.ID), strings.ToLower(search)) {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return paginate(matched, page, pageSize), len(matched), nil
}

// GetProducts implements Repository.
func (m *Memory) GetProducts(_ context.Context, search string, page, pageSize int) ([]ProductRow, int, error) {
	var matched []ProductRow
	for _, p := range m.Products {
		if search != "" && !strings.Contains(strings.ToLower(p.Description), strings.ToLower(search)) &&
			!strings.Contains(strings.ToLower(p.ID), strings.ToLower(search)) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return paginate(matched, page, pageSize), len(matched), nil
}

// GetClientByID implements Repository.
func (m *Memory) GetClientByID(_ context.Context, id string) (ClientRow, bool, error) {
	for _, c := range m.Clients {
		if c.ID == id && !m.GenericIDs[c.ID] {
			return c, true, nil
		}
	}
	return ClientRow{}, false, nil
}

// GetProductByID implements Repository.
func (m *Memory) GetProductByID(_ context.Context, id string) (ProductRow, bool, error) {
	for _, p := range m.Products {
		if p.ID == id {
			return p, true, nil
		}
	}
	return ProductRow{}, false, nil
}

// Close implements Repository.
func (m *Memory) Close() error { return nil }

func paginate[T any](rows []T, page, pageSize int) []T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(rows) {
		return []T{}
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
