package repository

import (
	"context"
	"testing"
)

func newTestMemory() *Memory {
	m := NewMemory()
	m.Clients = []ClientRow{
		{ID: "c1", Name: "Alice"},
		{ID: "c2", Name: "Bob"},
		{ID: "c3", Name: "Generic Public"},
	}
	m.GenericIDs["c3"] = true
	m.Products = []ProductRow{
		{ID: "p1", Description: "Widget"},
		{ID: "p2", Description: "Gadget"},
	}
	m.Interactions = []Interaction{
		{ClientID: "c1", ProductID: "p1", Quantity: 2},
		{ClientID: "c2", ProductID: "p2", Quantity: 5},
	}
	return m
}

func TestMemoryGetClientsExcludesGenericIDs(t *testing.T) {
	m := newTestMemory()
	rows, total, err := m.GetClients(context.Background(), "", 1, 10)
	if err != nil {
		t.Fatalf("GetClients returned error: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2 (excluding generic client)", total)
	}
	for _, r := range rows {
		if r.ID == "c3" {
			t.Fatal("GetClients returned a generic-public client")
		}
	}
}

func TestMemoryGetClientsFiltersBySearch(t *testing.T) {
	m := newTestMemory()
	rows, total, err := m.GetClients(context.Background(), "alice", 1, 10)
	if err != nil {
		t.Fatalf("GetClients returned error: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ID != "c1" {
		t.Fatalf("GetClients(search=alice) = %v (total=%d), want [c1]", rows, total)
	}
}

func TestMemoryGetClientsPaginates(t *testing.T) {
	m := NewMemory()
	for i := 0; i < 25; i++ {
		m.Clients = append(m.Clients, ClientRow{ID: string(rune('a' + i)), Name: "client"})
	}
	page1, total, err := m.GetClients(context.Background(), "", 1, 10)
	if err != nil {
		t.Fatalf("GetClients returned error: %v", err)
	}
	if total != 25 {
		t.Fatalf("total = %d, want 25", total)
	}
	if len(page1) != 10 {
		t.Fatalf("page1 length = %d, want 10", len(page1))
	}
	page3, _, err := m.GetClients(context.Background(), "", 3, 10)
	if err != nil {
		t.Fatalf("GetClients page 3 returned error: %v", err)
	}
	if len(page3) != 5 {
		t.Fatalf("page3 length = %d, want 5", len(page3))
	}
}

func TestMemoryGetClientByIDNotFound(t *testing.T) {
	m := newTestMemory()
	_, ok, err := m.GetClientByID(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("GetClientByID returned error: %v", err)
	}
	if ok {
		t.Fatal("GetClientByID(unknown) = ok=true")
	}
}

func TestMemoryGetClientByIDExcludesGeneric(t *testing.T) {
	m := newTestMemory()
	_, ok, err := m.GetClientByID(context.Background(), "c3")
	if err != nil {
		t.Fatalf("GetClientByID returned error: %v", err)
	}
	if ok {
		t.Fatal("GetClientByID(c3) = ok=true for a generic-public client")
	}
}

func TestMemoryBuildClientProductMatrixReturnsCopy(t *testing.T) {
	m := newTestMemory()
	rows, err := m.BuildClientProductMatrix(context.Background())
	if err != nil {
		t.Fatalf("BuildClientProductMatrix returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	rows[0].Quantity = 999
	if m.Interactions[0].Quantity == 999 {
		t.Fatal("BuildClientProductMatrix leaked internal slice, caller mutation affected source")
	}
}
