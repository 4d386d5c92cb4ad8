package repository

import "testing"

func TestNewRejectsUnsupportedDBType(t *testing.T) {
	_, err := New("mssql", SQLiteConfig{})
	if err == nil {
		t.Fatal("expected error for unsupported DB_TYPE, got nil")
	}
}
