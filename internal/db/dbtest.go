package db

import "testing"

// NewTestStore returns a Store on a fresh in-memory sqlite database that is
// closed when the test ends.
func NewTestStore(t testing.TB) Store {
	t.Helper()
	dbx, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = dbx.Close() })
	return NewSQLiteStore(dbx)
}
