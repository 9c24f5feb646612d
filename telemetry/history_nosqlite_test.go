//go:build !sqlite

package telemetry

import "testing"

func TestNewHistoryStoreSQLiteUnavailable(t *testing.T) {
	if _, err := NewHistoryStore("sqlite", "history.db"); err == nil {
		t.Fatal("expected error without the sqlite build tag")
	}
}
