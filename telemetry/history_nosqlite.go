//go:build !sqlite

package telemetry

import "fmt"

func newSQLiteHistory(_ string) (HistoryStore, error) {
	return nil, fmt.Errorf("sqlite history unavailable in this build; rebuild with -tags sqlite")
}
