package main

import (
	"github.com/warp/payments-engine/bank"
	"github.com/warp/payments-engine/bank/store"
	"github.com/warp/payments-engine/store/sqlite"
)

// openJournal returns the in-memory journal for an empty path, SQLite
// otherwise. The returned sqlite store is nil for the in-memory case.
// Only serve uses it: GET /api/journal reads the in-memory trail.
func openJournal(path string) (bank.Journal, *sqlite.Store, error) {
	if path == "" {
		return store.NewMemory(), nil, nil
	}
	db, err := sqlite.New(path)
	if err != nil {
		return nil, nil, err
	}
	return db, db, nil
}
