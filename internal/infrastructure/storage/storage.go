// Package storage persists reconciliation sessions.
//
// The Repository interface allows swapping implementations (SQLite today,
// anything else later) and keeps tests independent of the database.
package storage

import (
	"time"

	"github.com/ademirvarjao/conciliador-bancario/internal/domain/matcher"
	"github.com/ademirvarjao/conciliador-bancario/internal/domain/record"
	"github.com/ademirvarjao/conciliador-bancario/internal/domain/rules"
)

// Snapshot is the persisted form of one reconciliation session.
type Snapshot struct {
	SessionID    string
	Company      string
	Bank         string
	Currency     string
	SavedAt      time.Time
	Transactions []*record.Transaction
	Ledger       []*record.LedgerEntry
	Accounts     []string
	Rules        []rules.Rule
	Report       *matcher.Report
}

// Repository defines the session persistence contract.
type Repository interface {
	// SaveSnapshot replaces the stored state of the snapshot's session.
	SaveSnapshot(snap *Snapshot) error

	// LoadSnapshot retrieves a session's state, or nil if never saved.
	LoadSnapshot(sessionID string) (*Snapshot, error)

	// ListSessions returns the ids of all stored sessions.
	ListSessions() ([]string, error)

	// DeleteSession removes a session's stored state.
	DeleteSession(sessionID string) error

	Close() error
}
