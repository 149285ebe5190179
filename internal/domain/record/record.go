// Package record defines the canonical reconciliation records shared by the
// ingest pipeline, the matching engine and the storage layer.
//
// Transactions come from bank exports, LedgerEntries from the accounting side.
// Both keep the same sign convention: positive amounts are credits, negative
// amounts are debits. Records are created once during import and only their
// match/status fields change afterwards.
package record

import "time"

// Status is the reconciliation state of a bank transaction.
type Status string

const (
	StatusPending Status = "pending"
	StatusMatched Status = "matched"
)

// MatchType identifies which matching pass claimed a record.
type MatchType string

const (
	MatchNone      MatchType = "none"
	MatchExact     MatchType = "exact"
	MatchTolerance MatchType = "tolerance"
	MatchFuzzy     MatchType = "fuzzy"
	MatchGroup     MatchType = "group"
)

// Transaction is a bank-statement line item.
type Transaction struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Balance     *float64  `json:"balance,omitempty"`

	Status           Status    `json:"status"`
	Account          string    `json:"account,omitempty"`
	MatchType        MatchType `json:"match_type"`
	MatchScore       float64   `json:"match_score,omitempty"`
	MatchedWith      string    `json:"matched_with,omitempty"`
	ReconciliationID string    `json:"reconciliation_id,omitempty"`

	// DateAssumedYear is set when the source date carried no year and the
	// import had to pick one (DD/MM inputs). Callers that need exact
	// cross-year semantics should re-import with an explicit reference year.
	DateAssumedYear bool `json:"date_assumed_year,omitempty"`
}

// LedgerEntry is an accounting-book line item.
type LedgerEntry struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Value       float64   `json:"value"`
	Account     string    `json:"account,omitempty"`

	Matched          bool      `json:"matched"`
	MatchType        MatchType `json:"match_type"`
	ReconciliationID string    `json:"reconciliation_id,omitempty"`
}

// ClearMatch resets a transaction to its pre-reconciliation state.
func (t *Transaction) ClearMatch() {
	t.Status = StatusPending
	t.MatchType = MatchNone
	t.MatchScore = 0
	t.MatchedWith = ""
	t.ReconciliationID = ""
}

// ClearMatch resets a ledger entry to its pre-reconciliation state.
func (e *LedgerEntry) ClearMatch() {
	e.Matched = false
	e.MatchType = MatchNone
	e.ReconciliationID = ""
}
