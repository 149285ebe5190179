package matcher

import (
	"time"

	"github.com/ademirvarjao/conciliador-bancario/internal/domain/record"
)

// Tolerance holds the two reconciliation windows.
type Tolerance struct {
	Days  int     // Date window in days (default: 3)
	Value float64 // Amount window in currency units (default: 0.01)
}

// DefaultTolerance holds the standard reconciliation windows.
var DefaultTolerance = Tolerance{
	Days:  3,
	Value: 0.01,
}

// Match is one transaction/ledger-entry pairing with its evidence.
type Match struct {
	TransactionID    string           `json:"transaction_id"`
	LedgerEntryID    string           `json:"ledger_entry_id"`
	Type             record.MatchType `json:"type"`
	Score            float64          `json:"score"`
	DayDiff          int              `json:"day_diff"`
	ValueDiff        float64          `json:"value_diff"`
	ReconciliationID string           `json:"reconciliation_id"`
}

// GroupMatch is an N:N pairing of two description clusters.
type GroupMatch struct {
	TransactionIDs   []string `json:"transaction_ids"`
	LedgerEntryIDs   []string `json:"ledger_entry_ids"`
	BankKey          string   `json:"bank_key"`
	LedgerKey        string   `json:"ledger_key"`
	BankTotal        float64  `json:"bank_total"`
	LedgerTotal      float64  `json:"ledger_total"`
	KeySimilarity    float64  `json:"key_similarity"`
	ReconciliationID string   `json:"reconciliation_id"`
}

// Report is the immutable snapshot produced by one reconciliation run.
// A new run wholly replaces the previous report.
type Report struct {
	GeneratedAt    time.Time `json:"generated_at"`
	ToleranceDays  int       `json:"tolerance_days"`
	ToleranceValue float64   `json:"tolerance_value"`

	BankCount       int `json:"bank_count"`
	LedgerCount     int `json:"ledger_count"`
	MatchedBank     int `json:"matched_bank"`
	PendingBank     int `json:"pending_bank"`
	MatchedLedger   int `json:"matched_ledger"`
	UnmatchedLedger int `json:"unmatched_ledger"`

	Exact     []Match      `json:"exact"`
	Tolerance []Match      `json:"tolerance"`
	Fuzzy     []Match      `json:"fuzzy"`
	Groups    []GroupMatch `json:"groups"`
}
