// Package matcher reconciles bank transactions against ledger entries.
//
// The engine runs four ordered passes over the currently unmatched subsets:
//
//  1. Exact — same calendar day, amount within tolerance (score 1.0)
//  2. Tolerance — date within N days, amount within tolerance
//  3. Fuzzy — amount within tolerance, best description similarity >= 0.6
//  4. Group — N:N clusters of similar descriptions matched by total and span
//
// Each transaction and ledger entry is claimed at most once per run; passes
// are greedy and first-found-wins. That does not yield a globally optimal
// matching, but it is deterministic and every match is explainable by the
// pass that produced it, which is what reconciliation reviews need.
//
// A run never mutates records while passes execute. Claims accumulate in an
// overlay and are committed in one step at the end, after first resetting
// all prior match state, so re-running the engine is idempotent and an
// abandoned run leaves no partial claims behind.
package matcher

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ademirvarjao/conciliador-bancario/internal/domain/record"
	"github.com/ademirvarjao/conciliador-bancario/internal/domain/similarity"
)

const fuzzyThreshold = 0.6

// Engine executes reconciliation runs.
type Engine struct{}

// New creates a matching engine.
func New() *Engine {
	return &Engine{}
}

// claim is one proposed match, held in the overlay until commit.
type claim struct {
	counterpartID    string
	matchType        record.MatchType
	score            float64
	reconciliationID string
	account          string // ledger account copied onto account-less transactions
}

type overlay struct {
	txs     map[string]*claim
	entries map[string]*claim
}

// Run reconciles transactions against ledger entries under the given
// tolerances and returns the report. Prior match state is discarded before
// matching and the new state is committed atomically at the end.
func (e *Engine) Run(txs []*record.Transaction, entries []*record.LedgerEntry, tol Tolerance) *Report {
	ov := &overlay{
		txs:     make(map[string]*claim),
		entries: make(map[string]*claim),
	}
	report := &Report{
		GeneratedAt:    time.Now().UTC(),
		ToleranceDays:  tol.Days,
		ToleranceValue: tol.Value,
		BankCount:      len(txs),
		LedgerCount:    len(entries),
	}

	report.Exact = e.pairPass(txs, entries, tol, ov, record.MatchExact)
	report.Tolerance = e.pairPass(txs, entries, tol, ov, record.MatchTolerance)
	report.Fuzzy = e.fuzzyPass(txs, entries, tol, ov)
	report.Groups = e.groupPass(txs, entries, tol, ov)

	commit(txs, entries, ov)

	report.MatchedBank = len(ov.txs)
	report.PendingBank = len(txs) - len(ov.txs)
	report.MatchedLedger = len(ov.entries)
	report.UnmatchedLedger = len(entries) - len(ov.entries)
	return report
}

// pairPass implements the exact and tolerance passes, which differ only in
// the date predicate and score.
func (e *Engine) pairPass(txs []*record.Transaction, entries []*record.LedgerEntry, tol Tolerance, ov *overlay, mt record.MatchType) []Match {
	var matches []Match
	for _, tx := range txs {
		if _, claimed := ov.txs[tx.ID]; claimed {
			continue
		}
		for _, entry := range entries {
			if _, claimed := ov.entries[entry.ID]; claimed {
				continue
			}
			valueDiff := math.Abs(tx.Amount - entry.Value)
			if valueDiff > tol.Value {
				continue
			}
			days := dayDiff(tx.Date, entry.Date)
			var score float64
			switch mt {
			case record.MatchExact:
				if !sameDay(tx.Date, entry.Date) {
					continue
				}
				score = 1.0
			default:
				if days > tol.Days {
					continue
				}
				score = toleranceScore(days, tol.Days)
			}
			matches = append(matches, e.claimPair(tx, entry, ov, mt, score, days, valueDiff))
			break
		}
	}
	return matches
}

// fuzzyPass pairs each still-pending transaction with the amount-compatible
// ledger entry whose description is most similar, when similar enough.
func (e *Engine) fuzzyPass(txs []*record.Transaction, entries []*record.LedgerEntry, tol Tolerance, ov *overlay) []Match {
	var matches []Match
	for _, tx := range txs {
		if _, claimed := ov.txs[tx.ID]; claimed {
			continue
		}
		var best *record.LedgerEntry
		bestScore := 0.0
		for _, entry := range entries {
			if _, claimed := ov.entries[entry.ID]; claimed {
				continue
			}
			if math.Abs(tx.Amount-entry.Value) > tol.Value {
				continue
			}
			if s := similarity.Score(tx.Description, entry.Description); s > bestScore {
				best, bestScore = entry, s
			}
		}
		if best == nil || bestScore < fuzzyThreshold {
			continue
		}
		days := dayDiff(tx.Date, best.Date)
		valueDiff := math.Abs(tx.Amount - best.Value)
		matches = append(matches, e.claimPair(tx, best, ov, record.MatchFuzzy, bestScore, days, valueDiff))
	}
	return matches
}

func (e *Engine) claimPair(tx *record.Transaction, entry *record.LedgerEntry, ov *overlay, mt record.MatchType, score float64, days int, valueDiff float64) Match {
	recID := uuid.NewString()
	ov.txs[tx.ID] = &claim{
		counterpartID:    entry.ID,
		matchType:        mt,
		score:            score,
		reconciliationID: recID,
		account:          entry.Account,
	}
	ov.entries[entry.ID] = &claim{
		counterpartID:    tx.ID,
		matchType:        mt,
		reconciliationID: recID,
	}
	return Match{
		TransactionID:    tx.ID,
		LedgerEntryID:    entry.ID,
		Type:             mt,
		Score:            score,
		DayDiff:          days,
		ValueDiff:        valueDiff,
		ReconciliationID: recID,
	}
}

// commit resets every record and applies the overlay in one step.
func commit(txs []*record.Transaction, entries []*record.LedgerEntry, ov *overlay) {
	entryAccounts := make(map[string]string, len(entries))
	for _, entry := range entries {
		entry.ClearMatch()
		entryAccounts[entry.ID] = entry.Account
	}
	for _, tx := range txs {
		tx.ClearMatch()
		c, ok := ov.txs[tx.ID]
		if !ok {
			continue
		}
		tx.Status = record.StatusMatched
		tx.MatchType = c.matchType
		tx.MatchScore = c.score
		tx.MatchedWith = c.counterpartID
		tx.ReconciliationID = c.reconciliationID
		if tx.Account == "" && c.account != "" {
			tx.Account = c.account
		}
	}
	for _, entry := range entries {
		c, ok := ov.entries[entry.ID]
		if !ok {
			continue
		}
		entry.Matched = true
		entry.MatchType = c.matchType
		entry.ReconciliationID = c.reconciliationID
	}
}

func toleranceScore(days, tolDays int) float64 {
	if tolDays <= 0 {
		return 1.0
	}
	s := 1 - float64(days)/float64(tolDays)
	return math.Max(0.7, s)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// dayDiff counts whole days between two dates. Dates are normalized to
// midday UTC by the parser, so the division is exact.
func dayDiff(a, b time.Time) int {
	return int(math.Round(math.Abs(a.Sub(b).Hours()) / 24))
}
