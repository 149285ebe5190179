package ingest

import (
	"sort"

	"github.com/google/uuid"

	"github.com/ademirvarjao/conciliador-bancario/internal/domain/record"
	"github.com/ademirvarjao/conciliador-bancario/internal/domain/rules"
)

// DefaultMaxRecords caps a session's transaction collection.
const DefaultMaxRecords = 10000

// Normalizer converts decoded rows into canonical transactions: fresh id,
// pending status and an account suggestion from the rule engine.
type Normalizer struct {
	Rules      *rules.Engine
	MaxRecords int
}

// NewNormalizer creates a normalizer backed by the given rule engine.
func NewNormalizer(engine *rules.Engine) *Normalizer {
	return &Normalizer{
		Rules:      engine,
		MaxRecords: DefaultMaxRecords,
	}
}

// Append normalizes the inbound batch and appends it to the collection,
// enforcing the record ceiling. Records beyond the ceiling are truncated
// from the newest batch and reported via ignored rather than silently
// dropped. The returned collection is sorted by date descending.
func (n *Normalizer) Append(dst []*record.Transaction, batch []Raw) (out []*record.Transaction, ignored int) {
	limit := n.MaxRecords
	if limit <= 0 {
		limit = DefaultMaxRecords
	}

	out = dst
	for _, raw := range batch {
		if len(out) >= limit {
			ignored++
			continue
		}
		out = append(out, n.normalize(raw))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, ignored
}

func (n *Normalizer) normalize(raw Raw) *record.Transaction {
	tx := &record.Transaction{
		ID:              uuid.NewString(),
		Date:            raw.Date,
		Description:     raw.Description,
		Amount:          raw.Amount,
		Balance:         raw.Balance,
		Status:          record.StatusPending,
		MatchType:       record.MatchNone,
		DateAssumedYear: raw.DateAssumedYear,
	}
	if n.Rules != nil {
		tx.Account = n.Rules.Suggest(raw.Description)
	}
	return tx
}

// NormalizeLedger assigns identity to decoded ledger entries.
func NormalizeLedger(entries []record.LedgerEntry) []*record.LedgerEntry {
	out := make([]*record.LedgerEntry, 0, len(entries))
	for i := range entries {
		entry := entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		out = append(out, &entry)
	}
	return out
}
