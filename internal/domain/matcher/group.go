package matcher

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ademirvarjao/conciliador-bancario/internal/domain/record"
	"github.com/ademirvarjao/conciliador-bancario/internal/domain/similarity"
)

const groupKeyThreshold = 0.65

// groupPass clusters the remaining unmatched records on both sides by
// normalized description key and pairs clusters whose totals and date spans
// agree within the tolerances. Installment batches — five bank debits paid
// against three ledger entries — reconcile here even though no individual
// pair matches.
func (e *Engine) groupPass(txs []*record.Transaction, entries []*record.LedgerEntry, tol Tolerance, ov *overlay) []GroupMatch {
	bankClusters := clusterTransactions(txs, ov)
	ledgerClusters := clusterEntries(entries, ov)
	if len(bankClusters) == 0 || len(ledgerClusters) == 0 {
		return nil
	}

	bankKeys := sortedKeys(bankClusters)
	ledgerKeys := sortedKeys(ledgerClusters)

	var matches []GroupMatch
	usedLedger := make(map[string]bool, len(ledgerKeys))

	for _, bankKey := range bankKeys {
		bank := bankClusters[bankKey]
		if len(bank) < 2 {
			continue
		}

		bestKey := ""
		bestScore := 0.0
		for _, ledgerKey := range ledgerKeys {
			if usedLedger[ledgerKey] {
				continue
			}
			ledger := ledgerClusters[ledgerKey]
			if len(ledger) < 2 {
				continue
			}
			score := similarity.Score(bankKey, ledgerKey)
			if score < groupKeyThreshold || score <= bestScore {
				continue
			}
			if !clustersCompatible(bank, ledger, tol) {
				continue
			}
			bestKey, bestScore = ledgerKey, score
		}
		if bestKey == "" {
			continue
		}

		ledger := ledgerClusters[bestKey]
		usedLedger[bestKey] = true
		matches = append(matches, e.claimGroup(bank, ledger, bankKey, bestKey, bestScore, ov))
	}
	return matches
}

func clustersCompatible(bank []*record.Transaction, ledger []*record.LedgerEntry, tol Tolerance) bool {
	bankSum, bankMin, bankMax := transactionSpan(bank)
	ledgerSum, ledgerMin, ledgerMax := entrySpan(ledger)

	size := len(bank)
	if len(ledger) > size {
		size = len(ledger)
	}
	if math.Abs(bankSum-ledgerSum) > tol.Value*float64(size) {
		return false
	}
	// The clusters must cover roughly the same date window: both the start
	// and the end of the spans have to be within the day tolerance.
	return dayDiff(bankMin, ledgerMin) <= tol.Days && dayDiff(bankMax, ledgerMax) <= tol.Days
}

func (e *Engine) claimGroup(bank []*record.Transaction, ledger []*record.LedgerEntry, bankKey, ledgerKey string, score float64, ov *overlay) GroupMatch {
	recID := uuid.NewString()
	bankSum, _, _ := transactionSpan(bank)
	ledgerSum, _, _ := entrySpan(ledger)

	gm := GroupMatch{
		BankKey:          bankKey,
		LedgerKey:        ledgerKey,
		BankTotal:        bankSum,
		LedgerTotal:      ledgerSum,
		KeySimilarity:    score,
		ReconciliationID: recID,
	}

	// Any account present in the ledger cluster is suggested to the
	// account-less bank side.
	account := ""
	for _, entry := range ledger {
		if entry.Account != "" {
			account = entry.Account
			break
		}
	}

	for _, tx := range bank {
		ov.txs[tx.ID] = &claim{
			matchType:        record.MatchGroup,
			score:            score,
			reconciliationID: recID,
			account:          account,
		}
		gm.TransactionIDs = append(gm.TransactionIDs, tx.ID)
	}
	for _, entry := range ledger {
		ov.entries[entry.ID] = &claim{
			matchType:        record.MatchGroup,
			reconciliationID: recID,
		}
		gm.LedgerEntryIDs = append(gm.LedgerEntryIDs, entry.ID)
	}
	return gm
}

func clusterTransactions(txs []*record.Transaction, ov *overlay) map[string][]*record.Transaction {
	clusters := make(map[string][]*record.Transaction)
	for _, tx := range txs {
		if _, claimed := ov.txs[tx.ID]; claimed {
			continue
		}
		key := descriptionKey(tx.Description)
		if key == "" {
			continue
		}
		clusters[key] = append(clusters[key], tx)
	}
	return clusters
}

func clusterEntries(entries []*record.LedgerEntry, ov *overlay) map[string][]*record.LedgerEntry {
	clusters := make(map[string][]*record.LedgerEntry)
	for _, entry := range entries {
		if _, claimed := ov.entries[entry.ID]; claimed {
			continue
		}
		key := descriptionKey(entry.Description)
		if key == "" {
			continue
		}
		clusters[key] = append(clusters[key], entry)
	}
	return clusters
}

func transactionSpan(txs []*record.Transaction) (sum float64, min, max time.Time) {
	min, max = txs[0].Date, txs[0].Date
	for _, tx := range txs {
		sum += tx.Amount
		if tx.Date.Before(min) {
			min = tx.Date
		}
		if tx.Date.After(max) {
			max = tx.Date
		}
	}
	return sum, min, max
}

func entrySpan(entries []*record.LedgerEntry) (sum float64, min, max time.Time) {
	min, max = entries[0].Date, entries[0].Date
	for _, entry := range entries {
		sum += entry.Value
		if entry.Date.Before(min) {
			min = entry.Date
		}
		if entry.Date.After(max) {
			max = entry.Date
		}
	}
	return sum, min, max
}

func sortedKeys[T any](m map[string][]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
