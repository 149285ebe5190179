package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ademirvarjao/conciliador-bancario/internal/domain/record"
)

func TestDescriptionKey(t *testing.T) {
	assert.Equal(t, "fornecedor abc", descriptionKey("Pagamento Fornecedor ABC 1/5"))
	assert.Equal(t, "joao silva", descriptionKey("TED de João Silva"))
	assert.Equal(t, "", descriptionKey("PIX TED DOC"))
	assert.Equal(t, "", descriptionKey(""))
}

func TestEngine_GroupMatch(t *testing.T) {
	// Five installment debits against three ledger entries: no single pair
	// matches, but the cluster totals agree.
	e := New()
	txs := []*record.Transaction{
		makeTx("tx1", -200.00, day(1), "Parcela Fornecedor ABC 1/5"),
		makeTx("tx2", -200.00, day(1), "Parcela Fornecedor ABC 2/5"),
		makeTx("tx3", -200.00, day(2), "Parcela Fornecedor ABC 3/5"),
		makeTx("tx4", -200.00, day(2), "Parcela Fornecedor ABC 4/5"),
		makeTx("tx5", -200.00, day(3), "Parcela Fornecedor ABC 5/5"),
	}
	entries := []*record.LedgerEntry{
		makeEntry("le1", -400.00, day(1), "Fornecedor ABC compra", "2.1.01 - Fornecedores"),
		makeEntry("le2", -300.00, day(2), "Fornecedor ABC compra", "2.1.01 - Fornecedores"),
		makeEntry("le3", -300.00, day(3), "Fornecedor ABC compra", "2.1.01 - Fornecedores"),
	}

	report := e.Run(txs, entries, Tolerance{Days: 3, Value: 1.00})

	require.Len(t, report.Groups, 1)
	g := report.Groups[0]
	assert.Len(t, g.TransactionIDs, 5)
	assert.Len(t, g.LedgerEntryIDs, 3)
	assert.InDelta(t, -1000.00, g.BankTotal, 0.001)
	assert.InDelta(t, -1000.00, g.LedgerTotal, 0.001)
	assert.GreaterOrEqual(t, g.KeySimilarity, 0.65)
	assert.NotEmpty(t, g.ReconciliationID)

	for _, tx := range txs {
		assert.Equal(t, record.StatusMatched, tx.Status)
		assert.Equal(t, record.MatchGroup, tx.MatchType)
		assert.Equal(t, g.ReconciliationID, tx.ReconciliationID)
		assert.Equal(t, "2.1.01 - Fornecedores", tx.Account)
	}
	for _, entry := range entries {
		assert.True(t, entry.Matched)
		assert.Equal(t, g.ReconciliationID, entry.ReconciliationID)
	}
}

func TestEngine_GroupRejectsSumMismatch(t *testing.T) {
	e := New()
	txs := []*record.Transaction{
		makeTx("tx1", -200.00, day(1), "Parcela Fornecedor ABC 1/2"),
		makeTx("tx2", -200.00, day(2), "Parcela Fornecedor ABC 2/2"),
	}
	entries := []*record.LedgerEntry{
		makeEntry("le1", -300.00, day(1), "Fornecedor ABC compra", ""),
		makeEntry("le2", -300.00, day(2), "Fornecedor ABC compra", ""),
	}

	report := e.Run(txs, entries, Tolerance{Days: 3, Value: 1.00})

	assert.Empty(t, report.Groups)
	assert.Equal(t, 2, report.PendingBank)
}

func TestEngine_GroupRejectsSpanMismatch(t *testing.T) {
	// Totals agree but the ledger cluster sits three weeks later.
	e := New()
	txs := []*record.Transaction{
		makeTx("tx1", -200.00, day(1), "Parcela Fornecedor ABC 1/2"),
		makeTx("tx2", -200.00, day(2), "Parcela Fornecedor ABC 2/2"),
	}
	entries := []*record.LedgerEntry{
		makeEntry("le1", -200.00, day(22), "Fornecedor ABC compra", ""),
		makeEntry("le2", -200.00, day(23), "Fornecedor ABC compra", ""),
	}

	report := e.Run(txs, entries, Tolerance{Days: 3, Value: 1.00})

	assert.Empty(t, report.Groups)
}

func TestEngine_GroupRequiresTwoMembersEachSide(t *testing.T) {
	e := New()
	txs := []*record.Transaction{
		makeTx("tx1", -200.00, day(1), "Parcela Fornecedor ABC 1/1"),
	}
	entries := []*record.LedgerEntry{
		makeEntry("le1", -100.00, day(1), "Fornecedor ABC compra", ""),
		makeEntry("le2", -100.00, day(1), "Fornecedor ABC compra", ""),
	}

	report := e.Run(txs, entries, Tolerance{Days: 3, Value: 1.00})

	assert.Empty(t, report.Groups)
}

func TestEngine_GroupSkipsAlreadyMatchedRecords(t *testing.T) {
	// One pair resolves exactly; the leftovers are too few to form a group.
	e := New()
	txs := []*record.Transaction{
		makeTx("tx1", -200.00, day(1), "Parcela Fornecedor ABC 1/2"),
		makeTx("tx2", -150.00, day(2), "Parcela Fornecedor ABC 2/2"),
	}
	entries := []*record.LedgerEntry{
		makeEntry("le1", -200.00, day(1), "Parcela Fornecedor ABC 1/2", ""),
	}

	report := e.Run(txs, entries, Tolerance{Days: 3, Value: 0.01})

	require.Len(t, report.Exact, 1)
	assert.Empty(t, report.Groups)
	assert.Equal(t, record.StatusPending, txs[1].Status)
}
