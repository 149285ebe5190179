package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ademirvarjao/conciliador-bancario/internal/domain/record"
)

func day(d int) time.Time {
	return time.Date(2026, 2, d, 12, 0, 0, 0, time.UTC)
}

func makeTx(id string, amount float64, date time.Time, desc string) *record.Transaction {
	return &record.Transaction{
		ID:          id,
		Date:        date,
		Description: desc,
		Amount:      amount,
		Status:      record.StatusPending,
	}
}

func makeEntry(id string, value float64, date time.Time, desc, account string) *record.LedgerEntry {
	return &record.LedgerEntry{
		ID:          id,
		Date:        date,
		Description: desc,
		Value:       value,
		Account:     account,
	}
}

func TestEngine_ExactMatch(t *testing.T) {
	// Arrange
	e := New()
	txs := []*record.Transaction{makeTx("tx1", -320.75, day(3), "Pagamento Energia")}
	entries := []*record.LedgerEntry{makeEntry("le1", -320.75, day(3), "Energia Eletrica", "4.1.02")}

	// Act
	report := e.Run(txs, entries, DefaultTolerance)

	// Assert
	require.Len(t, report.Exact, 1)
	assert.Equal(t, 1.0, report.Exact[0].Score)
	assert.Equal(t, record.StatusMatched, txs[0].Status)
	assert.Equal(t, record.MatchExact, txs[0].MatchType)
	assert.Equal(t, "le1", txs[0].MatchedWith)
	assert.True(t, entries[0].Matched)
	assert.Equal(t, txs[0].ReconciliationID, entries[0].ReconciliationID)
	assert.NotEmpty(t, txs[0].ReconciliationID)
}

func TestEngine_ExactWinsOverTolerance(t *testing.T) {
	// Two candidate entries with the same value; the same-day one must be
	// claimed by the exact pass before the tolerance pass runs.
	e := New()
	txs := []*record.Transaction{makeTx("tx1", 100.00, day(5), "Recebimento")}
	entries := []*record.LedgerEntry{
		makeEntry("le-near", 100.00, day(6), "Recebimento", ""),
		makeEntry("le-same", 100.00, day(5), "Recebimento", ""),
	}

	report := e.Run(txs, entries, DefaultTolerance)

	require.Len(t, report.Exact, 1)
	assert.Empty(t, report.Tolerance)
	assert.Equal(t, "le-same", report.Exact[0].LedgerEntryID)
}

func TestEngine_ToleranceMatch(t *testing.T) {
	e := New()
	txs := []*record.Transaction{makeTx("tx1", -500.00, day(3), "Aluguel")}
	entries := []*record.LedgerEntry{makeEntry("le1", -500.00, day(5), "Aluguel escritorio", "")}

	report := e.Run(txs, entries, Tolerance{Days: 3, Value: 0.01})

	require.Len(t, report.Tolerance, 1)
	m := report.Tolerance[0]
	assert.Equal(t, record.MatchTolerance, m.Type)
	assert.Equal(t, 2, m.DayDiff)
	// 1 - 2/3 would be 0.33; the score floor keeps it at 0.7.
	assert.InDelta(t, 0.7, m.Score, 0.001)
}

func TestEngine_ToleranceScoreScalesWithDistance(t *testing.T) {
	e := New()
	txs := []*record.Transaction{makeTx("tx1", 50.00, day(1), "Taxa")}
	entries := []*record.LedgerEntry{makeEntry("le1", 50.00, day(2), "Taxa bancaria", "")}

	report := e.Run(txs, entries, Tolerance{Days: 10, Value: 0.01})

	require.Len(t, report.Tolerance, 1)
	assert.InDelta(t, 0.9, report.Tolerance[0].Score, 0.001)
}

func TestEngine_DateOutsideToleranceStaysPending(t *testing.T) {
	e := New()
	txs := []*record.Transaction{makeTx("tx1", -500.00, day(1), "Aluguel")}
	entries := []*record.LedgerEntry{makeEntry("le1", -500.00, day(10), "Conta diferente", "")}

	report := e.Run(txs, entries, Tolerance{Days: 3, Value: 0.01})

	assert.Empty(t, report.Exact)
	assert.Empty(t, report.Tolerance)
	assert.Empty(t, report.Fuzzy)
	assert.Equal(t, record.StatusPending, txs[0].Status)
	assert.Equal(t, 1, report.PendingBank)
	assert.Equal(t, 1, report.UnmatchedLedger)
}

func TestEngine_FuzzyMatch(t *testing.T) {
	// Same value, far apart in time, but the descriptions are near-identical.
	e := New()
	txs := []*record.Transaction{makeTx("tx1", -250.00, day(1), "Pagamento Energia Eletrica")}
	entries := []*record.LedgerEntry{
		makeEntry("le1", -250.00, day(20), "Pagamento Energia Eletric", "4.1.02"),
	}

	report := e.Run(txs, entries, Tolerance{Days: 3, Value: 0.01})

	require.Len(t, report.Fuzzy, 1)
	assert.Equal(t, record.MatchFuzzy, report.Fuzzy[0].Type)
	assert.GreaterOrEqual(t, report.Fuzzy[0].Score, 0.6)
}

func TestEngine_FuzzyBelowThresholdStaysPending(t *testing.T) {
	e := New()
	txs := []*record.Transaction{makeTx("tx1", -250.00, day(1), "Pagamento Energia")}
	entries := []*record.LedgerEntry{makeEntry("le1", -250.00, day(20), "xyzw qprt 1234", "")}

	report := e.Run(txs, entries, Tolerance{Days: 3, Value: 0.01})

	assert.Empty(t, report.Fuzzy)
	assert.Equal(t, record.StatusPending, txs[0].Status)
}

func TestEngine_AccountCopiedToAccountlessTransaction(t *testing.T) {
	e := New()
	txs := []*record.Transaction{makeTx("tx1", -320.75, day(3), "Energia")}
	entries := []*record.LedgerEntry{makeEntry("le1", -320.75, day(3), "Energia", "4.1.02 - Energia")}

	e.Run(txs, entries, DefaultTolerance)

	assert.Equal(t, "4.1.02 - Energia", txs[0].Account)
}

func TestEngine_AccountNotOverwritten(t *testing.T) {
	e := New()
	tx := makeTx("tx1", -320.75, day(3), "Energia")
	tx.Account = "já definida"
	entries := []*record.LedgerEntry{makeEntry("le1", -320.75, day(3), "Energia", "4.1.02")}

	e.Run([]*record.Transaction{tx}, entries, DefaultTolerance)

	assert.Equal(t, "já definida", tx.Account)
}

func TestEngine_RerunIsIdempotent(t *testing.T) {
	e := New()
	txs := []*record.Transaction{
		makeTx("tx1", -320.75, day(3), "Energia"),
		makeTx("tx2", 100.00, day(4), "PIX"),
	}
	entries := []*record.LedgerEntry{
		makeEntry("le1", -320.75, day(3), "Energia", ""),
	}

	first := e.Run(txs, entries, DefaultTolerance)
	second := e.Run(txs, entries, DefaultTolerance)

	assert.Equal(t, first.MatchedBank, second.MatchedBank)
	assert.Equal(t, first.PendingBank, second.PendingBank)
	assert.Len(t, second.Exact, 1)
	assert.Equal(t, record.StatusPending, txs[1].Status)
}

func TestEngine_RerunClearsStaleMatches(t *testing.T) {
	// A first run matches; removing the ledger side and re-running must
	// leave the transaction pending again, with no stale match metadata.
	e := New()
	txs := []*record.Transaction{makeTx("tx1", -320.75, day(3), "Energia")}
	entries := []*record.LedgerEntry{makeEntry("le1", -320.75, day(3), "Energia", "")}

	e.Run(txs, entries, DefaultTolerance)
	require.Equal(t, record.StatusMatched, txs[0].Status)

	report := e.Run(txs, nil, DefaultTolerance)

	assert.Equal(t, record.StatusPending, txs[0].Status)
	assert.Equal(t, record.MatchNone, txs[0].MatchType)
	assert.Empty(t, txs[0].MatchedWith)
	assert.Empty(t, txs[0].ReconciliationID)
	assert.Equal(t, 1, report.PendingBank)
}

func TestEngine_EachRecordClaimedOnce(t *testing.T) {
	e := New()
	txs := []*record.Transaction{
		makeTx("tx1", 100.00, day(5), "Deposito"),
		makeTx("tx2", 100.00, day(5), "Deposito"),
	}
	entries := []*record.LedgerEntry{makeEntry("le1", 100.00, day(5), "Deposito", "")}

	report := e.Run(txs, entries, DefaultTolerance)

	assert.Equal(t, 1, report.MatchedBank)
	assert.Equal(t, 1, report.PendingBank)
	assert.Len(t, report.Exact, 1)
}

func TestEngine_EmptyInputs(t *testing.T) {
	e := New()

	report := e.Run(nil, nil, DefaultTolerance)

	assert.Zero(t, report.BankCount)
	assert.Zero(t, report.MatchedBank)
	assert.Empty(t, report.Exact)
	assert.Empty(t, report.Groups)
}
