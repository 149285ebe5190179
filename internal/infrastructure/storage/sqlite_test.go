package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ademirvarjao/conciliador-bancario/internal/domain/matcher"
	"github.com/ademirvarjao/conciliador-bancario/internal/domain/record"
	"github.com/ademirvarjao/conciliador-bancario/internal/domain/rules"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleSnapshot() *Snapshot {
	balance := 1500.00
	return &Snapshot{
		SessionID: "sess-1",
		Company:   "ACME Ltda",
		Bank:      "Banco XYZ",
		Currency:  "BRL",
		SavedAt:   time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC),
		Transactions: []*record.Transaction{
			{
				ID:               "tx1",
				Date:             time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC),
				Description:      "Pagamento Energia",
				Amount:           -320.75,
				Balance:          &balance,
				Status:           record.StatusMatched,
				Account:          "4.1.02 - Energia",
				MatchType:        record.MatchExact,
				MatchScore:       1.0,
				MatchedWith:      "le1",
				ReconciliationID: "rec1",
			},
			{
				ID:              "tx2",
				Date:            time.Date(2026, 2, 4, 12, 0, 0, 0, time.UTC),
				Description:     "PIX sem conta",
				Amount:          100.00,
				Status:          record.StatusPending,
				MatchType:       record.MatchNone,
				DateAssumedYear: true,
			},
		},
		Ledger: []*record.LedgerEntry{
			{
				ID:               "le1",
				Date:             time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC),
				Description:      "Energia Eletrica",
				Value:            -320.75,
				Account:          "4.1.02 - Energia",
				Matched:          true,
				MatchType:        record.MatchExact,
				ReconciliationID: "rec1",
			},
		},
		Accounts: []string{"1.1.01 - Clientes", "4.1.02 - Energia"},
		Rules: []rules.Rule{
			{Pattern: "energia", Account: "4.1.02 - Energia", UsageCount: 2, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
		Report: &matcher.Report{
			GeneratedAt: time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC),
			BankCount:   2,
			MatchedBank: 1,
		},
	}
}

func TestStorage_SaveAndLoadSnapshot(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.SaveSnapshot(sampleSnapshot()))

	got, err := s.LoadSnapshot("sess-1")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ACME Ltda", got.Company)
	assert.Equal(t, "BRL", got.Currency)

	require.Len(t, got.Transactions, 2)
	// Ordered by date descending.
	assert.Equal(t, "tx2", got.Transactions[0].ID)
	assert.True(t, got.Transactions[0].DateAssumedYear)
	tx := got.Transactions[1]
	assert.Equal(t, record.StatusMatched, tx.Status)
	assert.Equal(t, record.MatchExact, tx.MatchType)
	assert.Equal(t, "le1", tx.MatchedWith)
	require.NotNil(t, tx.Balance)
	assert.InDelta(t, 1500.00, *tx.Balance, 0.001)

	require.Len(t, got.Ledger, 1)
	assert.True(t, got.Ledger[0].Matched)
	assert.Equal(t, "rec1", got.Ledger[0].ReconciliationID)

	assert.Equal(t, []string{"1.1.01 - Clientes", "4.1.02 - Energia"}, got.Accounts)

	require.Len(t, got.Rules, 1)
	assert.Equal(t, "energia", got.Rules[0].Pattern)
	assert.Equal(t, 2, got.Rules[0].UsageCount)

	require.NotNil(t, got.Report)
	assert.Equal(t, 2, got.Report.BankCount)
	assert.Equal(t, 1, got.Report.MatchedBank)
}

func TestStorage_SaveReplacesPreviousState(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.SaveSnapshot(sampleSnapshot()))

	smaller := sampleSnapshot()
	smaller.Transactions = smaller.Transactions[:1]
	smaller.Ledger = nil
	smaller.Report = nil
	require.NoError(t, s.SaveSnapshot(smaller))

	got, err := s.LoadSnapshot("sess-1")
	require.NoError(t, err)
	assert.Len(t, got.Transactions, 1)
	assert.Empty(t, got.Ledger)
	assert.Nil(t, got.Report)
}

func TestStorage_LoadMissingSessionReturnsNil(t *testing.T) {
	s := newTestStorage(t)

	got, err := s.LoadSnapshot("never-saved")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStorage_RulesPreserveOrder(t *testing.T) {
	s := newTestStorage(t)
	snap := sampleSnapshot()
	snap.Rules = []rules.Rule{
		{Pattern: "primeiro", Account: "A"},
		{Pattern: "segundo", Account: "B"},
		{Pattern: "terceiro", Account: "C"},
	}
	require.NoError(t, s.SaveSnapshot(snap))

	got, err := s.LoadSnapshot("sess-1")

	require.NoError(t, err)
	require.Len(t, got.Rules, 3)
	assert.Equal(t, "primeiro", got.Rules[0].Pattern)
	assert.Equal(t, "terceiro", got.Rules[2].Pattern)
}

func TestStorage_ListSessions(t *testing.T) {
	s := newTestStorage(t)
	first := sampleSnapshot()
	require.NoError(t, s.SaveSnapshot(first))

	second := sampleSnapshot()
	second.SessionID = "sess-2"
	second.SavedAt = first.SavedAt.Add(time.Hour)
	require.NoError(t, s.SaveSnapshot(second))

	ids, err := s.ListSessions()

	require.NoError(t, err)
	assert.Equal(t, []string{"sess-2", "sess-1"}, ids)
}

func TestStorage_DeleteSession(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.SaveSnapshot(sampleSnapshot()))

	require.NoError(t, s.DeleteSession("sess-1"))

	got, err := s.LoadSnapshot("sess-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting a missing session is not an error.
	assert.NoError(t, s.DeleteSession("sess-1"))
}
