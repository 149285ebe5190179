package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ademirvarjao/conciliador-bancario/internal/domain/matcher"
	"github.com/ademirvarjao/conciliador-bancario/internal/domain/record"
	"github.com/ademirvarjao/conciliador-bancario/internal/domain/rules"
)

// Storage provides SQLite-backed session persistence.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveSnapshot replaces the stored state of the snapshot's session inside a
// single transaction, so a failed save never leaves a half-written session.
func (s *Storage) SaveSnapshot(snap *Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is a no-op after commit

	savedAt := snap.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}
	if _, err := tx.Exec(`
		INSERT INTO sessions (id, company, bank, currency, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company = excluded.company,
			bank = excluded.bank,
			currency = excluded.currency,
			saved_at = excluded.saved_at
	`, snap.SessionID, snap.Company, snap.Bank, snap.Currency, savedAt); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	for _, table := range []string{"transactions", "ledger_entries", "rules", "accounts", "reports"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE session_id = ?", snap.SessionID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, t := range snap.Transactions {
		if _, err := tx.Exec(`
			INSERT INTO transactions
			(id, session_id, date, description, amount, balance, status, account,
			 match_type, match_score, matched_with, reconciliation_id, date_assumed_year)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, snap.SessionID, t.Date, t.Description, t.Amount, nullableFloat(t.Balance),
			string(t.Status), t.Account, string(t.MatchType), t.MatchScore,
			t.MatchedWith, t.ReconciliationID, t.DateAssumedYear); err != nil {
			return fmt.Errorf("save transaction %s: %w", t.ID, err)
		}
	}

	for _, e := range snap.Ledger {
		if _, err := tx.Exec(`
			INSERT INTO ledger_entries
			(id, session_id, date, description, value, account, matched, match_type, reconciliation_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, e.ID, snap.SessionID, e.Date, e.Description, e.Value, e.Account,
			e.Matched, string(e.MatchType), e.ReconciliationID); err != nil {
			return fmt.Errorf("save ledger entry %s: %w", e.ID, err)
		}
	}

	for i, r := range snap.Rules {
		if _, err := tx.Exec(`
			INSERT INTO rules (session_id, position, pattern, account, usage_count, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, snap.SessionID, i, r.Pattern, r.Account, r.UsageCount, r.CreatedAt); err != nil {
			return fmt.Errorf("save rule %d: %w", i, err)
		}
	}

	for _, label := range snap.Accounts {
		if _, err := tx.Exec(`
			INSERT INTO accounts (session_id, label) VALUES (?, ?)
		`, snap.SessionID, label); err != nil {
			return fmt.Errorf("save account %q: %w", label, err)
		}
	}

	if snap.Report != nil {
		reportJSON, err := json.Marshal(snap.Report)
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if _, err := tx.Exec(`
			INSERT INTO reports (session_id, generated_at, report_json) VALUES (?, ?, ?)
		`, snap.SessionID, snap.Report.GeneratedAt, string(reportJSON)); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
	}

	return tx.Commit()
}

// LoadSnapshot retrieves a session's state, or nil if never saved.
func (s *Storage) LoadSnapshot(sessionID string) (*Snapshot, error) {
	snap := &Snapshot{SessionID: sessionID}
	err := s.db.QueryRow(`
		SELECT company, bank, currency, saved_at FROM sessions WHERE id = ?
	`, sessionID).Scan(&snap.Company, &snap.Bank, &snap.Currency, &snap.SavedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if snap.Transactions, err = s.loadTransactions(sessionID); err != nil {
		return nil, err
	}
	if snap.Ledger, err = s.loadLedger(sessionID); err != nil {
		return nil, err
	}
	if snap.Rules, err = s.loadRules(sessionID); err != nil {
		return nil, err
	}
	if snap.Accounts, err = s.loadAccounts(sessionID); err != nil {
		return nil, err
	}
	if snap.Report, err = s.loadReport(sessionID); err != nil {
		return nil, err
	}
	return snap, nil
}

// ListSessions returns the ids of all stored sessions.
func (s *Storage) ListSessions() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM sessions ORDER BY saved_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteSession removes a session's stored state.
func (s *Storage) DeleteSession(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID)
	return err
}

func (s *Storage) loadTransactions(sessionID string) ([]*record.Transaction, error) {
	rows, err := s.db.Query(`
		SELECT id, date, description, amount, balance, status, account,
		       match_type, match_score, matched_with, reconciliation_id, date_assumed_year
		FROM transactions WHERE session_id = ? ORDER BY date DESC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()

	var out []*record.Transaction
	for rows.Next() {
		t := &record.Transaction{}
		var status, matchType string
		var balance sql.NullFloat64
		if err := rows.Scan(&t.ID, &t.Date, &t.Description, &t.Amount, &balance,
			&status, &t.Account, &matchType, &t.MatchScore,
			&t.MatchedWith, &t.ReconciliationID, &t.DateAssumedYear); err != nil {
			return nil, err
		}
		t.Status = record.Status(status)
		t.MatchType = record.MatchType(matchType)
		if balance.Valid {
			b := balance.Float64
			t.Balance = &b
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Storage) loadLedger(sessionID string) ([]*record.LedgerEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, date, description, value, account, matched, match_type, reconciliation_id
		FROM ledger_entries WHERE session_id = ? ORDER BY date DESC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	defer rows.Close()

	var out []*record.LedgerEntry
	for rows.Next() {
		e := &record.LedgerEntry{}
		var matchType string
		if err := rows.Scan(&e.ID, &e.Date, &e.Description, &e.Value, &e.Account,
			&e.Matched, &matchType, &e.ReconciliationID); err != nil {
			return nil, err
		}
		e.MatchType = record.MatchType(matchType)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Storage) loadRules(sessionID string) ([]rules.Rule, error) {
	rows, err := s.db.Query(`
		SELECT pattern, account, usage_count, created_at
		FROM rules WHERE session_id = ? ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	defer rows.Close()

	var out []rules.Rule
	for rows.Next() {
		var r rules.Rule
		if err := rows.Scan(&r.Pattern, &r.Account, &r.UsageCount, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Storage) loadAccounts(sessionID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT label FROM accounts WHERE session_id = ? ORDER BY label
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		out = append(out, label)
	}
	return out, rows.Err()
}

func (s *Storage) loadReport(sessionID string) (*matcher.Report, error) {
	var reportJSON string
	err := s.db.QueryRow(`
		SELECT report_json FROM reports WHERE session_id = ?
	`, sessionID).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	var report matcher.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}

func nullableFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
