// Package service orchestrates a reconciliation session: imports, rules,
// matching runs and exports over one shared record collection.
//
// The core pipeline is single-threaded by design. A session-wide mutex
// serializes imports and matching runs so no two operations ever interleave
// over the same record set; everything inside the lock is pure CPU-bound
// computation with no I/O except the optional persistence commit at the end.
package service

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ademirvarjao/conciliador-bancario/internal/application/export"
	"github.com/ademirvarjao/conciliador-bancario/internal/application/ingest"
	"github.com/ademirvarjao/conciliador-bancario/internal/domain/matcher"
	"github.com/ademirvarjao/conciliador-bancario/internal/domain/record"
	"github.com/ademirvarjao/conciliador-bancario/internal/domain/rules"
	"github.com/ademirvarjao/conciliador-bancario/internal/infrastructure/storage"
)

// File is one inbound import file.
type File struct {
	Name    string
	Content []byte
}

// FileError records why a whole file was rejected. Single bad cells never
// reject a file; only undecodable content does.
type FileError struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// ImportSummary reports the outcome of one import batch.
type ImportSummary struct {
	Imported int         `json:"imported"`
	Ignored  int         `json:"ignored"` // truncated past the record ceiling
	Failures []FileError `json:"failures,omitempty"`
}

// Options configure a reconciliation service.
type Options struct {
	SessionID  string
	MaxRecords int
	Repo       storage.Repository // nil keeps the session in memory only
	Logger     *slog.Logger
}

// Service owns one reconciliation session.
type Service struct {
	mu sync.Mutex

	sessionID string
	company   string
	bank      string
	currency  string

	transactions []*record.Transaction
	ledger       []*record.LedgerEntry
	accounts     []string

	rules      *rules.Engine
	normalizer *ingest.Normalizer
	engine     *matcher.Engine
	lastReport *matcher.Report

	repo   storage.Repository
	logger *slog.Logger
}

// New creates a session service. When a repository is configured and holds a
// snapshot for the session, the state is hydrated from it.
func New(opts Options) (*Service, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}

	engine := rules.NewEngine()
	normalizer := ingest.NewNormalizer(engine)
	if opts.MaxRecords > 0 {
		normalizer.MaxRecords = opts.MaxRecords
	}

	s := &Service{
		sessionID:  opts.SessionID,
		currency:   "BRL",
		rules:      engine,
		normalizer: normalizer,
		engine:     matcher.New(),
		repo:       opts.Repo,
		logger:     opts.Logger,
	}

	if s.repo != nil {
		snap, err := s.repo.LoadSnapshot(s.sessionID)
		if err != nil {
			return nil, fmt.Errorf("hydrate session: %w", err)
		}
		if snap != nil {
			s.hydrate(snap)
		}
	}
	return s, nil
}

func (s *Service) hydrate(snap *storage.Snapshot) {
	s.company = snap.Company
	s.bank = snap.Bank
	if snap.Currency != "" {
		s.currency = snap.Currency
	}
	s.transactions = snap.Transactions
	s.ledger = snap.Ledger
	s.accounts = snap.Accounts
	s.rules.Load(snap.Rules)
	s.lastReport = snap.Report
}

// SessionID returns the session identifier.
func (s *Service) SessionID() string { return s.sessionID }

// SetMetadata updates the session's company/bank/currency labels.
func (s *Service) SetMetadata(company, bank, currency string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.company = company
	s.bank = bank
	if currency != "" {
		s.currency = currency
	}
	return s.persistLocked()
}

// ImportFiles decodes and normalizes a batch of bank export files. A file
// that cannot be decoded is reported in the summary and the batch continues
// with the remaining files.
func (s *Service) ImportFiles(files []File) (ImportSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := ImportSummary{}
	for _, f := range files {
		raws, err := ingest.Decode(f.Name, f.Content)
		if err != nil {
			s.logger.Warn("arquivo rejeitado", "file", f.Name, "reason", err)
			summary.Failures = append(summary.Failures, FileError{File: f.Name, Reason: err.Error()})
			continue
		}
		var ignored int
		s.transactions, ignored = s.normalizer.Append(s.transactions, raws)
		summary.Imported += len(raws) - ignored
		summary.Ignored += ignored
	}

	s.logger.Info("importação concluída",
		"imported", summary.Imported,
		"ignored", summary.Ignored,
		"failed_files", len(summary.Failures),
	)
	return summary, s.persistLocked()
}

// ImportLedger replaces the session's ledger entries with the decoded file.
func (s *Service) ImportLedger(content []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := ingest.DecodeLedger(string(content))
	if err != nil {
		return 0, err
	}
	s.ledger = ingest.NormalizeLedger(entries)
	s.logger.Info("lançamentos contábeis carregados", "count", len(s.ledger))
	return len(s.ledger), s.persistLocked()
}

// ImportAccounts merges a chart-of-accounts file (code;name rows) into the
// session's account labels, deduplicating.
func (s *Service) ImportAccounts(content []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := ingestAccountsRows(string(content))
	if len(rows) == 0 {
		return 0, ingest.ErrEmptyFile
	}
	seen := make(map[string]bool, len(s.accounts))
	for _, label := range s.accounts {
		seen[label] = true
	}
	added := 0
	for _, label := range rows {
		if !seen[label] {
			seen[label] = true
			s.accounts = append(s.accounts, label)
			added++
		}
	}
	return added, s.persistLocked()
}

// AddAccount appends a single account label.
func (s *Service) AddAccount(label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	label = strings.TrimSpace(label)
	if label == "" {
		return fmt.Errorf("conta vazia")
	}
	for _, existing := range s.accounts {
		if existing == label {
			return nil
		}
	}
	s.accounts = append(s.accounts, label)
	return s.persistLocked()
}

// Accounts returns the account labels.
func (s *Service) Accounts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.accounts...)
}

// AddRule registers a new categorization rule.
func (s *Service) AddRule(pattern, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rules.Add(pattern, account) == nil {
		return fmt.Errorf("regra inválida: padrão e conta são obrigatórios")
	}
	return s.persistLocked()
}

// Rules returns the rules in matching order.
func (s *Service) Rules() []rules.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rulesLocked()
}

func (s *Service) rulesLocked() []rules.Rule {
	list := s.rules.Rules()
	out := make([]rules.Rule, 0, len(list))
	for _, r := range list {
		out = append(out, *r)
	}
	return out
}

// CorrectAccount sets a transaction's account manually and learns the
// correction as a new rule so future imports suggest it automatically.
func (s *Service) CorrectAccount(transactionID, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range s.transactions {
		if tx.ID == transactionID {
			tx.Account = account
			s.rules.Learn(tx.Description, account)
			return s.persistLocked()
		}
	}
	return fmt.Errorf("transação %s não encontrada", transactionID)
}

// Reconcile runs the matching engine over the session's records and stores
// the resulting report, replacing the previous one.
func (s *Service) Reconcile(tol matcher.Tolerance) (*matcher.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := s.engine.Run(s.transactions, s.ledger, tol)
	s.lastReport = report

	s.logger.Info("conciliação executada",
		"tolerance_days", tol.Days,
		"tolerance_value", tol.Value,
		"matched", report.MatchedBank,
		"pending", report.PendingBank,
	)
	return report, s.persistLocked()
}

// Report returns the latest reconciliation report, or nil before the first
// run.
func (s *Service) Report() *matcher.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport
}

// Search filters transactions by a free-text term (description + account)
// and status ("" or "all" matches every status).
func (s *Service) Search(term, status string) []*record.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	term = strings.ToLower(strings.TrimSpace(term))
	var out []*record.Transaction
	for _, tx := range s.transactions {
		if term != "" {
			text := strings.ToLower(tx.Description + " " + tx.Account)
			if !strings.Contains(text, term) {
				continue
			}
		}
		if status != "" && status != "all" && string(tx.Status) != status {
			continue
		}
		copied := *tx
		out = append(out, &copied)
	}
	return out
}

// Transactions returns a copy of the session's transactions.
func (s *Service) Transactions() []*record.Transaction {
	return s.Search("", "")
}

// Ledger returns a copy of the session's ledger entries.
func (s *Service) Ledger() []*record.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*record.LedgerEntry, 0, len(s.ledger))
	for _, entry := range s.ledger {
		copied := *entry
		out = append(out, &copied)
	}
	return out
}

// Metrics computes the session's aggregate totals.
func (s *Service) Metrics() export.Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return export.ComputeMetrics(s.transactions, s.ledger)
}

// ExportCSV renders the transactions as delimited text.
func (s *Service) ExportCSV() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return export.CSV(s.transactions)
}

// ExportArchive renders the full session state as a JSON document.
func (s *Service) ExportArchive() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return export.JSON(s.archiveLocked())
}

func (s *Service) archiveLocked() export.Archive {
	return export.Archive{
		GeneratedAt:  nowUTC(),
		Company:      s.company,
		Bank:         s.bank,
		Currency:     s.currency,
		Transactions: s.transactions,
		Ledger:       s.ledger,
		Accounts:     s.accounts,
		Rules:        s.rulesLocked(),
		Metrics:      export.ComputeMetrics(s.transactions, s.ledger),
		Report:       s.lastReport,
	}
}

// ImportArchive restores a previously exported archive document, replacing
// the current session state.
func (s *Service) ImportArchive(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := export.ParseArchive(data)
	if err != nil {
		return err
	}
	s.company = a.Company
	s.bank = a.Bank
	if a.Currency != "" {
		s.currency = a.Currency
	}
	s.transactions = a.Transactions
	s.ledger = a.Ledger
	s.accounts = a.Accounts
	s.rules.Load(a.Rules)
	s.lastReport = a.Report
	return s.persistLocked()
}

// Reset discards the session's state.
func (s *Service) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = nil
	s.ledger = nil
	s.accounts = nil
	s.rules.Load(nil)
	s.lastReport = nil
	s.company, s.bank, s.currency = "", "", "BRL"

	if s.repo != nil {
		if err := s.repo.DeleteSession(s.sessionID); err != nil {
			return fmt.Errorf("reset session: %w", err)
		}
	}
	return nil
}

// persistLocked commits the session snapshot. Persistence failures are hard
// errors for the caller; the in-memory state is already updated.
func (s *Service) persistLocked() error {
	if s.repo == nil {
		return nil
	}
	snap := &storage.Snapshot{
		SessionID:    s.sessionID,
		Company:      s.company,
		Bank:         s.bank,
		Currency:     s.currency,
		SavedAt:      nowUTC(),
		Transactions: s.transactions,
		Ledger:       s.ledger,
		Accounts:     s.accounts,
		Rules:        s.rulesLocked(),
		Report:       s.lastReport,
	}
	if err := s.repo.SaveSnapshot(snap); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// ingestAccountsRows parses "code;name" (or single-label) rows into
// "code - name" labels.
func ingestAccountsRows(content string) []string {
	var out []string
	for _, row := range tabularRows(content) {
		switch {
		case len(row) >= 2 && row[0] != "" && row[1] != "":
			out = append(out, row[0]+" - "+row[1])
		case len(row) >= 1 && row[0] != "":
			out = append(out, row[0])
		}
	}
	return out
}
