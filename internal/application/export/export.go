// Package export renders the reconciliation state for download and re-import.
//
// Two shapes are produced: a delimited text file with fixed columns for
// spreadsheet use, and a JSON archive document mirroring the full session
// state (records, ledger, accounts, rules, metrics, latest report) suitable
// for archival and later re-import.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ademirvarjao/conciliador-bancario/internal/domain/matcher"
	"github.com/ademirvarjao/conciliador-bancario/internal/domain/record"
	"github.com/ademirvarjao/conciliador-bancario/internal/domain/rules"
)

// csvHeader uses the export vocabulary the schema detector recognizes, so a
// produced file round-trips through the normal import path.
const csvHeader = "data;descricao;valor;conta;status;tipo_conciliacao;score"

// CSV renders transactions as semicolon-delimited text with a UTF-8 BOM so
// spreadsheet tools pick the encoding up correctly.
func CSV(txs []*record.Transaction) []byte {
	var b strings.Builder
	b.WriteString("\uFEFF")
	b.WriteString(csvHeader)
	b.WriteByte('\n')
	for _, tx := range txs {
		fmt.Fprintf(&b, "%s;%s;%.2f;%s;%s;%s;%.2f\n",
			tx.Date.Format("2006-01-02"),
			quote(tx.Description),
			tx.Amount,
			quote(tx.Account),
			tx.Status,
			tx.MatchType,
			tx.MatchScore,
		)
	}
	return []byte(b.String())
}

// quote wraps a field in quotes when it contains the delimiter, a quote or a
// line break, doubling embedded quotes.
func quote(field string) string {
	if !strings.ContainsAny(field, `;"`+"\n\r") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// Metrics are the aggregate session totals included in the archive.
type Metrics struct {
	Transactions  int     `json:"transactions"`
	Matched       int     `json:"matched"`
	Pending       int     `json:"pending"`
	LedgerEntries int     `json:"ledger_entries"`
	LedgerMatched int     `json:"ledger_matched"`
	BankTotal     float64 `json:"bank_total"`
	LedgerTotal   float64 `json:"ledger_total"`
}

// Archive mirrors the full reconciliation state of a session.
type Archive struct {
	GeneratedAt  time.Time             `json:"generated_at"`
	Company      string                `json:"company,omitempty"`
	Bank         string                `json:"bank,omitempty"`
	Currency     string                `json:"currency,omitempty"`
	Transactions []*record.Transaction `json:"transactions"`
	Ledger       []*record.LedgerEntry `json:"ledger_entries"`
	Accounts     []string              `json:"accounts,omitempty"`
	Rules        []rules.Rule          `json:"rules,omitempty"`
	Metrics      Metrics               `json:"metrics"`
	Report       *matcher.Report       `json:"report,omitempty"`
}

// ComputeMetrics fills the aggregate totals from the record collections.
func ComputeMetrics(txs []*record.Transaction, ledger []*record.LedgerEntry) Metrics {
	m := Metrics{
		Transactions:  len(txs),
		LedgerEntries: len(ledger),
	}
	for _, tx := range txs {
		m.BankTotal += tx.Amount
		if tx.Status == record.StatusMatched {
			m.Matched++
		} else {
			m.Pending++
		}
	}
	for _, entry := range ledger {
		m.LedgerTotal += entry.Value
		if entry.Matched {
			m.LedgerMatched++
		}
	}
	return m
}

// JSON serializes the archive document.
func JSON(a Archive) ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// ParseArchive reads a previously exported archive document.
func ParseArchive(data []byte) (Archive, error) {
	var a Archive
	if err := json.Unmarshal(data, &a); err != nil {
		return Archive{}, fmt.Errorf("parse archive: %w", err)
	}
	return a, nil
}
