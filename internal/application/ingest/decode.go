// Package ingest turns raw export files into canonical records.
//
// Decoding is split per source shape (delimited text, OFX interchange,
// pre-extracted free text, JSON) and every decoder produces the same Raw
// form, which the Normalizer then converts into canonical transactions.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ademirvarjao/conciliador-bancario/internal/domain/ofx"
	"github.com/ademirvarjao/conciliador-bancario/internal/domain/parse"
	"github.com/ademirvarjao/conciliador-bancario/internal/domain/record"
	"github.com/ademirvarjao/conciliador-bancario/internal/domain/tabular"
)

// Raw is a decoded-but-not-yet-normalized bank transaction.
type Raw struct {
	Date            time.Time
	Description     string
	Amount          float64
	Balance         *float64
	DateAssumedYear bool
}

// Kind identifies the source file shape.
type Kind string

const (
	KindTabular     Kind = "tabular"
	KindInterchange Kind = "interchange"
	KindFreeText    Kind = "freetext"
	KindJSON        Kind = "json"
)

var (
	// ErrEmptyFile is returned for files with no decodable content.
	ErrEmptyFile = errors.New("arquivo vazio")
	// ErrNoColumns is returned when the schema detector cannot locate the
	// date and amount columns.
	ErrNoColumns = errors.New("não foi possível identificar as colunas de data e valor")
)

// DetectKind guesses the decoder for a file from its extension and content.
func DetectKind(filename string, content []byte) Kind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".ofx", ".qfx":
		return KindInterchange
	case ".json":
		return KindJSON
	case ".csv", ".txt", ".tsv":
	}
	text := string(content)
	switch {
	case strings.Contains(text, "<STMTTRN>"):
		return KindInterchange
	case strings.HasPrefix(strings.TrimSpace(text), "["), strings.HasPrefix(strings.TrimSpace(text), "{"):
		return KindJSON
	}
	// Space-separated statement lines carry commas inside amounts, so the
	// free-text shape is checked before falling back to delimited text.
	if !strings.ContainsAny(text, ";\t") {
		for _, line := range strings.SplitN(text, "\n", 6) {
			if freeTextLine.MatchString(line) {
				return KindFreeText
			}
		}
	}
	if strings.ContainsAny(text, ";,\t") {
		return KindTabular
	}
	return KindFreeText
}

// Decode dispatches on the detected kind.
func Decode(filename string, content []byte) ([]Raw, error) {
	switch DetectKind(filename, content) {
	case KindInterchange:
		return DecodeInterchange(string(content))
	case KindJSON:
		return DecodeJSON(content)
	case KindFreeText:
		return DecodeFreeText(string(content))
	default:
		return DecodeTabular(string(content))
	}
}

// DecodeTabular decodes a delimited export, locating columns with the
// schema detector. Rows whose date or description cannot be recovered are
// dropped, not fatal.
func DecodeTabular(content string) ([]Raw, error) {
	rows := tabular.Decode(content)
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	cm, ok := tabular.DetectColumns(rows)
	if !ok {
		return nil, ErrNoColumns
	}
	if tabular.HasHeader(rows) {
		rows = rows[1:]
	}

	refYear := time.Now().Year()
	var out []Raw
	for _, row := range rows {
		raw, ok := rowToRaw(row, cm, refYear)
		if !ok {
			continue
		}
		out = append(out, raw)
	}
	if len(out) == 0 {
		return nil, ErrEmptyFile
	}
	return out, nil
}

func rowToRaw(row []string, cm tabular.ColumnMap, refYear int) (Raw, bool) {
	if cm.Date >= len(row) || cm.Amount >= len(row) {
		return Raw{}, false
	}
	rawDate := row[cm.Date]
	date, ok := parse.DateInYear(rawDate, refYear)
	if !ok {
		return Raw{}, false
	}
	description := ""
	if cm.Description >= 0 && cm.Description < len(row) {
		description = row[cm.Description]
	}
	if description == "" {
		return Raw{}, false
	}
	raw := Raw{
		Date:            date,
		Description:     description,
		Amount:          parse.Amount(row[cm.Amount], false),
		DateAssumedYear: !parse.HasYear(rawDate),
	}
	if cm.Balance >= 0 && cm.Balance < len(row) && row[cm.Balance] != "" {
		b := parse.Amount(row[cm.Balance], false)
		raw.Balance = &b
	}
	return raw, true
}

// DecodeInterchange decodes OFX-style tag-delimited text.
func DecodeInterchange(content string) ([]Raw, error) {
	txs := ofx.Decode(content)
	if len(txs) == 0 {
		return nil, ErrEmptyFile
	}
	out := make([]Raw, 0, len(txs))
	for _, tx := range txs {
		out = append(out, Raw{
			Date:        tx.Date,
			Description: tx.Description,
			Amount:      tx.Amount,
		})
	}
	return out, nil
}

// freeTextLine matches "date description signed-amount [running balance]"
// lines recovered from scanned statements by an external text extractor.
var freeTextLine = regexp.MustCompile(
	`^\s*(\d{1,2}/\d{1,2}(?:/\d{2,4})?|\d{4}-\d{2}-\d{2}|\d{8})\s+(.+?)\s+(\(?-?[\d.,]+\)?-?)(?:\s+(\(?-?[\d.,]+\)?-?))?\s*$`)

// DecodeFreeText recovers transactions from pre-extracted document text,
// one per line matching date, description, amount and an optional running
// balance. A present balance lets the caller back-compute the prior balance
// as balance minus amount.
func DecodeFreeText(content string) ([]Raw, error) {
	refYear := time.Now().Year()
	var out []Raw
	for _, line := range strings.Split(content, "\n") {
		m := freeTextLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		date, ok := parse.DateInYear(m[1], refYear)
		if !ok {
			continue
		}
		raw := Raw{
			Date:            date,
			Description:     strings.TrimSpace(m[2]),
			Amount:          parse.Amount(m[3], false),
			DateAssumedYear: !parse.HasYear(m[1]),
		}
		if m[4] != "" {
			b := parse.Amount(m[4], false)
			raw.Balance = &b
		}
		out = append(out, raw)
	}
	if len(out) == 0 {
		return nil, ErrEmptyFile
	}
	return out, nil
}

// jsonTransaction accepts the field aliases seen across export tools.
type jsonTransaction struct {
	Date        string   `json:"date"`
	Data        string   `json:"data"`
	Description string   `json:"description"`
	Descricao   string   `json:"descricao"`
	Memo        string   `json:"memo"`
	Amount      *float64 `json:"amount"`
	Valor       *float64 `json:"valor"`
	Value       *float64 `json:"value"`
}

// DecodeJSON decodes an array of transaction objects, validating each one:
// non-empty description, finite amount, parsable date. Invalid entries are
// dropped.
func DecodeJSON(data []byte) ([]Raw, error) {
	var items []jsonTransaction
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("json inválido: %w", err)
	}
	refYear := time.Now().Year()
	var out []Raw
	for _, item := range items {
		dateStr := firstNonEmpty(item.Date, item.Data)
		description := firstNonEmpty(item.Description, item.Descricao, item.Memo)
		amount := firstAmount(item.Amount, item.Valor, item.Value)

		date, ok := parse.DateInYear(dateStr, refYear)
		if !ok || description == "" || amount == nil {
			continue
		}
		if math.IsNaN(*amount) || math.IsInf(*amount, 0) {
			continue
		}
		out = append(out, Raw{
			Date:            date,
			Description:     description,
			Amount:          *amount,
			DateAssumedYear: !parse.HasYear(dateStr),
		})
	}
	if len(out) == 0 {
		return nil, ErrEmptyFile
	}
	return out, nil
}

// PriorBalance back-computes the balance before a transaction posted, when
// a running balance was captured.
func PriorBalance(r Raw) (float64, bool) {
	if r.Balance == nil {
		return 0, false
	}
	return *r.Balance - r.Amount, true
}

// DecodeLedger decodes an accounting-ledger delimited file into ledger
// entries. Ledger files carry an account column in addition to the usual
// date/description/value columns.
func DecodeLedger(content string) ([]record.LedgerEntry, error) {
	rows := tabular.Decode(content)
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	cm, ok := tabular.DetectColumns(rows)
	if !ok {
		return nil, ErrNoColumns
	}
	if tabular.HasHeader(rows) {
		rows = rows[1:]
	}
	if cm.Account < 0 {
		// Positional fallback: the column right after the value, when
		// present and not already assigned.
		next := cm.Amount + 1
		if next != cm.Date && next != cm.Description && next != cm.Balance {
			cm.Account = next
		}
	}

	refYear := time.Now().Year()
	var out []record.LedgerEntry
	for _, row := range rows {
		raw, ok := rowToRaw(row, cm, refYear)
		if !ok {
			continue
		}
		entry := record.LedgerEntry{
			Date:        raw.Date,
			Description: raw.Description,
			Value:       raw.Amount,
			MatchType:   record.MatchNone,
		}
		if cm.Account >= 0 && cm.Account < len(row) {
			entry.Account = row[cm.Account]
		}
		out = append(out, entry)
	}
	if len(out) == 0 {
		return nil, ErrEmptyFile
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func firstAmount(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
