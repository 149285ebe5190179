package tabular

import (
	"regexp"
	"strings"

	"github.com/ademirvarjao/conciliador-bancario/internal/domain/parse"
)

// ColumnMap holds the resolved column index per field. Unresolved optional
// columns are -1.
type ColumnMap struct {
	Date        int
	Description int
	Amount      int
	Balance     int
	Account     int
}

// Header keyword vocabularies, Portuguese and English, matched as
// case-insensitive substrings.
var (
	dateWords    = []string{"data", "date", "dt ", "dia", "fecha"}
	descWords    = []string{"desc", "hist", "memo", "narr", "lancamento", "lançamento", "detalhe", "detail"}
	amountWords  = []string{"valor", "value", "amount", "montante", "vlr", "quantia"}
	balanceWords = []string{"saldo", "balance"}
	accountWords = []string{"conta", "account"}
)

var (
	dateShape   = regexp.MustCompile(`^(\d{1,2}/\d{1,2}(/\d{2,4})?|\d{4}-\d{2}-\d{2}|\d{8})`)
	numericOnly = regexp.MustCompile(`^[\d\s.,;()+-]+$`)
)

const sampleRows = 15

// HasHeader reports whether the first row looks like a header: at least two
// cells hit a known column vocabulary.
func HasHeader(rows [][]string) bool {
	if len(rows) == 0 {
		return false
	}
	hits := 0
	for _, cell := range rows[0] {
		if matchesAny(cell, dateWords) || matchesAny(cell, descWords) ||
			matchesAny(cell, amountWords) || matchesAny(cell, balanceWords) ||
			matchesAny(cell, accountWords) {
			hits++
		}
	}
	return hits >= 2
}

// DetectColumns infers which column holds the date, description and amount.
// Header keywords are tried first; any still-unresolved column is scored by
// content shape across up to 15 sample rows. Returns ok=false when no date
// or amount column can be resolved.
func DetectColumns(rows [][]string) (ColumnMap, bool) {
	cm := ColumnMap{Date: -1, Description: -1, Amount: -1, Balance: -1, Account: -1}
	if len(rows) == 0 {
		return cm, false
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	samples := rows
	if HasHeader(rows) {
		header := rows[0]
		samples = rows[1:]
		for i, cell := range header {
			switch {
			case cm.Date < 0 && matchesAny(cell, dateWords):
				cm.Date = i
			case cm.Description < 0 && matchesAny(cell, descWords):
				cm.Description = i
			case cm.Balance < 0 && matchesAny(cell, balanceWords):
				cm.Balance = i
			case cm.Account < 0 && matchesAny(cell, accountWords):
				cm.Account = i
			case cm.Amount < 0 && matchesAny(cell, amountWords):
				cm.Amount = i
			}
		}
	}
	if len(samples) > sampleRows {
		samples = samples[:sampleRows]
	}

	if cm.Date < 0 || cm.Amount < 0 || cm.Description < 0 {
		scoreColumns(&cm, samples, width)
	}
	if cm.Date < 0 || cm.Amount < 0 {
		return cm, false
	}
	if cm.Description < 0 {
		cm.Description = firstTextualColumn(samples, width, cm)
	}
	if cm.Description < 0 {
		return cm, false
	}
	return cm, true
}

// scoreColumns assigns each unresolved category to the highest-scoring
// column: +2 for a date-shaped cell, +2 for an amount-shaped cell, +1 for
// free text longer than five characters.
func scoreColumns(cm *ColumnMap, samples [][]string, width int) {
	dateScore := make([]int, width)
	amountScore := make([]int, width)
	textScore := make([]int, width)

	for _, row := range samples {
		for i := 0; i < width && i < len(row); i++ {
			cell := row[i]
			if cell == "" {
				continue
			}
			if dateShape.MatchString(cell) {
				if _, ok := parse.Date(cell); ok {
					dateScore[i] += 2
				}
			}
			if looksNumeric(cell) && parse.Amount(cell, false) != 0 {
				amountScore[i] += 2
			}
			if len(cell) > 5 && !numericOnly.MatchString(cell) {
				textScore[i]++
			}
		}
	}

	taken := func(i int) bool {
		return i == cm.Date || i == cm.Amount || i == cm.Description ||
			i == cm.Balance || i == cm.Account
	}
	if cm.Date < 0 {
		cm.Date = bestColumn(dateScore, taken)
	}
	if cm.Amount < 0 {
		cm.Amount = bestColumn(amountScore, taken)
	}
	if cm.Description < 0 {
		cm.Description = bestColumn(textScore, taken)
	}
}

func bestColumn(scores []int, taken func(int) bool) int {
	best, bestScore := -1, 0
	for i, s := range scores {
		if taken(i) {
			continue
		}
		if s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

func firstTextualColumn(samples [][]string, width int, cm ColumnMap) int {
	for i := 0; i < width; i++ {
		if i == cm.Date || i == cm.Amount || i == cm.Balance || i == cm.Account {
			continue
		}
		for _, row := range samples {
			if i < len(row) && row[i] != "" && !numericOnly.MatchString(row[i]) {
				return i
			}
		}
	}
	return -1
}

func matchesAny(cell string, words []string) bool {
	lower := strings.ToLower(strings.TrimSpace(cell))
	if lower == "" {
		return false
	}
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func looksNumeric(cell string) bool {
	return numericOnly.MatchString(cell) && strings.ContainsAny(cell, "0123456789")
}
