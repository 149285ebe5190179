// Package tabular decodes delimited bank/ledger exports and locates the
// date, description and amount columns inside them.
//
// Real exports disagree on almost everything: delimiter (semicolon, comma or
// tab), header presence, column order and quoting. The decoder sniffs the
// delimiter from a sample of lines and the schema detector resolves columns
// by header keywords first, content shape second.
package tabular

import "strings"

// delimiter candidates, checked across the first sampleLines lines.
var candidates = []rune{';', ',', '\t'}

const sampleLines = 10

// DetectDelimiter picks the delimiter with the highest unquoted occurrence
// count across the first few lines. Semicolon wins ties, matching the most
// common Brazilian export convention.
func DetectDelimiter(lines []string) rune {
	if len(lines) > sampleLines {
		lines = lines[:sampleLines]
	}
	counts := make(map[rune]int, len(candidates))
	for _, line := range lines {
		inQuotes := false
		for _, r := range line {
			if r == '"' {
				inQuotes = !inQuotes
				continue
			}
			if inQuotes {
				continue
			}
			for _, c := range candidates {
				if r == c {
					counts[r]++
				}
			}
		}
	}

	best := ';'
	bestCount := counts[';']
	for _, c := range candidates[1:] {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best
}

// Decode splits delimited content into rows of trimmed fields.
//
// It is a single-pass scanner rather than encoding/csv because bank exports
// are routinely malformed in ways the csv package rejects: ragged rows,
// stray quotes, mixed line endings. Doubled quotes inside a quoted field
// escape to a literal quote. Rows whose every field is empty are dropped.
func Decode(content string) [][]string {
	content = strings.TrimPrefix(content, "\uFEFF")
	delimiter := DetectDelimiter(strings.Split(content, "\n"))
	return decodeWith(content, delimiter)
}

func decodeWith(content string, delimiter rune) [][]string {
	var rows [][]string
	var fields []string
	var current strings.Builder
	inQuotes := false

	runes := []rune(content)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case r == delimiter && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		case (r == '\n' || r == '\r') && !inQuotes:
			if r == '\r' && i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			fields = append(fields, current.String())
			rows = append(rows, fields)
			fields = nil
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 || len(fields) > 0 {
		fields = append(fields, current.String())
		rows = append(rows, fields)
	}

	out := rows[:0]
	for _, row := range rows {
		empty := true
		for i, cell := range row {
			row[i] = strings.TrimSpace(cell)
			if row[i] != "" {
				empty = false
			}
		}
		if !empty {
			out = append(out, row)
		}
	}
	return out
}
