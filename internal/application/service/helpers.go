package service

import (
	"time"

	"github.com/ademirvarjao/conciliador-bancario/internal/domain/tabular"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

func tabularRows(content string) [][]string {
	rows := tabular.Decode(content)
	// Accounts files usually carry a header row; skip it when detected.
	if tabular.HasHeader(rows) {
		rows = rows[1:]
	}
	return rows
}
