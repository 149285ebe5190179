// Package parse converts the textual amounts and dates found in bank exports
// into numeric values and calendar dates.
//
// Bank files mix Brazilian ("1.234,56") and international ("1,234.56")
// grouping, accounting parentheses, trailing minus signs and half a dozen
// date layouts, so parsing is deliberately forgiving: a cell that cannot be
// parsed resolves to zero (amounts) or to a reported failure (dates) instead
// of aborting the import.
package parse

import (
	"strconv"
	"strings"
	"time"
)

// currencyStripper removes currency symbols and spacing before numeric parsing.
var currencyStripper = strings.NewReplacer(
	"R$", "",
	"$", "",
	"€", "",
	"£", "",
	" ", "",
	" ", "",
	"\t", "",
)

// Amount parses a monetary value. When interchange is true the decimal
// separator is always a dot (OFX convention). Otherwise the separator is
// inferred: if both comma and dot appear, whichever comes last is the decimal
// separator; a lone comma is treated as decimal. Values wrapped in
// parentheses or carrying a trailing minus are negative. Unparsable input
// yields 0 because source files routinely contain blank cells.
func Amount(raw string, interchange bool) float64 {
	str := strings.TrimSpace(raw)
	if str == "" {
		return 0
	}

	negative := strings.Contains(str, "(") && strings.Contains(str, ")")
	if negative {
		str = strings.NewReplacer("(", "", ")", "").Replace(str)
	}
	str = currencyStripper.Replace(str)
	str = strings.TrimSpace(str)

	// Trailing minus ("123,45-") moves to the front.
	if strings.HasSuffix(str, "-") {
		str = "-" + strings.TrimSuffix(str, "-")
	}

	if !interchange {
		hasComma := strings.Contains(str, ",")
		hasDot := strings.Contains(str, ".")
		switch {
		case hasComma && hasDot:
			if strings.LastIndex(str, ",") > strings.LastIndex(str, ".") {
				// Brazilian grouping: dots are thousands separators.
				str = strings.ReplaceAll(str, ".", "")
				str = strings.Replace(str, ",", ".", 1)
			} else {
				str = strings.ReplaceAll(str, ",", "")
			}
		case hasComma:
			str = strings.Replace(str, ",", ".", 1)
		}
	}

	value, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0
	}
	if negative && value > 0 {
		value = -value
	}
	return value
}

// midday anchors parsed dates at 12:00 UTC so that day arithmetic is immune
// to timezone and DST edge effects.
func midday(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

// Date parses a calendar date from the layouts seen in bank exports:
// compact YYYYMMDD (optionally with a trailing time segment, which is
// discarded), DD/MM/YYYY, DD/MM/YY and ISO-like strings. DD/MM inputs
// without a year assume the current year; use DateInYear when the statement
// spans a year boundary.
func Date(raw string) (time.Time, bool) {
	return DateInYear(raw, time.Now().Year())
}

// DateInYear is Date with an explicit reference year for DD/MM inputs.
func DateInYear(raw string, refYear int) (time.Time, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return time.Time{}, false
	}

	// Compact OFX/ISO form: YYYYMMDD, possibly followed by HHMMSS and a
	// timezone suffix. Only the date portion is used.
	if len(cleaned) >= 8 && allDigits(cleaned[:8]) {
		year, _ := strconv.Atoi(cleaned[:4])
		month, _ := strconv.Atoi(cleaned[4:6])
		day, _ := strconv.Atoi(cleaned[6:8])
		if validYMD(year, month, day) {
			return midday(year, time.Month(month), day), true
		}
	}

	if t, ok := parseSlashed(cleaned, refYear); ok {
		return t, true
	}

	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04:05", time.RFC3339, "2006/01/02"} {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return midday(t.Year(), t.Month(), t.Day()), true
		}
	}
	return time.Time{}, false
}

// HasYear reports whether a slashed date string carries an explicit year.
// DD/MM inputs without one are ambiguous across year boundaries.
func HasYear(raw string) bool {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	return len(parts) != 2
}

func parseSlashed(s string, refYear int) (time.Time, bool) {
	parts := strings.Split(s, "/")
	if len(parts) < 2 || len(parts) > 3 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, false
	}

	year := refYear
	if len(parts) == 3 {
		year, err = strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return time.Time{}, false
		}
		if year < 100 {
			// Two-digit years: 70-99 land in the 1900s.
			if year >= 70 {
				year += 1900
			} else {
				year += 2000
			}
		}
	}
	if !validYMD(year, month, day) {
		return time.Time{}, false
	}
	return midday(year, time.Month(month), day), true
}

func validYMD(year, month, day int) bool {
	if year < 1000 || year > 9999 || month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC)
	return t.Day() == day && int(t.Month()) == month
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
