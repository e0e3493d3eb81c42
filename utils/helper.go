package utils

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const DateLayout = "2006-01-02"

// isoLayouts are tried in order by ParseISODate.
var isoLayouts = []string{
	DateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339,
	time.RFC3339Nano,
}

// spreadsheet exports tend to use these
var legacyDateLayouts = []string{"02-01-2006", "01/02/2006"}

var currencyPrinter = message.NewPrinter(language.English)

// NormalizeKey is the lookup form of a center or child name:
// lower-cased with whitespace and apostrophes removed.
func NormalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsSpace(r) || r == '\'' || r == '’' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SameCenter compares centers ignoring case and surrounding whitespace.
func SameCenter(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func SplitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, str := range slice {
		if _, ok := inResult[str]; !ok {
			inResult[str] = true
			result = append(result, str)
		}
	}
	return result
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}
	return decimal.NewFromString(value)
}

// ParseAmount is ParseDecimal that also tolerates a currency sign and
// thousands separators, as found in imported sheets.
func ParseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "$")
	value = strings.ReplaceAll(value, ",", "")
	return ParseDecimal(value)
}

// ParseISODate accepts an ISO-8601 calendar date, optionally with a time part.
func ParseISODate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date string")
	}
	var lastErr error
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ParseFlexibleDate is ParseISODate plus DD-MM-YYYY and MM/DD/YYYY.
func ParseFlexibleDate(value string) (time.Time, error) {
	t, err := ParseISODate(value)
	if err == nil {
		return t, nil
	}
	for _, layout := range legacyDateLayouts {
		if t, lerr := time.Parse(layout, strings.TrimSpace(value)); lerr == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// DateOnly drops the clock part, keeping the calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// FormatCurrency renders $1,234.50.
func FormatCurrency(amount decimal.Decimal) string {
	return currencyPrinter.Sprintf("$%.2f", amount.Round(2).InexactFloat64())
}
