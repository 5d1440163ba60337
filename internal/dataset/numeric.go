package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Options controls how source files are read and coerced.
type Options struct {
	// Delimiter for CSV. If 0, picks '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// DecimalSeparator for numeric cells. If 0, auto-detect per value.
	DecimalSeparator rune
	// ThousandsSeparator is optional. When set, it is removed only where it splits
	// the integer part into groups of three; when 0, any grouping makes the cell Missing.
	ThousandsSeparator rune
	// XLSX sheet selection. SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns the options used for the published dataset.
func DefaultOptions() Options {
	return Options{
		DecimalSeparator: '.',
		SheetIndex:       1,
	}
}

// coerce parses a cell leniently; anything unparseable is Missing.
func coerce(s string, opt Options) Float {
	if v, ok := parseNumeric(s, opt); ok {
		return Some(v)
	}
	return Missing
}

func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.ReplaceAll(s, "%", "")
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "\u00A0", " "))
	if raw == "" {
		return 0, false
	}
	dec, thou := opt.DecimalSeparator, opt.ThousandsSeparator
	if dec == 0 {
		dec, thou = detectSeparators(raw, thou)
	}
	if thou != 0 && thou != dec && strings.ContainsRune(raw, thou) {
		var ok bool
		if raw, ok = stripGrouping(raw, thou, dec); !ok {
			return 0, false
		}
	}
	if dec != '.' {
		if strings.ContainsRune(raw, '.') {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	if !plainDecimal(raw) {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// detectSeparators guesses the decimal separator from the last of ',' and '.'.
// When both appear the other one is taken as the thousands separator.
func detectSeparators(raw string, thou rune) (rune, rune) {
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0:
		if thou != 0 {
			if thou == ',' {
				return '.', thou
			}
			return ',', thou
		}
		if cpos > dpos {
			return ',', '.'
		}
		return '.', ','
	case cpos >= 0 && thou != ',':
		return ',', thou
	default:
		return '.', thou
	}
}

// stripGrouping removes thou from the integer part when it splits it into
// proper groups of three ("1,234,567"). Anything else is rejected.
func stripGrouping(raw string, thou, dec rune) (string, bool) {
	sign := ""
	if strings.HasPrefix(raw, "-") || strings.HasPrefix(raw, "+") {
		sign, raw = raw[:1], raw[1:]
	}
	intPart, rest := raw, ""
	if i := strings.IndexRune(raw, dec); i >= 0 {
		intPart, rest = raw[:i], raw[i:]
	}
	if strings.ContainsRune(rest, thou) {
		return "", false
	}
	groups := strings.Split(intPart, string(thou))
	for i, g := range groups {
		if !allDigits(g) {
			return "", false
		}
		if (i == 0 && len(g) > 3) || (i > 0 && len(g) != 3) {
			return "", false
		}
	}
	return sign + strings.Join(groups, "") + rest, true
}

// plainDecimal accepts only digits, sign, point and exponent characters, so
// spellings like "Inf", "NaN" or hex floats are not numbers here.
func plainDecimal(s string) bool {
	digits := false
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			digits = true
		case c == '.', c == '+', c == '-', c == 'e', c == 'E':
		default:
			return false
		}
	}
	return digits
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
