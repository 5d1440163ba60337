package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// Source headers as they appear in the demographic CSV (after trimming).
const (
	ColTown      = "Town"
	ColRegionRef = "refArea"
	ColWomen     = "Percentage of Women"
	ColMen       = "Percentage of Men"
	// The published dataset misspells "Elderly"; both spellings are accepted.
	ColElderly      = "Percentage of Eldelry - 65 or more years"
	ColElderlyAlias = "Percentage of Elderly - 65 or more years"
	ColYouth        = "Percentage of Youth - 15-24 years"
	ColFamily1to3   = "Average family size - 1 to 3 members"
	ColFamily4to6   = "Average family size - 4 to 6 members"
	ColFamily7Plus  = "Average family size - 7 or more members"
)

// Derived column names appended to the prepared header.
const (
	ColRegion       = "Region"
	ColGenderGap    = "Gender gap (W - M)"
	ColAbsGenderGap = "Abs gender gap"
	ColDominantSize = "Dominant size"
)

// RequiredColumns lists the headers Prepare looks up, in reporting order.
var RequiredColumns = []string{
	ColTown, ColRegionRef, ColWomen, ColMen, ColElderly, ColYouth,
	ColFamily1to3, ColFamily4to6, ColFamily7Plus,
}

var columnAliases = map[string][]string{
	ColElderly: {ColElderlyAlias},
}

// SchemaError reports a required column missing from the input header.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required column %q", e.Column)
}

// ErrUnknownColumn is returned when a value column name is not recognized.
var ErrUnknownColumn = errors.New("unknown value column")

// ValueColumn identifies one of the four clamped percentage columns.
type ValueColumn int

const (
	Women ValueColumn = iota + 1
	Men
	Elderly
	Youth
)

// ValueColumns lists the percentage columns in source order.
var ValueColumns = []ValueColumn{Women, Men, Elderly, Youth}

// Name is the short identifier used in flags, config and query strings.
func (c ValueColumn) Name() string {
	switch c {
	case Women:
		return "women"
	case Men:
		return "men"
	case Elderly:
		return "elderly"
	case Youth:
		return "youth"
	}
	return ""
}

// Header is the source header of the column.
func (c ValueColumn) Header() string {
	switch c {
	case Women:
		return ColWomen
	case Men:
		return ColMen
	case Elderly:
		return ColElderly
	case Youth:
		return ColYouth
	}
	return ""
}

// Label is a human-friendly axis label.
func (c ValueColumn) Label() string {
	switch c {
	case Women:
		return "Percentage of Women"
	case Men:
		return "Percentage of Men"
	case Elderly:
		return "Percentage of Elderly (65+ years)"
	case Youth:
		return "Percentage of Youth (15–24 years)"
	}
	return ""
}

func (c ValueColumn) String() string { return c.Name() }

func (c ValueColumn) MarshalText() ([]byte, error) {
	if c.Name() == "" {
		return nil, fmt.Errorf("%w: %d", ErrUnknownColumn, int(c))
	}
	return []byte(c.Name()), nil
}

func (c *ValueColumn) UnmarshalText(b []byte) error {
	v, err := ParseValueColumn(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseValueColumn accepts a short name ("youth"), a JSON field name
// ("pct_youth_15_24") or a source header.
func ParseValueColumn(s string) (ValueColumn, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "women", "pct_women", strings.ToLower(ColWomen):
		return Women, nil
	case "men", "pct_men", strings.ToLower(ColMen):
		return Men, nil
	case "elderly", "eldelry", "pct_elderly_65plus", strings.ToLower(ColElderly), strings.ToLower(ColElderlyAlias):
		return Elderly, nil
	case "youth", "pct_youth_15_24", strings.ToLower(ColYouth):
		return Youth, nil
	}
	return 0, fmt.Errorf("%w: %q (use women|men|elderly|youth)", ErrUnknownColumn, s)
}

// headerIndex maps trimmed header names to positions, resolving aliases.
type headerIndex map[string]int

func indexHeader(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	return idx
}

func (h headerIndex) lookup(col string) (int, bool) {
	if i, ok := h[col]; ok {
		return i, true
	}
	for _, alias := range columnAliases[col] {
		if i, ok := h[alias]; ok {
			return i, true
		}
	}
	return 0, false
}
