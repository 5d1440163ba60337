package dataset

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// AllFamilySizes is the category selection that applies no restriction.
const AllFamilySizes = "All"

// ValueRange is a closed interval on one percentage column.
type ValueRange struct {
	Column ValueColumn `json:"column" yaml:"column"`
	Lo     float64     `json:"lo" yaml:"lo"`
	Hi     float64     `json:"hi" yaml:"hi"`
}

// Contains reports whether v lies in [Lo, Hi]. Missing values never match.
func (r ValueRange) Contains(v Float) bool {
	return v.Valid && v.Value >= r.Lo && v.Value <= r.Hi
}

// Filter selects a row subset of a Table.
//
// Regions: nil selects every region; a non-nil empty slice selects none.
// Towns: nil or empty applies no town restriction.
// FamilySize: "" or "All" applies no restriction; otherwise matched with
// NormalizeFamilySize so "4-6" and "4–6" are the same category.
type Filter struct {
	Regions    []string    `json:"regions" yaml:"regions"`
	Towns      []string    `json:"towns,omitempty" yaml:"towns,omitempty"`
	Range      *ValueRange `json:"range,omitempty" yaml:"range,omitempty"`
	FamilySize string      `json:"family_size,omitempty" yaml:"family_size,omitempty"`
}

// AllRegions is the explicit "every region selected" filter.
func AllRegions() Filter { return Filter{} }

// Validate checks the range and family-size values.
func (f Filter) Validate() error {
	if f.Range != nil {
		if f.Range.Column.Name() == "" {
			return fmt.Errorf("%w: %d", ErrUnknownColumn, int(f.Range.Column))
		}
		if f.Range.Lo > f.Range.Hi {
			return fmt.Errorf("invalid range: lo %.4g is greater than hi %.4g", f.Range.Lo, f.Range.Hi)
		}
	}
	if f.restrictsFamilySize() {
		ok := false
		for _, s := range FamilySizes {
			if SameFamilySize(s, f.FamilySize) {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("invalid family size %q (use 1-3|4-6|7+|All)", f.FamilySize)
		}
	}
	return nil
}

func (f Filter) restrictsFamilySize() bool {
	s := strings.TrimSpace(f.FamilySize)
	return s != "" && !strings.EqualFold(s, AllFamilySizes)
}

// Filter returns the rows of t matching f. The receiver is not modified and
// every returned row is identical to its source row.
func (t *Table) Filter(f Filter) *Table {
	m := f.matcher()
	out := make([]Record, 0, len(t.records))
	for _, r := range t.records {
		if m(r) {
			out = append(out, r)
		}
	}
	return t.subset(out)
}

func (f Filter) matcher() func(Record) bool {
	var regions, towns map[string]struct{}
	if f.Regions != nil {
		regions = toSet(f.Regions, canonicalName)
	}
	if len(f.Towns) > 0 {
		towns = toSet(f.Towns, canonicalName)
	}
	size := ""
	if f.restrictsFamilySize() {
		size = NormalizeFamilySize(f.FamilySize)
	}
	rng := f.Range
	return func(r Record) bool {
		if regions != nil {
			if _, ok := regions[canonicalName(r.Region)]; !ok {
				return false
			}
		}
		if towns != nil {
			if _, ok := towns[canonicalName(r.Town)]; !ok {
				return false
			}
		}
		if rng != nil && !rng.Contains(r.Value(rng.Column)) {
			return false
		}
		if size != "" && NormalizeFamilySize(r.DominantFamilySize) != size {
			return false
		}
		return true
	}
}

func canonicalName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
