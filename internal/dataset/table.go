package dataset

import (
	"math"
	"sort"
)

// EmptyStateMessage is what presentation layers show for a zero-row view.
const EmptyStateMessage = "No data available for this selection."

// RawTable is an untyped tabular source: a header row and string cells.
type RawTable struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Table is a prepared, immutable dataset. Filtering returns new tables that
// share the underlying records; nothing mutates a Table after Prepare.
type Table struct {
	name    string
	header  []string
	records []Record
	dropped int
}

// Name is the base name of the source the table was prepared from.
func (t *Table) Name() string { return t.name }

// Len is the number of rows.
func (t *Table) Len() int { return len(t.records) }

// Empty reports whether the table has no rows. Callers render EmptyStateMessage.
func (t *Table) Empty() bool { return len(t.records) == 0 }

// Dropped is the number of source rows excluded as incomplete (youth <= 0).
func (t *Table) Dropped() int { return t.dropped }

// Header returns the trimmed source header followed by the derived columns.
func (t *Table) Header() []string {
	out := make([]string, len(t.header))
	copy(out, t.header)
	return out
}

// Row returns a copy of the i-th record.
func (t *Table) Row(i int) Record {
	return cloneRecord(t.records[i])
}

// Records returns a copy of all rows in source order.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	for i, r := range t.records {
		out[i] = cloneRecord(r)
	}
	return out
}

func cloneRecord(r Record) Record {
	if r.Source != nil {
		src := make([]string, len(r.Source))
		copy(src, r.Source)
		r.Source = src
	}
	return r
}

// Regions returns the sorted distinct non-empty region labels.
func (t *Table) Regions() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range t.records {
		if r.Region == "" {
			continue
		}
		if _, ok := seen[r.Region]; ok {
			continue
		}
		seen[r.Region] = struct{}{}
		out = append(out, r.Region)
	}
	sort.Strings(out)
	return out
}

// Towns returns the sorted distinct towns within the given regions. A nil
// regions slice means every region.
func (t *Table) Towns(regions []string) []string {
	var allowed map[string]struct{}
	if regions != nil {
		allowed = toSet(regions, canonicalName)
	}
	seen := map[string]struct{}{}
	var out []string
	for _, r := range t.records {
		if r.Town == "" {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[canonicalName(r.Region)]; !ok {
				continue
			}
		}
		if _, ok := seen[r.Town]; ok {
			continue
		}
		seen[r.Town] = struct{}{}
		out = append(out, r.Town)
	}
	sort.Strings(out)
	return out
}

// Extent returns the min and max of a percentage column over present values.
// ok is false when the column has no values.
func (t *Table) Extent(c ValueColumn) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, r := range t.records {
		v := r.Value(c)
		if !v.Valid {
			continue
		}
		ok = true
		lo = math.Min(lo, v.Value)
		hi = math.Max(hi, v.Value)
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

// subset builds a view over the given records, keeping provenance.
func (t *Table) subset(recs []Record) *Table {
	return &Table{name: t.name, header: t.header, records: recs, dropped: t.dropped}
}

func toSet(vals []string, canon func(string) string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[canon(v)] = struct{}{}
	}
	return m
}
