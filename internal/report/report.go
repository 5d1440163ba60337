package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/demograph-cli/internal/dataset"
)

// Report is a markdown-friendly summary of a prepared table.
type Report struct {
	Name     string
	Rows     int
	Dropped  int
	Regions  []RegionSummary
	Sunburst []dataset.SunburstNode
	Youth    []dataset.BoxSummary
	Elderly  []dataset.BoxSummary
	Gap      GapSummary
	Missing  map[string]int // by value column name
	Warnings []string
}

// RegionSummary is the per-region row count and mean percentages.
type RegionSummary struct {
	Region      string
	Towns       int
	MeanYouth   float64
	MeanElderly float64
	MeanGap     float64
}

// GapSummary describes the women-minus-men gap across all towns.
type GapSummary struct {
	Count      int
	Mean       float64
	MeanAbs    float64
	MaxAbs     float64
	MaxAbsTown string
}

// Build computes the report for t. name overrides the table's own name when set.
func Build(name string, t *dataset.Table) *Report {
	if name == "" {
		name = t.Name()
	}
	r := &Report{
		Name:     name,
		Rows:     t.Len(),
		Dropped:  t.Dropped(),
		Sunburst: dataset.Sunburst(t),
		Youth:    dataset.BoxStats(t, dataset.Youth, dataset.PointsOutliers),
		Elderly:  dataset.BoxStats(t, dataset.Elderly, dataset.PointsOutliers),
		Missing:  map[string]int{},
	}

	type acc struct {
		n                   int
		youth, elderly, gap float64
		ny, ne, ng          int
	}
	byRegion := map[string]*acc{}
	noRegion := 0
	noSize := 0
	for _, rec := range t.Records() {
		for _, c := range dataset.ValueColumns {
			if !rec.Value(c).Valid {
				r.Missing[c.Name()]++
			}
		}
		if rec.DominantFamilySize == "" {
			noSize++
		}
		if rec.GenderGap.Valid {
			r.Gap.Count++
			r.Gap.Mean += rec.GenderGap.Value
			r.Gap.MeanAbs += rec.AbsGenderGap.Value
			if rec.AbsGenderGap.Value > r.Gap.MaxAbs || r.Gap.MaxAbsTown == "" {
				r.Gap.MaxAbs = rec.AbsGenderGap.Value
				r.Gap.MaxAbsTown = rec.Town
			}
		}
		if rec.Region == "" {
			noRegion++
			continue
		}
		a := byRegion[rec.Region]
		if a == nil {
			a = &acc{}
			byRegion[rec.Region] = a
		}
		a.n++
		if rec.PctYouth.Valid {
			a.youth += rec.PctYouth.Value
			a.ny++
		}
		if rec.PctElderly.Valid {
			a.elderly += rec.PctElderly.Value
			a.ne++
		}
		if rec.GenderGap.Valid {
			a.gap += rec.GenderGap.Value
			a.ng++
		}
	}
	if r.Gap.Count > 0 {
		r.Gap.Mean /= float64(r.Gap.Count)
		r.Gap.MeanAbs /= float64(r.Gap.Count)
	}
	for region, a := range byRegion {
		r.Regions = append(r.Regions, RegionSummary{
			Region:      region,
			Towns:       a.n,
			MeanYouth:   safeMean(a.youth, a.ny),
			MeanElderly: safeMean(a.elderly, a.ne),
			MeanGap:     safeMean(a.gap, a.ng),
		})
	}
	sort.Slice(r.Regions, func(i, j int) bool {
		if r.Regions[i].Towns == r.Regions[j].Towns {
			return r.Regions[i].Region < r.Regions[j].Region
		}
		return r.Regions[i].Towns > r.Regions[j].Towns
	})

	if r.Dropped > 0 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("dropped %d rows with youth percentage <= 0 or missing", r.Dropped))
	}
	if noRegion > 0 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%d rows have an empty refArea and no region", noRegion))
	}
	if noSize > 0 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%d rows have no family-size values", noSize))
	}
	for _, c := range dataset.ValueColumns {
		if n := r.Missing[c.Name()]; n > 0 {
			r.Warnings = append(r.Warnings, fmt.Sprintf("%d non-numeric values in %s treated as missing", n, c.Header()))
		}
	}
	return r
}

func safeMean(sum float64, n int) float64 {
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Markdown renders the report with bracketed section headings.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	if r.Dropped > 0 {
		b.WriteString(fmt.Sprintf("Rows: %d (dropped %d incomplete)\n", r.Rows, r.Dropped))
	} else {
		b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	}
	b.WriteString(fmt.Sprintf("Regions: %d\n", len(r.Regions)))
	if r.Rows == 0 {
		b.WriteString("\n")
		b.WriteString(dataset.EmptyStateMessage)
		b.WriteString("\n")
		r.writeNotes(&b)
		return b.String()
	}

	b.WriteString("\n[REGIONS]\n")
	for _, g := range r.Regions {
		b.WriteString(fmt.Sprintf("- %s (n=%d): youth mean %s, elderly mean %s, gender gap mean %s\n",
			safeVal(g.Region), g.Towns, num(g.MeanYouth), num(g.MeanElderly), num(g.MeanGap)))
	}

	if len(r.Sunburst) > 0 {
		b.WriteString("\n[FAMILY SIZE COMPOSITION]\n")
		for _, n := range r.Sunburst {
			b.WriteString(fmt.Sprintf("- %s (n=%d): ", safeVal(n.Region), n.Total))
			for i, s := range n.Sizes {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s %d (%.0f%%)", s.Size, s.Count, float64(s.Count)*100/float64(n.Total)))
			}
			b.WriteString("\n")
		}
	}

	writeBoxes(&b, "[YOUTH DISTRIBUTION]", r.Youth)
	writeBoxes(&b, "[ELDERLY DISTRIBUTION]", r.Elderly)

	if r.Gap.Count > 0 {
		b.WriteString("\n[GENDER GAP]\n")
		b.WriteString(fmt.Sprintf("- mean (W - M): %.4g\n", r.Gap.Mean))
		b.WriteString(fmt.Sprintf("- mean |W - M|: %.4g\n", r.Gap.MeanAbs))
		b.WriteString(fmt.Sprintf("- largest |W - M|: %.4g (%s)\n", r.Gap.MaxAbs, safeVal(r.Gap.MaxAbsTown)))
	}
	r.writeNotes(&b)
	return b.String()
}

func (r *Report) writeNotes(b *strings.Builder) {
	if len(r.Warnings) == 0 {
		return
	}
	b.WriteString("\n[NOTES]\n")
	for _, w := range r.Warnings {
		b.WriteString("- ")
		b.WriteString(w)
		b.WriteString("\n")
	}
}

func writeBoxes(b *strings.Builder, title string, boxes []dataset.BoxSummary) {
	if len(boxes) == 0 {
		return
	}
	b.WriteString("\n")
	b.WriteString(title)
	b.WriteString("\n")
	for _, x := range boxes {
		b.WriteString(fmt.Sprintf("- %s (n=%d): min %.4g, q1 %.4g, median %.4g, q3 %.4g, max %.4g, mean %.4g",
			safeVal(x.Region), x.Count, x.Min, x.Q1, x.Median, x.Q3, x.Max, x.Mean))
		if len(x.Points) > 0 {
			names := make([]string, len(x.Points))
			for i, p := range x.Points {
				names[i] = fmt.Sprintf("%s %.4g", safeVal(p.Town), p.Value)
			}
			b.WriteString("; outliers: ")
			b.WriteString(strings.Join(names, ", "))
		}
		b.WriteString("\n")
	}
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.4g", v)
}

func safeVal(s string) string {
	s = strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
	if strings.TrimSpace(s) == "" {
		return "(unnamed)"
	}
	return s
}
