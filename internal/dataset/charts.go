package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// SunburstNode is one region with its dominant-family-size breakdown.
type SunburstNode struct {
	Region string          `json:"region"`
	Total  int             `json:"total"`
	Sizes  []CategoryCount `json:"sizes"`
}

// CategoryCount is the number of towns in one family-size category.
type CategoryCount struct {
	Size  string `json:"size"`
	Count int    `json:"count"`
}

// Sunburst counts towns per region and dominant family size. Regions are
// sorted; categories follow 1–3, 4–6, 7+ and zero counts are omitted. Rows
// without a region or a dominant size are not counted.
func Sunburst(t *Table) []SunburstNode {
	counts := map[string]map[string]int{}
	for _, r := range t.records {
		if r.Region == "" || r.DominantFamilySize == "" {
			continue
		}
		m := counts[r.Region]
		if m == nil {
			m = map[string]int{}
			counts[r.Region] = m
		}
		m[NormalizeFamilySize(r.DominantFamilySize)]++
	}
	regions := make([]string, 0, len(counts))
	for k := range counts {
		regions = append(regions, k)
	}
	sort.Strings(regions)
	out := make([]SunburstNode, 0, len(regions))
	for _, region := range regions {
		node := SunburstNode{Region: region}
		for _, size := range FamilySizes {
			n := counts[region][NormalizeFamilySize(size)]
			if n == 0 {
				continue
			}
			node.Sizes = append(node.Sizes, CategoryCount{Size: size, Count: n})
			node.Total += n
		}
		out = append(out, node)
	}
	return out
}

// PointsMode selects which individual towns a box summary carries.
type PointsMode string

const (
	PointsAll      PointsMode = "all"
	PointsOutliers PointsMode = "outliers"
	PointsNone     PointsMode = "none"
)

// ParsePointsMode accepts the mode names plus the dashboard labels
// ("Outliers only") case-insensitively. Empty means all.
func ParsePointsMode(s string) (PointsMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return PointsAll, nil
	case "outliers", "outliers only":
		return PointsOutliers, nil
	case "none", "false":
		return PointsNone, nil
	}
	return "", fmt.Errorf("invalid points mode %q (use all|outliers|none)", s)
}

// BoxPoint is one town plotted on a box.
type BoxPoint struct {
	Town    string  `json:"town"`
	Value   float64 `json:"value"`
	Outlier bool    `json:"outlier"`
}

// BoxSummary holds the distribution of one column within one region.
// Whiskers follow the 1.5×IQR rule and are clamped to the observed data.
type BoxSummary struct {
	Region     string     `json:"region"`
	Count      int        `json:"count"`
	Min        float64    `json:"min"`
	Q1         float64    `json:"q1"`
	Median     float64    `json:"median"`
	Q3         float64    `json:"q3"`
	Max        float64    `json:"max"`
	Mean       float64    `json:"mean"`
	LowerFence float64    `json:"lower_fence"`
	UpperFence float64    `json:"upper_fence"`
	Points     []BoxPoint `json:"points,omitempty"`
}

// BoxStats summarizes column c per region, sorted by region. Missing values
// are skipped and regions with no values are omitted.
func BoxStats(t *Table, c ValueColumn, mode PointsMode) []BoxSummary {
	type sample struct {
		town  string
		value float64
	}
	byRegion := map[string][]sample{}
	for _, r := range t.records {
		v := r.Value(c)
		if !v.Valid || r.Region == "" {
			continue
		}
		byRegion[r.Region] = append(byRegion[r.Region], sample{town: r.Town, value: v.Value})
	}
	regions := make([]string, 0, len(byRegion))
	for k := range byRegion {
		regions = append(regions, k)
	}
	sort.Strings(regions)

	out := make([]BoxSummary, 0, len(regions))
	for _, region := range regions {
		samples := byRegion[region]
		vals := make([]float64, len(samples))
		sum := 0.0
		for i, s := range samples {
			vals[i] = s.value
			sum += s.value
		}
		sort.Float64s(vals)
		b := BoxSummary{
			Region: region,
			Count:  len(vals),
			Min:    vals[0],
			Q1:     quantile(vals, 0.25),
			Median: quantile(vals, 0.5),
			Q3:     quantile(vals, 0.75),
			Max:    vals[len(vals)-1],
			Mean:   sum / float64(len(vals)),
		}
		iqr := b.Q3 - b.Q1
		b.LowerFence = lowestAtLeast(vals, b.Q1-1.5*iqr)
		b.UpperFence = highestAtMost(vals, b.Q3+1.5*iqr)
		if mode != PointsNone {
			for _, s := range samples {
				outlier := s.value < b.LowerFence || s.value > b.UpperFence
				if mode == PointsOutliers && !outlier {
					continue
				}
				b.Points = append(b.Points, BoxPoint{Town: s.town, Value: s.value, Outlier: outlier})
			}
		}
		out = append(out, b)
	}
	return out
}

// quantile uses linear interpolation between closest ranks on sorted input.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func lowestAtLeast(sorted []float64, bound float64) float64 {
	for _, v := range sorted {
		if v >= bound {
			return v
		}
	}
	return sorted[len(sorted)-1]
}

func highestAtMost(sorted []float64, bound float64) float64 {
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] <= bound {
			return sorted[i]
		}
	}
	return sorted[0]
}
