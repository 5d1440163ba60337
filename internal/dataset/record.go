package dataset

import (
	"encoding/json"
	"math"
	"strconv"
)

// Float is a numeric cell that may be missing. Missing values serialize to JSON null.
type Float struct {
	Value float64
	Valid bool
}

// Some wraps a present value.
func Some(v float64) Float { return Float{Value: v, Valid: true} }

// Missing is the marker for a value that could not be coerced.
var Missing = Float{}

// Clamp limits a present value to [lo, hi]; missing values stay missing.
func (f Float) Clamp(lo, hi float64) Float {
	if !f.Valid {
		return f
	}
	return Some(math.Min(math.Max(f.Value, lo), hi))
}

// String renders the value for tabular output; missing is the empty string.
func (f Float) String() string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Value, 'f', -1, 64)
}

func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

func (f *Float) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Missing
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Some(v)
	return nil
}

// Record is one prepared town-level observation.
type Record struct {
	Town      string `json:"town"`
	RegionURI string `json:"region_uri"`
	Region    string `json:"region"`

	PctWomen   Float `json:"pct_women"`
	PctMen     Float `json:"pct_men"`
	PctElderly Float `json:"pct_elderly_65plus"`
	PctYouth   Float `json:"pct_youth_15_24"`

	AvgFamily1to3  Float `json:"avg_family_1_3"`
	AvgFamily4to6  Float `json:"avg_family_4_6"`
	AvgFamily7Plus Float `json:"avg_family_7plus"`

	GenderGap          Float  `json:"gender_gap"`
	AbsGenderGap       Float  `json:"abs_gender_gap"`
	DominantFamilySize string `json:"dominant_family_size"`

	// Source holds the original cells aligned with Table.Header().
	Source []string `json:"-"`
}

// Value returns the record's value for one of the percentage columns.
func (r Record) Value(c ValueColumn) Float {
	switch c {
	case Women:
		return r.PctWomen
	case Men:
		return r.PctMen
	case Elderly:
		return r.PctElderly
	case Youth:
		return r.PctYouth
	}
	return Missing
}
