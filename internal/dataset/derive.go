package dataset

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Family-size category labels. The en dash is canonical.
const (
	FamilySmall  = "1–3"
	FamilyMedium = "4–6"
	FamilyLarge  = "7+"
)

// FamilySizes lists the categories in tie-break order.
var FamilySizes = []string{FamilySmall, FamilyMedium, FamilyLarge}

// RegionLabel turns a region reference such as
// "http://dbpedia.org/resource/Mount_Lebanon" into "Mount Lebanon".
// An empty reference is returned unchanged.
func RegionLabel(ref string) string {
	if ref == "" {
		return ref
	}
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		ref = ref[i+1:]
	}
	return strings.ReplaceAll(ref, "_", " ")
}

// DominantFamilySize returns the label of the largest of the three averages.
// Ties resolve to the earlier bucket; missing values are skipped. If all
// three are missing the result is "".
func DominantFamilySize(small, medium, large Float) string {
	label := ""
	var best float64
	for i, v := range []Float{small, medium, large} {
		if !v.Valid {
			continue
		}
		if label == "" || v.Value > best {
			label = FamilySizes[i]
			best = v.Value
		}
	}
	return label
}

// NormalizeFamilySize canonicalizes a category for matching: "4-6", " 4–6 "
// and "4–6" all compare equal.
func NormalizeFamilySize(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "–", "-")
}

// SameFamilySize reports whether two category labels denote the same bucket.
func SameFamilySize(a, b string) bool {
	return NormalizeFamilySize(a) == NormalizeFamilySize(b)
}

func genderGap(women, men Float) (gap, abs Float) {
	if !women.Valid || !men.Valid {
		return Missing, Missing
	}
	d := women.Value - men.Value
	if d < 0 {
		return Some(d), Some(-d)
	}
	return Some(d), Some(d)
}
