package dataset

import (
	"strings"
	"testing"
)

func TestRegionLabel(t *testing.T) {
	cases := map[string]string{
		"http://dbpedia.org/resource/Beirut": "Beirut",
		"http://x/Mount_Lebanon":             "Mount Lebanon",
		"":                                   "",
		"North_Governorate":                  "North Governorate",
		"http://x/":                          "",
	}
	for in, want := range cases {
		if got := RegionLabel(in); got != want {
			t.Errorf("RegionLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDominantFamilySize(t *testing.T) {
	if got := DominantFamilySize(Some(5), Some(9), Some(2)); got != FamilyMedium {
		t.Fatalf("got %q", got)
	}
	if got := DominantFamilySize(Some(1), Some(2), Some(9)); got != FamilyLarge {
		t.Fatalf("got %q", got)
	}
	if got := DominantFamilySize(Some(7), Some(7), Some(7)); got != FamilySmall {
		t.Fatalf("tie: got %q", got)
	}
	if got := DominantFamilySize(Missing, Some(1), Some(1)); got != FamilyMedium {
		t.Fatalf("missing first: got %q", got)
	}
	if got := DominantFamilySize(Missing, Missing, Missing); got != "" {
		t.Fatalf("all missing: got %q", got)
	}
}

func TestFamilySizeMatchingNormalizesDashes(t *testing.T) {
	if !SameFamilySize("4-6", "4–6") {
		t.Fatalf("4-6 and 4–6 should match")
	}
	if !SameFamilySize(" 1–3 ", "1-3") {
		t.Fatalf("whitespace should be ignored")
	}
	if SameFamilySize("4-6", "7+") {
		t.Fatalf("different buckets matched")
	}
}

// threeRowTable has regions {A, A, B} and dominant sizes {1–3, 4–6, 4–6}.
func threeRowTable(t *testing.T) *Table {
	t.Helper()
	csv := fixtureHeader + "\n" +
		"t1,http://x/A,50,50,10,20,9,1,1,o1\n" +
		"t2,http://x/A,51,49,11,25,1,9,1,o2\n" +
		"t3,http://x/B,52,48,12,30,1,9,1,o3\n"
	raw, err := ReadCSV(strings.NewReader(csv), DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	tbl, err := Prepare(raw)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	return tbl
}

func towns(tbl *Table) []string {
	var out []string
	for _, r := range tbl.Records() {
		out = append(out, r.Town)
	}
	return out
}

func TestFilterEndToEnd(t *testing.T) {
	tbl := threeRowTable(t)
	if got := towns(tbl.Filter(Filter{Regions: []string{"A"}})); !equalStrings(got, []string{"t1", "t2"}) {
		t.Fatalf("region A: %q", got)
	}
	if got := towns(tbl.Filter(Filter{FamilySize: "4–6"})); !equalStrings(got, []string{"t2", "t3"}) {
		t.Fatalf("size 4–6: %q", got)
	}
	if got := towns(tbl.Filter(Filter{FamilySize: "4-6"})); !equalStrings(got, []string{"t2", "t3"}) {
		t.Fatalf("size 4-6: %q", got)
	}
}

func TestFilterRegionSemantics(t *testing.T) {
	tbl := threeRowTable(t)
	if got := tbl.Filter(AllRegions()).Len(); got != 3 {
		t.Fatalf("nil regions should select all, got %d", got)
	}
	none := tbl.Filter(Filter{Regions: []string{}})
	if !none.Empty() {
		t.Fatalf("empty region set should select none, got %d", none.Len())
	}
}

func TestFilterTownsAndRange(t *testing.T) {
	tbl := threeRowTable(t)
	if got := tbl.Filter(Filter{Towns: []string{}}).Len(); got != 3 {
		t.Fatalf("empty towns should not restrict, got %d", got)
	}
	if got := towns(tbl.Filter(Filter{Towns: []string{"t3", "nope"}})); !equalStrings(got, []string{"t3"}) {
		t.Fatalf("towns: %q", got)
	}
	rng := &ValueRange{Column: Youth, Lo: 20, Hi: 25}
	if got := towns(tbl.Filter(Filter{Range: rng})); !equalStrings(got, []string{"t1", "t2"}) {
		t.Fatalf("inclusive range: %q", got)
	}
	combined := Filter{Regions: []string{"A", "B"}, Towns: []string{"t2", "t3"}, Range: &ValueRange{Column: Women, Lo: 52, Hi: 100}}
	if got := towns(tbl.Filter(combined)); !equalStrings(got, []string{"t3"}) {
		t.Fatalf("combined: %q", got)
	}
}

func TestFilterRangeExcludesMissing(t *testing.T) {
	tbl := prepareFixture(t)
	got := tbl.Filter(Filter{Range: &ValueRange{Column: Elderly, Lo: 0, Hi: 100}})
	for _, r := range got.Records() {
		if r.Town == "Tyre" {
			t.Fatalf("row with missing elderly matched a range")
		}
	}
	if got.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", got.Len())
	}
}

func TestFilterIsSubsetAndIdempotent(t *testing.T) {
	tbl := prepareFixture(t)
	f := Filter{Regions: []string{"Mount Lebanon", "Beirut"}, Range: &ValueRange{Column: Youth, Lo: 10, Hi: 100}}
	once := tbl.Filter(f)
	twice := once.Filter(f)
	if once.Len() != twice.Len() {
		t.Fatalf("not idempotent: %d vs %d", once.Len(), twice.Len())
	}
	src := map[string]Record{}
	for _, r := range tbl.Records() {
		src[r.Town] = r
	}
	for i, r := range once.Records() {
		orig, ok := src[r.Town]
		if !ok {
			t.Fatalf("row %q not in source", r.Town)
		}
		if orig.PctYouth != r.PctYouth || orig.Region != r.Region || orig.DominantFamilySize != r.DominantFamilySize {
			t.Fatalf("row %q changed under filtering", r.Town)
		}
		if twice.Row(i).Town != r.Town {
			t.Fatalf("order changed on second filter")
		}
	}
	if tbl.Len() != 4 {
		t.Fatalf("source mutated: %d rows", tbl.Len())
	}
}

func TestFilterValidate(t *testing.T) {
	if err := (Filter{FamilySize: "4-6"}).Validate(); err != nil {
		t.Fatalf("valid size: %v", err)
	}
	if err := (Filter{FamilySize: "All"}).Validate(); err != nil {
		t.Fatalf("All: %v", err)
	}
	if err := (Filter{FamilySize: "8-10"}).Validate(); err == nil {
		t.Fatalf("expected invalid size error")
	}
	if err := (Filter{Range: &ValueRange{Column: Youth, Lo: 5, Hi: 1}}).Validate(); err == nil {
		t.Fatalf("expected inverted range error")
	}
	if err := (Filter{Range: &ValueRange{Lo: 0, Hi: 1}}).Validate(); err == nil {
		t.Fatalf("expected unknown column error")
	}
}

func TestOptionLists(t *testing.T) {
	tbl := prepareFixture(t)
	if got := tbl.Regions(); !equalStrings(got, []string{"Beirut", "Mount Lebanon", "South Governorate"}) {
		t.Fatalf("regions: %q", got)
	}
	if got := tbl.Towns([]string{"Mount Lebanon"}); !equalStrings(got, []string{"Jounieh"}) {
		t.Fatalf("towns: %q", got)
	}
	if got := tbl.Towns(nil); len(got) != 4 {
		t.Fatalf("all towns: %q", got)
	}
	lo, hi, ok := tbl.Extent(Youth)
	if !ok || lo != 12 || hi != 100 {
		t.Fatalf("extent: %v %v %v", lo, hi, ok)
	}
}

func TestTownsAndFilterAgreeOnDecomposedRegion(t *testing.T) {
	decomposed := "Beqa\u0301a"
	csv := fixtureHeader + "\n" +
		"Zahle,http://x/" + decomposed + ",51,49,11,20,3,3,3,o1\n" +
		"Jounieh,http://x/Mount_Lebanon,49,51,10,15,5,9,2,o2\n"
	raw, err := ReadCSV(strings.NewReader(csv), DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	tbl, err := Prepare(raw)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	sel := []string{"Beq\u00e1a"}
	rows := tbl.Filter(Filter{Regions: sel})
	if got := towns(rows); !equalStrings(got, []string{"Zahle"}) {
		t.Fatalf("filter: %q", got)
	}
	if got := tbl.Towns(sel); !equalStrings(got, []string{"Zahle"}) {
		t.Fatalf("towns: %q", got)
	}
}

func TestParseValueColumn(t *testing.T) {
	for in, want := range map[string]ValueColumn{
		"youth":               Youth,
		"pct_elderly_65plus":  Elderly,
		" Percentage of Men ": Men,
		"WOMEN":               Women,
	} {
		got, err := ParseValueColumn(in)
		if err != nil || got != want {
			t.Errorf("ParseValueColumn(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseValueColumn("kids"); err == nil {
		t.Fatalf("expected error")
	}
}
