package report

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/demograph-cli/internal/dataset"
)

var csvRows = []string{
	"Town,refArea,Percentage of Women,Percentage of Men,Percentage of Eldelry - 65 or more years,Percentage of Youth - 15-24 years,Average family size - 1 to 3 members,Average family size - 4 to 6 members,Average family size - 7 or more members",
	"Achrafieh,http://dbpedia.org/resource/Beirut,52,48,18,12,5,3,1",
	"Ras Beirut,http://dbpedia.org/resource/Beirut,53,47,20,14,6,2,1",
	"Jounieh,http://dbpedia.org/resource/Mount_Lebanon,49,51,10,15,5,9,2",
	"Baabda,http://dbpedia.org/resource/Mount_Lebanon,50,50,12,0,2,9,1",
	"Tyre,http://dbpedia.org/resource/South_Governorate,51,49,x,30,1,4,4",
}

func loadTable(t *testing.T, rows []string) *dataset.Table {
	t.Helper()
	raw, err := dataset.ReadCSV(strings.NewReader(strings.Join(rows, "\n")), dataset.DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	raw.Name = "demograph.csv"
	tbl, err := dataset.Prepare(raw)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	return tbl
}

func TestBuildAndMarkdown(t *testing.T) {
	tbl := loadTable(t, csvRows)
	rep := Build("", tbl)
	if rep.Name != "demograph.csv" || rep.Rows != 4 || rep.Dropped != 1 {
		t.Fatalf("header fields: %+v", rep)
	}
	if len(rep.Regions) != 3 || rep.Regions[0].Region != "Beirut" || rep.Regions[0].Towns != 2 {
		t.Fatalf("regions: %+v", rep.Regions)
	}
	if rep.Missing["elderly"] != 1 {
		t.Fatalf("missing elderly: %v", rep.Missing)
	}
	if rep.Gap.MaxAbsTown != "Ras Beirut" || rep.Gap.MaxAbs != 6 {
		t.Fatalf("gap: %+v", rep.Gap)
	}

	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: demograph.csv",
		"Rows: 4 (dropped 1 incomplete)",
		"[REGIONS]",
		"- Beirut (n=2): youth mean 13,",
		"[FAMILY SIZE COMPOSITION]",
		"- Mount Lebanon (n=1): 4–6 1 (100%)",
		"[YOUTH DISTRIBUTION]",
		"[ELDERLY DISTRIBUTION]",
		"[GENDER GAP]",
		"- largest |W - M|: 6 (Ras Beirut)",
		"[NOTES]",
		"dropped 1 rows with youth percentage <= 0 or missing",
		"1 non-numeric values in Percentage of Eldelry - 65 or more years treated as missing",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdownEmptyState(t *testing.T) {
	tbl := loadTable(t, csvRows).Filter(dataset.Filter{Regions: []string{"Nowhere"}})
	md := Build("view", tbl).Markdown()
	if !strings.Contains(md, dataset.EmptyStateMessage) {
		t.Fatalf("expected empty state message:\n%s", md)
	}
	if strings.Contains(md, "[REGIONS]") {
		t.Fatalf("empty report should not list regions:\n%s", md)
	}
	if !strings.Contains(md, "File: view") {
		t.Fatalf("name override ignored:\n%s", md)
	}
}
