package dataset

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeXLSXFixture builds a workbook whose "Data" sheet (sheet2) holds the
// CSV fixture as shared strings. Sheet1 is a decoy.
func writeXLSXFixture(t *testing.T, relTarget string) string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(fixtureCSV())).ReadAll()
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	var shared []string
	sharedIdx := map[string]int{}
	var sheet strings.Builder
	sheet.WriteString(`<?xml version="1.0" encoding="UTF-8"?><worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>`)
	for r, rec := range records {
		fmt.Fprintf(&sheet, `<row r="%d">`, r+1)
		for c, val := range rec {
			ref := fmt.Sprintf("%c%d", 'A'+c, r+1)
			if val == "" {
				continue
			}
			i, ok := sharedIdx[val]
			if !ok {
				i = len(shared)
				shared = append(shared, val)
				sharedIdx[val] = i
			}
			fmt.Fprintf(&sheet, `<c r="%s" t="s"><v>%d</v></c>`, ref, i)
		}
		sheet.WriteString(`</row>`)
	}
	sheet.WriteString(`</sheetData></worksheet>`)

	var sst strings.Builder
	sst.WriteString(`<?xml version="1.0" encoding="UTF-8"?><sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">`)
	for _, s := range shared {
		sst.WriteString(`<si><t>`)
		sst.WriteString(xmlEscape(s))
		sst.WriteString(`</t></si>`)
	}
	sst.WriteString(`</sst>`)

	files := map[string]string{
		"xl/workbook.xml": `<?xml version="1.0" encoding="UTF-8"?><workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets>` +
			`<sheet name="Notes" sheetId="1" r:id="rId1"/><sheet name="Data" sheetId="2" r:id="rId2"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Target="worksheets/sheet1.xml"/><Relationship Id="rId2" Target="` + relTarget + `"/></Relationships>`,
		"xl/worksheets/sheet1.xml": `<?xml version="1.0" encoding="UTF-8"?><worksheet><sheetData><row r="1"><c r="A1" t="inlineStr"><is><t>notes only</t></is></c></row></sheetData></worksheet>`,
		"xl/worksheets/sheet2.xml": sheet.String(),
		"xl/sharedStrings.xml":     sst.String(),
	}
	return writeWorkbook(t, files)
}

// writeWorkbook zips files into a temporary .xlsx.
func writeWorkbook(t *testing.T, files map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "demograph.xlsx")
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return p
}

func xmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func TestLoadFileXLSXMatchesCSV(t *testing.T) {
	for _, target := range []string{"worksheets/sheet2.xml", "/xl/worksheets/sheet2.xml"} {
		t.Run(target, func(t *testing.T) {
			p := writeXLSXFixture(t, target)
			opt := DefaultOptions()
			opt.SheetName = "data"
			fromXLSX, err := LoadFile(p, opt)
			if err != nil {
				t.Fatalf("LoadFile xlsx: %v", err)
			}
			fromCSV := prepareFixture(t)
			var a, b strings.Builder
			if err := fromXLSX.WriteCSV(&a); err != nil {
				t.Fatalf("write xlsx table: %v", err)
			}
			if err := fromCSV.WriteCSV(&b); err != nil {
				t.Fatalf("write csv table: %v", err)
			}
			if a.String() != b.String() {
				t.Fatalf("xlsx and csv differ:\n%s\n---\n%s", a.String(), b.String())
			}
		})
	}
}

func TestReadXLSXSheetSelection(t *testing.T) {
	p := writeXLSXFixture(t, "worksheets/sheet2.xml")
	opt := DefaultOptions()
	opt.SheetIndex = 2
	raw, err := ReadXLSX(p, opt)
	if err != nil {
		t.Fatalf("by index: %v", err)
	}
	if len(raw.Rows) != len(fixtureRows)-1 {
		t.Fatalf("rows: %d", len(raw.Rows))
	}

	opt.SheetIndex = 1
	raw, err = ReadXLSX(p, opt)
	if err != nil {
		t.Fatalf("first sheet: %v", err)
	}
	if raw.Header[0] != "notes only" {
		t.Fatalf("inline string: %q", raw.Header)
	}
	if _, err := Prepare(raw); err == nil {
		t.Fatalf("expected schema error for decoy sheet")
	}

	opt.SheetName = "Missing"
	if _, err := ReadXLSX(p, opt); err == nil || !strings.Contains(err.Error(), "Notes, Data") {
		t.Fatalf("expected sheet-not-found error listing sheets, got %v", err)
	}
}

func TestRelPath(t *testing.T) {
	cases := map[string]string{
		"/xl/worksheets/sheet1.xml": "xl/worksheets/sheet1.xml",
		"xl/worksheets/sheet1.xml":  "xl/worksheets/sheet1.xml",
		"/worksheets/sheet1.xml":    "xl/worksheets/sheet1.xml",
		"worksheets/sheet1.xml":     "xl/worksheets/sheet1.xml",
	}
	for in, want := range cases {
		if got := relPath(in); got != want {
			t.Errorf("relPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestColumnIndex(t *testing.T) {
	for ref, want := range map[string]int{"A1": 0, "C12": 2, "Z3": 25, "AA1": 26, "XFD1": 16383, "XFE1": -2, "ZZZZZZZZ1": -2, "": -1} {
		if got := columnIndex(ref); got != want {
			t.Errorf("columnIndex(%q) = %d, want %d", ref, got, want)
		}
	}
}

func TestReadXLSXRejectsColumnPastXFD(t *testing.T) {
	p := writeWorkbook(t, map[string]string{
		"xl/workbook.xml": `<?xml version="1.0" encoding="UTF-8"?><workbook xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets>` +
			`<sheet name="Data" sheetId="1" r:id="rId1"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships>` +
			`<Relationship Id="rId1" Target="worksheets/sheet1.xml"/></Relationships>`,
		"xl/worksheets/sheet1.xml": `<?xml version="1.0" encoding="UTF-8"?><worksheet><sheetData>` +
			`<row r="1"><c r="A1" t="inlineStr"><is><t>Town</t></is></c><c r="ZZZZZZZZ1" t="inlineStr"><is><t>x</t></is></c></row>` +
			`</sheetData></worksheet>`,
	})
	_, err := ReadXLSX(p, DefaultOptions())
	if err == nil || !strings.Contains(err.Error(), "beyond column XFD") {
		t.Fatalf("expected malformed reference error, got %v", err)
	}
}
