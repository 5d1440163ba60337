package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ReadXLSX extracts the selected worksheet of an .xlsx workbook as a RawTable.
// opt.SheetName wins over opt.SheetIndex (1-based); with neither set the
// first sheet is read.
func ReadXLSX(filePath string, opt Options) (*RawTable, error) {
	b, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	wb := workbook{zr: zr}
	target, err := wb.resolveSheet(opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(filePath), err)
	}
	rows := newSheetRows(wb.file(target), parseSharedStrings(wb.file("xl/sharedStrings.xml")))

	raw := &RawTable{Name: filepath.Base(filePath)}
	header, ok := rows.next()
	if rows.err != nil {
		return nil, fmt.Errorf("%s: %w", raw.Name, rows.err)
	}
	if !ok || len(header) == 0 {
		return nil, &SchemaError{Column: RequiredColumns[0]}
	}
	raw.Header = header
	for {
		row, ok := rows.next()
		if !ok {
			break
		}
		if blankRow(row) {
			continue
		}
		raw.Rows = append(raw.Rows, row)
	}
	if rows.err != nil {
		return nil, fmt.Errorf("%s: %w", raw.Name, rows.err)
	}
	return raw, nil
}

type workbook struct {
	zr *zip.Reader
}

type sheetEntry struct {
	name string
	id   int
	rid  string
}

func (w workbook) file(name string) []byte {
	for _, f := range w.zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		return b
	}
	return nil
}

// resolveSheet maps a sheet name or 1-based index to its ZIP entry path.
func (w workbook) resolveSheet(name string, index int) (string, error) {
	sheets := parseSheetEntries(w.file("xl/workbook.xml"))
	rels := parseRelationships(w.file("xl/_rels/workbook.xml.rels"))
	if name != "" {
		for _, s := range sheets {
			if strings.EqualFold(s.name, name) {
				if target, ok := rels[s.rid]; ok {
					return relPath(target), nil
				}
			}
		}
		names := make([]string, len(sheets))
		for i, s := range sheets {
			names[i] = s.name
		}
		return "", fmt.Errorf("sheet %q not found (available: %s)", name, strings.Join(names, ", "))
	}
	if index <= 0 {
		index = 1
	}
	for _, s := range sheets {
		if s.id == index {
			if target, ok := rels[s.rid]; ok {
				return relPath(target), nil
			}
		}
	}
	if len(sheets) == 0 && w.file("xl/workbook.xml") == nil {
		return "", errors.New("workbook.xml not found")
	}
	return path.Join("xl", "worksheets", fmt.Sprintf("sheet%d.xml", index)), nil
}

// relPath converts a relationship target ("/xl/worksheets/sheet1.xml" or
// "worksheets/sheet1.xml") into a ZIP entry name.
func relPath(target string) string {
	target = strings.TrimPrefix(target, "/")
	if strings.HasPrefix(target, "xl/") {
		return target
	}
	return path.Join("xl", target)
}

func parseSheetEntries(data []byte) []sheetEntry {
	var out []sheetEntry
	eachStart(data, func(se xml.StartElement) {
		if se.Name.Local != "sheet" {
			return
		}
		var s sheetEntry
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.name = a.Value
			case "sheetId":
				s.id = leadingInt(a.Value)
			case "id":
				s.rid = a.Value
			}
		}
		out = append(out, s)
	})
	return out
}

func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	eachStart(data, func(se xml.StartElement) {
		if se.Name.Local != "Relationship" {
			return
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	})
	return out
}

func eachStart(data []byte, fn func(xml.StartElement)) {
	if len(data) == 0 {
		return
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		if se, ok := tok.(xml.StartElement); ok {
			fn(se)
		}
	}
}

func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inText = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "si":
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inText {
				buf.Write(el)
			}
		}
	}
}

// sheetRows streams rows of a worksheet, placing cells by their A1 reference.
type sheetRows struct {
	dec    *xml.Decoder
	shared []string
	err    error
}

func newSheetRows(data []byte, shared []string) *sheetRows {
	return &sheetRows{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

func (s *sheetRows) next() ([]string, bool) {
	var row []string
	inRow := false
	for {
		tok, err := s.dec.Token()
		if err != nil {
			return nil, false
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case el.Name.Local == "row":
				inRow = true
				row = nil
			case inRow && el.Name.Local == "c":
				var ref, typ string
				for _, a := range el.Attr {
					switch a.Name.Local {
					case "r":
						ref = a.Value
					case "t":
						typ = a.Value
					}
				}
				col := columnIndex(ref)
				if col == -2 {
					s.err = fmt.Errorf("cell reference %q is beyond column XFD", ref)
					return nil, false
				}
				if col < 0 {
					col = len(row)
				}
				for len(row) <= col {
					row = append(row, "")
				}
				row[col] = s.cellValue(typ)
			}
		case xml.EndElement:
			if el.Name.Local == "row" {
				return row, true
			}
		}
	}
}

// cellValue consumes tokens up to </c>, returning <v> or inline <t> text.
func (s *sheetRows) cellValue(typ string) string {
	var val string
	for {
		tok, err := s.dec.Token()
		if err != nil {
			return val
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "v" || el.Name.Local == "t" {
				val = s.text(el.Name.Local)
			}
		case xml.EndElement:
			if el.Name.Local != "c" {
				continue
			}
			if typ == "s" {
				i := leadingInt(val)
				if i >= 0 && i < len(s.shared) {
					return s.shared[i]
				}
				return ""
			}
			return val
		}
	}
}

func (s *sheetRows) text(end string) string {
	var sb strings.Builder
	for {
		tok, err := s.dec.Token()
		if err != nil {
			return sb.String()
		}
		switch el := tok.(type) {
		case xml.EndElement:
			if el.Name.Local == end {
				return sb.String()
			}
		case xml.CharData:
			sb.Write(el)
		}
	}
}

// maxColumns is the sheet width limit of the format (A..XFD).
const maxColumns = 16384

// columnIndex converts "C12" to 2. It returns -1 for a missing reference and
// -2 for one past the last column XFD.
func columnIndex(ref string) int {
	idx := 0
	n := 0
	for _, c := range strings.ToUpper(ref) {
		if c < 'A' || c > 'Z' {
			break
		}
		idx = idx*26 + int(c-'A'+1)
		if idx > maxColumns {
			return -2
		}
		n++
	}
	if n == 0 {
		return -1
	}
	return idx - 1
}

func leadingInt(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}
