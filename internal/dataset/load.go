package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ReadFile reads a CSV, TSV or XLSX source by extension.
func ReadFile(path string, opt Options) (*RawTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path, opt)
	default:
		return ReadCSVFile(path, opt)
	}
}

// LoadFile reads and prepares a source file.
func LoadFile(path string, opt Options) (*Table, error) {
	raw, err := ReadFile(path, opt)
	if err != nil {
		return nil, err
	}
	t, err := PrepareWithOptions(raw, opt)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// WriteCSV writes the header and every row, derived columns last.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range t.records {
		row := make([]string, 0, len(t.header))
		row = append(row, r.Source...)
		row = append(row, r.Region, r.GenderGap.String(), r.AbsGenderGap.String(), r.DominantFamilySize)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the records as an indented JSON array.
func (t *Table) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	recs := t.records
	if recs == nil {
		recs = []Record{}
	}
	if err := enc.Encode(recs); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
