package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadCSV reads a delimited file with a header row into a RawTable.
// An input with no header is reported as a SchemaError for the first required column.
func ReadCSV(r io.Reader, opt Options) (*RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SchemaError{Column: RequiredColumns[0]}
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	raw := &RawTable{Header: header}
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(raw.Rows)+1, err)
		}
		if blankRow(rec) {
			continue
		}
		raw.Rows = append(raw.Rows, rec)
	}
	return raw, nil
}

// ReadCSVFile opens path and reads it with ReadCSV, sniffing the delimiter
// from the extension when opt.Delimiter is unset.
func ReadCSVFile(path string, opt Options) (*RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	raw, err := ReadCSV(f, opt)
	if err != nil {
		return nil, err
	}
	raw.Name = filepath.Base(path)
	return raw, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

func blankRow(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
