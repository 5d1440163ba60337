package dataset

import (
	"strings"
)

// Prepare turns a raw table into the analysis-ready shape using DefaultOptions.
func Prepare(raw *RawTable) (*Table, error) {
	return PrepareWithOptions(raw, DefaultOptions())
}

// PrepareWithOptions runs the preparation pipeline:
//  1. trim column names
//  2. drop rows whose youth percentage is not strictly positive
//  3. coerce the percentage columns and clamp them to [0, 100]
//  4. derive Region from refArea
//  5. derive the gender gap columns and the dominant family size
//
// A missing required column yields *SchemaError. No surviving rows is not an
// error: the result is an empty table with the full header.
func PrepareWithOptions(raw *RawTable, opt Options) (*Table, error) {
	if raw == nil {
		raw = &RawTable{}
	}
	header := make([]string, len(raw.Header))
	for i, h := range raw.Header {
		header[i] = strings.TrimSpace(h)
	}
	idx := indexHeader(header)
	pos := make(map[string]int, len(RequiredColumns))
	for _, col := range RequiredColumns {
		i, ok := idx.lookup(col)
		if !ok {
			return nil, &SchemaError{Column: col}
		}
		pos[col] = i
	}

	t := &Table{
		name:   raw.Name,
		header: append(header, ColRegion, ColGenderGap, ColAbsGenderGap, ColDominantSize),
	}
	t.records = make([]Record, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		cells := make([]string, len(header))
		copy(cells, row)

		youth := coerce(cells[pos[ColYouth]], opt)
		if !youth.Valid || youth.Value <= 0 {
			t.dropped++
			continue
		}

		rec := Record{
			Town:      strings.TrimSpace(cells[pos[ColTown]]),
			RegionURI: strings.TrimSpace(cells[pos[ColRegionRef]]),

			PctWomen:   coerce(cells[pos[ColWomen]], opt).Clamp(0, 100),
			PctMen:     coerce(cells[pos[ColMen]], opt).Clamp(0, 100),
			PctElderly: coerce(cells[pos[ColElderly]], opt).Clamp(0, 100),
			PctYouth:   youth.Clamp(0, 100),

			AvgFamily1to3:  coerce(cells[pos[ColFamily1to3]], opt),
			AvgFamily4to6:  coerce(cells[pos[ColFamily4to6]], opt),
			AvgFamily7Plus: coerce(cells[pos[ColFamily7Plus]], opt),
		}
		rec.Region = RegionLabel(rec.RegionURI)
		rec.GenderGap, rec.AbsGenderGap = genderGap(rec.PctWomen, rec.PctMen)
		rec.DominantFamilySize = DominantFamilySize(rec.AvgFamily1to3, rec.AvgFamily4to6, rec.AvgFamily7Plus)

		// Numeric source cells carry their prepared values.
		cells[pos[ColWomen]] = rec.PctWomen.String()
		cells[pos[ColMen]] = rec.PctMen.String()
		cells[pos[ColElderly]] = rec.PctElderly.String()
		cells[pos[ColYouth]] = rec.PctYouth.String()
		cells[pos[ColFamily1to3]] = rec.AvgFamily1to3.String()
		cells[pos[ColFamily4to6]] = rec.AvgFamily4to6.String()
		cells[pos[ColFamily7Plus]] = rec.AvgFamily7Plus.String()
		rec.Source = cells

		t.records = append(t.records, rec)
	}
	return t, nil
}
