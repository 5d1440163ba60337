package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/KaramelBytes/demograph-cli/internal/dataset"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE towns (
	id INTEGER PRIMARY KEY,
	town TEXT NOT NULL,
	region_uri TEXT NOT NULL,
	region TEXT NOT NULL,
	pct_women REAL,
	pct_men REAL,
	pct_elderly_65plus REAL,
	pct_youth_15_24 REAL,
	avg_family_1_3 REAL,
	avg_family_4_6 REAL,
	avg_family_7plus REAL,
	gender_gap REAL,
	abs_gender_gap REAL,
	dominant_family_size TEXT NOT NULL
);
CREATE INDEX idx_towns_region ON towns(region);
CREATE TABLE regions (
	region TEXT PRIMARY KEY,
	towns INTEGER NOT NULL,
	avg_youth REAL,
	avg_elderly REAL,
	avg_gender_gap REAL
);
CREATE TABLE family_size_composition (
	region TEXT NOT NULL,
	family_size TEXT NOT NULL,
	towns INTEGER NOT NULL,
	PRIMARY KEY (region, family_size)
);
`

// ExportSQLite writes t into a fresh SQLite database at path, replacing any
// existing file. Missing values are stored as NULL.
func ExportSQLite(ctx context.Context, path string, t *dataset.Table) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove existing db: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := insertTowns(ctx, tx, t); err != nil {
		return err
	}
	if err := insertRegions(ctx, tx); err != nil {
		return err
	}
	if err := insertComposition(ctx, tx, t); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertTowns(ctx context.Context, tx *sql.Tx, t *dataset.Table) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO towns (
		town, region_uri, region, pct_women, pct_men, pct_elderly_65plus, pct_youth_15_24,
		avg_family_1_3, avg_family_4_6, avg_family_7plus, gender_gap, abs_gender_gap, dominant_family_size
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare towns insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range t.Records() {
		_, err := stmt.ExecContext(ctx,
			r.Town, r.RegionURI, r.Region,
			nullable(r.PctWomen), nullable(r.PctMen), nullable(r.PctElderly), nullable(r.PctYouth),
			nullable(r.AvgFamily1to3), nullable(r.AvgFamily4to6), nullable(r.AvgFamily7Plus),
			nullable(r.GenderGap), nullable(r.AbsGenderGap), r.DominantFamilySize,
		)
		if err != nil {
			return fmt.Errorf("insert town %q: %w", r.Town, err)
		}
	}
	return nil
}

func insertRegions(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO regions (region, towns, avg_youth, avg_elderly, avg_gender_gap)
		SELECT region, COUNT(*), AVG(pct_youth_15_24), AVG(pct_elderly_65plus), AVG(gender_gap)
		FROM towns WHERE region <> '' GROUP BY region`)
	if err != nil {
		return fmt.Errorf("insert regions: %w", err)
	}
	return nil
}

func insertComposition(ctx context.Context, tx *sql.Tx, t *dataset.Table) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO family_size_composition (region, family_size, towns) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare composition insert: %w", err)
	}
	defer stmt.Close()
	for _, node := range dataset.Sunburst(t) {
		for _, c := range node.Sizes {
			if _, err := stmt.ExecContext(ctx, node.Region, c.Size, c.Count); err != nil {
				return fmt.Errorf("insert composition %s/%s: %w", node.Region, c.Size, err)
			}
		}
	}
	return nil
}

func nullable(f dataset.Float) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f.Value, Valid: f.Valid}
}
