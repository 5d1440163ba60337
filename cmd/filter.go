package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/KaramelBytes/demograph-cli/internal/dataset"
	"github.com/KaramelBytes/demograph-cli/internal/utils"
	"github.com/KaramelBytes/demograph-cli/internal/views"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// filterFlags describe a row selection on the command line.
type filterFlags struct {
	regions  []string
	noRegion bool
	towns    []string
	column   string
	min      float64
	max      float64
	size     string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.regions, "region", nil, "keep only this region (repeatable; default all)")
	cmd.Flags().BoolVar(&f.noRegion, "no-region", false, "select no region at all (empty selection)")
	cmd.Flags().StringArrayVar(&f.towns, "town", nil, "keep only this town (repeatable)")
	cmd.Flags().StringVar(&f.column, "column", "", "value column for --min/--max: women|men|elderly|youth (default from config)")
	cmd.Flags().Float64Var(&f.min, "min", 0, "inclusive lower bound on --column")
	cmd.Flags().Float64Var(&f.max, "max", 100, "inclusive upper bound on --column")
	cmd.Flags().StringVar(&f.size, "size", "", "dominant family size: 1-3|4-6|7+|All")
}

// apply overlays the flags that were set onto base.
func (f *filterFlags) apply(cmd *cobra.Command, base dataset.Filter, defaultCol string) (dataset.Filter, error) {
	fl := cmd.Flags()
	if f.noRegion {
		if len(f.regions) > 0 {
			return base, errors.New("--no-region cannot be combined with --region")
		}
		base.Regions = []string{}
	} else if fl.Changed("region") {
		base.Regions = append([]string{}, f.regions...)
	}
	if fl.Changed("town") {
		base.Towns = append([]string{}, f.towns...)
	}
	if fl.Changed("size") {
		base.FamilySize = f.size
	}
	if fl.Changed("min") || fl.Changed("max") || fl.Changed("column") {
		name := f.column
		if name == "" {
			name = defaultCol
		}
		col, err := dataset.ParseValueColumn(name)
		if err != nil {
			return base, err
		}
		rng := dataset.ValueRange{Column: col, Lo: 0, Hi: 100}
		if base.Range != nil && base.Range.Column == col {
			rng = *base.Range
		}
		if fl.Changed("min") {
			rng.Lo = f.min
		}
		if fl.Changed("max") {
			rng.Hi = f.max
		}
		base.Range = &rng
	}
	if err := base.Validate(); err != nil {
		return base, err
	}
	return base, nil
}

var (
	fltFlags  filterFlags
	fltInput  inputFlags
	fltView   string
	fltFormat string
	fltOutput string
)

var filterCmd = &cobra.Command{
	Use:   "filter [file]",
	Short: "Show the prepared rows matching a region/town/range/family-size selection",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := dataPath(args)
		if err != nil {
			return err
		}
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		format, err := outputFormat(fltFormat, fltOutput, "table", "csv", "json")
		if err != nil {
			return err
		}
		base := dataset.AllRegions()
		if fltView != "" {
			vs, err := views.Open(c.ViewsDir)
			if err != nil {
				return err
			}
			v, err := vs.Get(fltView)
			if err != nil {
				return err
			}
			base = v.Filter
		}
		f, err := fltFlags.apply(cmd, base, c.DefaultValueColumn)
		if err != nil {
			return err
		}
		t, err := loadTable(cmd, path, &fltInput)
		if err != nil {
			return err
		}
		sub := t.Filter(f)
		if sub.Empty() && format == "table" {
			fmt.Fprintln(cmd.OutOrStdout(), dataset.EmptyStateMessage)
			return nil
		}
		if fltOutput == "" {
			return writeTable(cmd.OutOrStdout(), sub, format)
		}
		var buf bytes.Buffer
		if err := writeTable(&buf, sub, format); err != nil {
			return err
		}
		if err := utils.SafeWriteFile(fltOutput, buf.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d of %d rows to %s\n", sub.Len(), t.Len(), fltOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)
	fltFlags.register(filterCmd)
	fltInput.register(filterCmd)
	filterCmd.Flags().StringVar(&fltView, "view", "", "start from a saved view (name or id)")
	filterCmd.Flags().StringVar(&fltFormat, "format", "", "output format: table|csv|json (default from --output extension, else table)")
	filterCmd.Flags().StringVarP(&fltOutput, "output", "o", "", "write rows to this path instead of stdout")
}

var tableHeaders = []string{"Town", "Region", "Women %", "Men %", "Elderly %", "Youth %", "Gap (W-M)", "Dominant size"}

func renderTable(w io.Writer, t *dataset.Table) error {
	if t.Empty() {
		_, err := fmt.Fprintln(w, dataset.EmptyStateMessage)
		return err
	}
	rows := make([][]string, 0, t.Len())
	for _, r := range t.Records() {
		rows = append(rows, []string{
			r.Town, r.Region,
			fixed(r.PctWomen), fixed(r.PctMen), fixed(r.PctElderly), fixed(r.PctYouth),
			fixed(r.GenderGap), r.DominantFamilySize,
		})
	}
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(tableHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}

func fixed(f dataset.Float) string {
	if !f.Valid {
		return "-"
	}
	return strconv.FormatFloat(f.Value, 'f', 2, 64)
}
