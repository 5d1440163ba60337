package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	cfgpkg "github.com/KaramelBytes/demograph-cli/internal/config"
	"github.com/KaramelBytes/demograph-cli/internal/dataset"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// inputFlags are the source-reading flags shared by every command that loads
// a dataset. Unset flags fall back to the config file.
type inputFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	sheetName  string
	sheetIndex int
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	cmd.Flags().StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	cmd.Flags().StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	cmd.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	cmd.Flags().IntVar(&f.sheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func (f *inputFlags) options(c *cfgpkg.Global) (dataset.Options, error) {
	opt := dataset.DefaultOptions()
	delim, dec, sheetName, sheetIndex := f.delimiter, f.decimal, f.sheetName, f.sheetIndex
	if c != nil {
		if delim == "" {
			delim = c.Delimiter
		}
		if dec == "" {
			dec = c.DecimalSeparator
		}
		if sheetName == "" {
			sheetName = c.SheetName
		}
		if sheetIndex <= 0 {
			sheetIndex = c.SheetIndex
		}
	}
	switch delim {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", delim)
	}
	switch strings.ToLower(strings.TrimSpace(dec)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot", "":
		opt.DecimalSeparator = '.'
	case "auto":
		opt.DecimalSeparator = 0
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma'|'auto')", dec)
	}
	switch strings.ToLower(strings.TrimSpace(f.thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
	}
	opt.SheetName = sheetName
	if sheetIndex > 0 {
		opt.SheetIndex = sheetIndex
	}
	return opt, nil
}

// loadTable reads and prepares path, reporting dropped rows on stderr.
func loadTable(cmd *cobra.Command, path string, in *inputFlags) (*dataset.Table, error) {
	c, err := loadedConfig()
	if err != nil {
		return nil, err
	}
	opt, err := in.options(c)
	if err != nil {
		return nil, err
	}
	t, err := dataset.LoadFile(path, opt)
	if err != nil {
		return nil, err
	}
	logger.Debug("dataset loaded",
		zap.String("file", path),
		zap.Int("rows", t.Len()),
		zap.Int("dropped", t.Dropped()),
	)
	if t.Dropped() > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: dropped %d row(s) without a positive youth percentage\n", t.Dropped())
	}
	return t, nil
}

// expandInputs resolves globs and literal paths, de-duplicated and sorted.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// dataPath picks the positional file argument or the configured data_path.
func dataPath(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	c, err := loadedConfig()
	if err != nil {
		return "", err
	}
	if c.DataPath == "" {
		return "", fmt.Errorf("no input file given and data_path is not configured")
	}
	return c.DataPath, nil
}
