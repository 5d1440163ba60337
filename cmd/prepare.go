package cmd

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/demograph-cli/internal/dataset"
	"github.com/KaramelBytes/demograph-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	prepOutput string
	prepFormat string
	prepInput  inputFlags
)

var prepareCmd = &cobra.Command{
	Use:   "prepare [file]",
	Short: "Clean a demographic CSV and add region, gender gap and dominant family size",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := dataPath(args)
		if err != nil {
			return err
		}
		format, err := outputFormat(prepFormat, prepOutput, "csv", "json")
		if err != nil {
			return err
		}
		t, err := loadTable(cmd, path, &prepInput)
		if err != nil {
			return err
		}
		if prepOutput == "" {
			return writeTable(cmd.OutOrStdout(), t, format)
		}
		var buf bytes.Buffer
		if err := writeTable(&buf, t, format); err != nil {
			return err
		}
		if err := utils.SafeWriteFile(prepOutput, buf.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d prepared rows to %s\n", t.Len(), prepOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(prepareCmd)
	prepareCmd.Flags().StringVarP(&prepOutput, "output", "o", "", "write the prepared table to this path instead of stdout")
	prepareCmd.Flags().StringVar(&prepFormat, "format", "", "output format: csv|json (default from --output extension, else csv)")
	prepInput.register(prepareCmd)
}

// outputFormat validates an explicit format or infers one from the output
// path's extension. The first allowed format is the default.
func outputFormat(explicit, output string, allowed ...string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(explicit))
	if f == "" {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
		for _, a := range allowed {
			if a == ext {
				return a, nil
			}
		}
		return allowed[0], nil
	}
	for _, a := range allowed {
		if a == f {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported --format: %s (use %s)", explicit, strings.Join(allowed, "|"))
}

func writeTable(w io.Writer, t *dataset.Table, format string) error {
	switch format {
	case "json":
		return t.WriteJSON(w)
	case "table":
		return renderTable(w, t)
	default:
		return t.WriteCSV(w)
	}
}
