package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/demograph-cli/internal/dataset"
	"github.com/KaramelBytes/demograph-cli/internal/report"
	"github.com/KaramelBytes/demograph-cli/internal/utils"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var (
	anaOutputPath string
	anaOutDir     string
	anaRender     bool
	anaQuiet      bool
	anaFilter     filterFlags
	anaInput      inputFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Summarize prepared datasets as a Markdown report",
	Long: `Summarize one or more demographic files (globs accepted) as Markdown:
row counts, per-region means, family-size composition, youth/elderly
distributions and the gender gap. Filter flags narrow the rows first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			p, err := dataPath(nil)
			if err != nil {
				return err
			}
			args = []string{p}
		}
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		if anaOutputPath != "" && len(files) > 1 {
			return fmt.Errorf("--output takes a single input; use --out-dir for %d files", len(files))
		}
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		f, err := anaFilter.apply(cmd, dataset.AllRegions(), c.DefaultValueColumn)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		used := map[string]int{}
		total := len(files)
		for i, path := range files {
			if total > 1 && !anaQuiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			t, err := loadTable(cmd, path, &anaInput)
			if err != nil {
				return err
			}
			md := report.Build(filepath.Base(path), t.Filter(f)).Markdown()

			switch {
			case anaOutputPath != "":
				if err := utils.SafeWriteFile(anaOutputPath, []byte(md)); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				fmt.Fprintf(out, "✓ Wrote analysis to %s\n", anaOutputPath)
			case anaOutDir != "":
				outFile := summaryPath(anaOutDir, path, used)
				if err := utils.SafeWriteFile(outFile, []byte(md)); err != nil {
					return fmt.Errorf("write summary: %w", err)
				}
				fmt.Fprintf(out, "✓ Wrote analysis to %s\n", outFile)
			case anaRender:
				rendered, err := glamour.Render(md, "auto")
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: render failed, printing raw Markdown: %v\n", err)
					fmt.Fprintln(out, md)
					continue
				}
				fmt.Fprint(out, rendered)
			default:
				fmt.Fprintln(out, md)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write analysis (Markdown)")
	analyzeCmd.Flags().StringVar(&anaOutDir, "out-dir", "", "write <name>.summary.md per input into this directory")
	analyzeCmd.Flags().BoolVar(&anaRender, "render", false, "render Markdown for the terminal")
	analyzeCmd.Flags().BoolVar(&anaQuiet, "quiet", false, "suppress per-file progress")
	anaFilter.register(analyzeCmd)
	anaInput.register(analyzeCmd)
}

// summaryPath names the report for src inside dir. Inputs sharing a base name
// get numbered suffixes: metrics.summary.md, metrics__2.summary.md, ...
func summaryPath(dir, src string, used map[string]int) string {
	base := filepath.Base(src)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	used[stem]++
	if n := used[stem]; n > 1 {
		stem = fmt.Sprintf("%s__%d", stem, n)
	}
	return filepath.Join(dir, stem+".summary.md")
}
