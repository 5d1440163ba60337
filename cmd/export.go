package cmd

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/demograph-cli/internal/dataset"
	"github.com/KaramelBytes/demograph-cli/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	expSQLite string
	expFilter filterFlags
	expInput  inputFlags
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the prepared table to a SQLite database",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if expSQLite == "" {
			return errors.New("--sqlite <path> is required")
		}
		path, err := dataPath(args)
		if err != nil {
			return err
		}
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		f, err := expFilter.apply(cmd, dataset.AllRegions(), c.DefaultValueColumn)
		if err != nil {
			return err
		}
		t, err := loadTable(cmd, path, &expInput)
		if err != nil {
			return err
		}
		sub := t.Filter(f)
		if err := store.ExportSQLite(cmd.Context(), expSQLite, sub); err != nil {
			return err
		}
		logger.Debug("exported sqlite", zap.String("db", expSQLite), zap.Int("rows", sub.Len()))
		if sub.Empty() {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s\n", dataset.EmptyStateMessage)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d rows to %s\n", sub.Len(), expSQLite)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&expSQLite, "sqlite", "", "path of the SQLite database to create (replaced if it exists)")
	expFilter.register(exportCmd)
	expInput.register(exportCmd)
}
