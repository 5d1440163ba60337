package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/demograph-cli/internal/config"
	"github.com/KaramelBytes/demograph-cli/internal/dataset"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set Demograph configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "data_path: %s\n", c.DataPath)
		if c.Delimiter != "" {
			fmt.Fprintf(out, "delimiter: %q\n", c.Delimiter)
		}
		fmt.Fprintf(out, "decimal_separator: %s\n", c.DecimalSeparator)
		if c.SheetName != "" {
			fmt.Fprintf(out, "sheet_name: %s\n", c.SheetName)
		}
		fmt.Fprintf(out, "sheet_index: %d\n", c.SheetIndex)
		fmt.Fprintf(out, "default_value_column: %s\n", c.DefaultValueColumn)
		fmt.Fprintf(out, "views_dir: %s\n", c.ViewsDir)
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(out, "listen_addr: %s\n", c.ListenAddr)
		if len(c.CORSOrigins) > 0 {
			fmt.Fprintf(out, "cors_origins: %s\n", strings.Join(c.CORSOrigins, ","))
		}
		fmt.Fprintf(out, "read_timeout_sec: %d\n", c.ReadTimeoutSec)
		fmt.Fprintf(out, "write_timeout_sec: %d\n", c.WriteTimeoutSec)
		fmt.Fprintf(out, "watch: %t\n", c.Watch)
		fmt.Fprintf(out, "watch_debounce_ms: %d\n", c.WatchDebounceMs)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		if err := setConfigValue(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "data_path":
		c.DataPath = val
	case "delimiter":
		switch val {
		case ",", ";", "tab", "\t", "":
			c.Delimiter = val
		default:
			return fmt.Errorf("invalid delimiter: %q (use ','|';'|'tab')", val)
		}
	case "decimal_separator":
		switch strings.ToLower(val) {
		case ".", "dot", ",", "comma", "auto":
			c.DecimalSeparator = val
		default:
			return fmt.Errorf("invalid decimal_separator: %s (use '.'|'comma'|'auto')", val)
		}
	case "sheet_name":
		c.SheetName = val
	case "sheet_index":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid int for sheet_index: %v", val)
		}
		c.SheetIndex = i
	case "default_value_column":
		col, err := dataset.ParseValueColumn(val)
		if err != nil {
			return err
		}
		c.DefaultValueColumn = col.Name()
	case "views_dir":
		c.ViewsDir = val
	case "log_level":
		if _, err := zapcore.ParseLevel(val); err != nil {
			return fmt.Errorf("invalid log_level: %s", val)
		}
		c.LogLevel = val
	case "listen_addr":
		c.ListenAddr = val
	case "cors_origins":
		c.CORSOrigins = nil
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	case "read_timeout_sec", "write_timeout_sec", "watch_debounce_ms":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		switch key {
		case "read_timeout_sec":
			c.ReadTimeoutSec = i
		case "write_timeout_sec":
			c.WriteTimeoutSec = i
		default:
			c.WatchDebounceMs = i
		}
	case "watch":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for watch: %v", val)
		}
		c.Watch = b
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}
