package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/demograph-cli/internal/dataset"
	"github.com/KaramelBytes/demograph-cli/internal/utils"
	"github.com/KaramelBytes/demograph-cli/internal/views"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	vwDescription string
	vwFormat      string
	vwFlags       filterFlags
)

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "Manage saved filter views",
}

func openViews() (*views.Store, error) {
	c, err := loadedConfig()
	if err != nil {
		return nil, err
	}
	return views.Open(c.ViewsDir)
}

var viewsSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a filter selection under a name (replaces an existing view of that name)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		vs, err := views.Open(c.ViewsDir)
		if err != nil {
			return err
		}
		f, err := vwFlags.apply(cmd, dataset.AllRegions(), c.DefaultValueColumn)
		if err != nil {
			return err
		}
		v, err := vs.Save(args[0], vwDescription, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved view '%s' (id: %s)\n", v.Name, v.ID)
		return nil
	},
}

var viewsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved views",
	RunE: func(cmd *cobra.Command, args []string) error {
		vs, err := openViews()
		if err != nil {
			return err
		}
		list := vs.List()
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "(no views)")
			return nil
		}
		for _, v := range list {
			line := fmt.Sprintf("- %s: %s", v.Name, describeFilter(v.Filter))
			if v.Description != "" {
				line += fmt.Sprintf(" (%s)", v.Description)
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

var viewsShowCmd = &cobra.Command{
	Use:   "show <name|id>",
	Short: "Show one saved view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vs, err := openViews()
		if err != nil {
			return err
		}
		v, err := vs.Get(args[0])
		if err != nil {
			return err
		}
		var b []byte
		switch strings.ToLower(vwFormat) {
		case "", "yaml":
			b, err = yaml.Marshal(v)
		case "json":
			b, err = utils.PrettyJSON(v)
			b = append(b, '\n')
		default:
			return fmt.Errorf("unsupported --format: %s (use yaml|json)", vwFormat)
		}
		if err != nil {
			return fmt.Errorf("encode view: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

var viewsDeleteCmd = &cobra.Command{
	Use:   "delete <name|id>",
	Short: "Delete a saved view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vs, err := openViews()
		if err != nil {
			return err
		}
		if err := vs.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted view '%s'\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(viewsCmd)
	viewsCmd.AddCommand(viewsSaveCmd, viewsListCmd, viewsShowCmd, viewsDeleteCmd)
	viewsSaveCmd.Flags().StringVarP(&vwDescription, "desc", "d", "", "optional description")
	vwFlags.register(viewsSaveCmd)
	viewsShowCmd.Flags().StringVar(&vwFormat, "format", "yaml", "output format: yaml|json")
}

// describeFilter renders a one-line summary of a selection.
func describeFilter(f dataset.Filter) string {
	var parts []string
	switch {
	case f.Regions == nil:
		parts = append(parts, "all regions")
	case len(f.Regions) == 0:
		parts = append(parts, "no regions")
	default:
		parts = append(parts, "regions="+strings.Join(f.Regions, ","))
	}
	if len(f.Towns) > 0 {
		parts = append(parts, "towns="+strings.Join(f.Towns, ","))
	}
	if f.Range != nil {
		parts = append(parts, fmt.Sprintf("%s in [%g, %g]", f.Range.Column, f.Range.Lo, f.Range.Hi))
	}
	if s := strings.TrimSpace(f.FamilySize); s != "" && !strings.EqualFold(s, dataset.AllFamilySizes) {
		parts = append(parts, "size="+s)
	}
	return strings.Join(parts, "; ")
}
