package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect jvx configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newConfigGetCmd(a), newConfigThemesCmd(a))
	return cmd
}

func newConfigGetCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Show the merged configuration, or one dotted key of it",
		Example: `  jvx config get
  jvx config get limits.max_chars
  jvx config get theme.themes.dark -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			v, err := a.cfg.Lookup(key)
			if err != nil {
				return err
			}
			return writeValue(cmd, v, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml|json")
	return cmd
}

func newConfigThemesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List available themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			def := a.cfg.Theme.Default
			for _, name := range a.cfg.ThemeNames() {
				marker := " "
				if name == def {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
			}
			return nil
		},
	}
}

func writeValue(cmd *cobra.Command, v any, format string) error {
	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		switch v.(type) {
		case map[string]any, []any:
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(v); err != nil {
				return err
			}
			return enc.Close()
		}
		_, err := fmt.Fprintln(out, v)
		return err
	default:
		return fmt.Errorf("unsupported output format %q (expected yaml or json)", format)
	}
}
