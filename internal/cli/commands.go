package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-timer/internal/config"
	"github.com/smokyabdulrahman/prayer-timer/internal/display"
	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
)

// secretKeys are masked by 'config show'.
var secretKeys = map[string]bool{
	"london_api_key": true,
	"redis_password": true,
	"mqtt_password":  true,
}

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or modify configuration",
		Long:  "Display the stored configuration, or use subcommands to modify it.\nWhen run without subcommands, shows the stored configuration.",
		Args:  cobra.NoArgs,
		RunE:  a.runConfigShow,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Long: fmt.Sprintf("Set a configuration value. Valid keys: %s\n\nExamples:\n  prayer-timer config set latitude 51.5074\n  prayer-timer config set method isna\n  prayer-timer config set iqama_dhuhr 13:30\n  prayer-timer config set iqama_isha +10\n  prayer-timer config set time_format 12h",
			strings.Join(config.ValidKeys, ", ")),
		Args: cobra.ExactArgs(2),
		RunE: a.runConfigSet,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print the effective value of a config key",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runConfigGet,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset config to defaults",
		Long:  "Delete the config file and restore all settings to defaults.",
		Args:  cobra.NoArgs,
		RunE:  a.runConfigReset,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print config file path",
		Args:  cobra.NoArgs,
		RunE:  a.runConfigPath,
	})

	return cmd
}

// runConfigShow displays the stored configuration.
func (a *app) runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := a.path()
	if err != nil {
		return err
	}
	values := make(map[string]string, len(config.ValidKeys))
	for _, key := range config.ValidKeys {
		val, _ := a.file.Get(key)
		if val != "" && secretKeys[key] {
			val = "********"
		}
		values[key] = val
	}
	if a.jsonOut {
		return writeJSON(cmd.OutOrStdout(), map[string]any{"path": path, "values": values})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "  Configuration (%s)\n\n", path)
	for _, key := range config.ValidKeys {
		val := values[key]
		if val == "" {
			val = display.Dim("(not set)")
		}
		fmt.Fprintf(w, "  %-22s %s\n", key, val)
	}
	return nil
}

// runConfigSet stores a key and reports which follow-up groups it touches.
func (a *app) runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	prev := *a.file
	next := prev
	if err := next.Set(key, value); err != nil {
		return err
	}
	path, err := a.path()
	if err != nil {
		return err
	}
	if err := next.SaveTo(path); err != nil {
		return err
	}
	*a.file = next

	groups, _ := config.ChangedGroups(prev, next)
	names := make([]string, 0, len(groups))
	for _, g := range slices.Sorted(maps.Keys(groups)) {
		names = append(names, string(g))
	}

	stored, _ := next.Get(key)
	if a.jsonOut {
		return writeJSON(cmd.OutOrStdout(), map[string]any{"key": key, "value": stored, "groups": names})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, stored)
	if len(names) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", display.Dim("affects: "+strings.Join(names, ", ")))
	}
	return nil
}

// runConfigGet prints the effective value after environment, flags and
// defaults.
func (a *app) runConfigGet(cmd *cobra.Command, args []string) error {
	val, err := a.cfg.Get(args[0])
	if err != nil {
		return err
	}
	if a.jsonOut {
		return writeJSON(cmd.OutOrStdout(), map[string]string{"key": args[0], "value": val})
	}
	fmt.Fprintln(cmd.OutOrStdout(), val)
	return nil
}

// runConfigReset deletes the config file.
func (a *app) runConfigReset(cmd *cobra.Command, args []string) error {
	path, err := a.path()
	if err != nil {
		return err
	}
	if err := config.ResetAt(path); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Configuration reset to defaults.")
	return nil
}

// runConfigPath prints the config file path.
func (a *app) runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := a.path()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func (a *app) newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List all calculation methods",
		Long:  "Print the table of supported calculation methods.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.jsonOut {
				out := make([]map[string]string, len(prayer.Methods))
				for i, m := range prayer.Methods {
					out[i] = map[string]string{"id": string(m.Method), "name": m.Name}
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Supported calculation methods:")
			fmt.Fprintln(w)
			tbl := display.NewTable("ID", "Name")
			for _, m := range prayer.Methods {
				idx := tbl.AddRow(string(m.Method), m.Name)
				if m.Method == a.cfg.Method {
					tbl.Highlight(idx)
				}
			}
			fmt.Fprint(w, tbl.Render())
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Use --method <ID> or 'config set method <ID>' to select a calculation method.")
			return nil
		},
	}
}
