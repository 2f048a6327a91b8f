package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memgatehq/memgate/pkg/cliui"
	"github.com/memgatehq/memgate/pkg/config"
)

const getLongDesc string = `Get a configuration value.

Reads the value for the given key from the config.toml file
stored in the .memgate/ directory. Keys use dotted notation matching
the TOML section structure.

Examples:
  memgate config get memmachine.base_url
  memgate config get memory.history_count`

const getShortDesc string = "Get a configuration value"

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: getShortDesc,
		Long:  getLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runGet(args[0], configDir)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}

func runGet(key, configDir string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	target := cfger.GetTarget()
	if target != "" {
		fmt.Printf("\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}

	value, err := cfger.GetConfigValue(key)
	if err != nil {
		return err
	}

	if value != "" {
		fmt.Printf("  %s  %s\n\n", cliui.KeyStyle.Render(key), cliui.ValueStyle.Render(value))
		return nil
	}

	// Unset keys show their default, when one exists, so the user can tell
	// what the running system will actually use.
	display := cliui.DimStyle.Render("<not set>")
	if def := defaultFor(key); def != "" {
		display = cliui.DimStyle.Render(fmt.Sprintf("<not set> (default: %s)", def))
	}
	fmt.Printf("  %s  %s\n\n", cliui.KeyStyle.Render(key), display)

	return nil
}

// defaultFor reads key's value out of the default config. Empty means the
// key has no meaningful default.
func defaultFor(key string) string {
	value, err := config.ConfigValueOf(config.NewDefaultConfig(), key)
	if err != nil {
		return ""
	}
	return value
}
