package configcmder

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memgatehq/memgate/pkg/cliui"
	"github.com/memgatehq/memgate/pkg/config"
)

const listLongDesc string = `List all configuration values.

Displays every configuration key grouped by section, with current values from
the config.toml file stored in the .memgate/ directory. Unset keys show as
<not set>.

Examples:
  memgate config list`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(configDir)
		},
	}

	return cmd
}

func runList(configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if target := cfger.GetTarget(); target != "" {
		cliui.KV(os.Stdout, "Config file", cliui.DimStyle.Render(target))
	} else {
		fmt.Printf("  %s\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}
	fmt.Println()

	keys := config.ValidConfigKeys()

	maxLen := 0
	for _, k := range keys {
		if len(k) > maxLen {
			maxLen = len(k)
		}
	}

	// Keys come back grouped by section, so section changes are contiguous.
	section := ""
	for _, key := range keys {
		if s := strings.SplitN(key, ".", 2)[0]; s != section {
			if section != "" {
				fmt.Println()
			}
			section = s
			cliui.Title(os.Stdout, "["+section+"]")
		}

		value, err := cfger.GetConfigValue(key)
		if err != nil {
			return err
		}

		padded := fmt.Sprintf("%-*s", maxLen, key)
		if value == "" {
			fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render(padded), cliui.DimStyle.Render("<not set>"))
		} else {
			fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render(padded), cliui.ValueStyle.Render(value))
		}
	}
	fmt.Println()

	return nil
}
