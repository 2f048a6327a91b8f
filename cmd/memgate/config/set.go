package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memgatehq/memgate/pkg/cliui"
	"github.com/memgatehq/memgate/pkg/config"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in the config.toml file
stored in the .memgate/ directory. Keys use dotted notation matching
the TOML section structure.

Valid keys:
  memmachine.base_url, memmachine.org_id, memmachine.project_id, memmachine.api_key,
  memory.history_count, memory.short_term_count, memory.enable_template,
  memory.template_path, memory.user_ids, memory.session_id,
  api.listen, client.api_target,
  spool.provider, spool.sqlite_path,
  events.provider, events.brokers, events.topic

Examples:
  memgate config set memmachine.base_url http://localhost:8080
  memgate config set memory.user_ids alice,bob
  memgate config set spool.provider sqlite`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(args[0], args[1], configDir)
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

func runSet(key, value, configDir string) error {
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

	previous, err := cfger.GetConfigValue(key)
	if err != nil {
		return err
	}

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	if previous != "" && previous != value {
		fmt.Printf("  %s Set %s = %s %s\n\n",
			cliui.SuccessMark,
			cliui.KeyStyle.Render(key),
			cliui.ValueStyle.Render(value),
			cliui.DimStyle.Render(fmt.Sprintf("(was %s)", previous)),
		)
		return nil
	}

	fmt.Printf("  %s Set %s = %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(key),
		cliui.ValueStyle.Render(value),
	)
	return nil
}
