// Package configcmder provides the config command for managing persistent
// memgate configuration stored in the .memgate/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent memgate configuration.

Configuration is stored as config.toml in the .memgate/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  memmachine.base_url, memmachine.org_id, memmachine.project_id, memmachine.api_key,
  memory.history_count, memory.short_term_count, memory.enable_template,
  memory.template_path, memory.user_ids,
  api.listen, client.api_target,
  spool.provider, spool.sqlite_path,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  memgate config set <key> <value>    Set a configuration value
  memgate config get <key>            Get a configuration value
  memgate config list                 List all configuration values

Examples:
  memgate config set memmachine.base_url http://localhost:8080
  memgate config set memory.history_count 5
  memgate config get memmachine.project_id
  memgate config list`

const configShortDesc string = "Manage persistent memgate configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
