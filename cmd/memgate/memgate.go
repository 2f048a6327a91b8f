// Package memgatecmder
package memgatecmder

import (
	configcmder "github.com/memgatehq/memgate/cmd/memgate/config"
	flushcmder "github.com/memgatehq/memgate/cmd/memgate/flush"
	recallcmder "github.com/memgatehq/memgate/cmd/memgate/recall"
	servecmder "github.com/memgatehq/memgate/cmd/memgate/serve"
	storecmder "github.com/memgatehq/memgate/cmd/memgate/store"
	versioncmder "github.com/memgatehq/memgate/cmd/version"
	"github.com/spf13/cobra"
)

const memgateLongDesc string = `Memgate is a memory gateway for agent conversations.

It recalls and stores conversational memory against a MemMachine service,
rendering recalled memories into a single markdown context block ready for
prompt injection.

Run services using:
  memgate serve        Run the API and MCP server
Work with memories using:
  memgate recall       Recall a rendered memory context
  memgate store        Store conversation messages
  memgate flush        Replay spooled store requests`

const memgateShortDesc string = "Memgate - Conversational Memory Gateway"

func NewMemgateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memgate",
		Short: memgateShortDesc,
		Long:  memgateLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory holding the .memgate config (default: ./.memgate or ~/.memgate)")
	cmd.PersistentFlags().String("log-file", "", "Append a JSON copy of client command logs to this file")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(recallcmder.NewRecallCmd())
	cmd.AddCommand(storecmder.NewStoreCmd())
	cmd.AddCommand(flushcmder.NewFlushCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
