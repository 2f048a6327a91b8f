// Package flushcmder provides the flush command for replaying spooled store
// requests against the MemMachine service.
package flushcmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/memgatehq/memgate/pkg/cliui"
	"github.com/memgatehq/memgate/pkg/config"
	eventsnop "github.com/memgatehq/memgate/pkg/eventstream/nop"
	"github.com/memgatehq/memgate/pkg/logger"
	"github.com/memgatehq/memgate/pkg/memmachine"
	"github.com/memgatehq/memgate/pkg/memory"
	spoolsqlite "github.com/memgatehq/memgate/pkg/spool/sqlite"
	"github.com/memgatehq/memgate/pkg/trace"
)

type flushCommander struct {
	baseURL     string
	orgID       string
	projectID   string
	apiKey      string
	spoolSQLite string

	debug  bool
	logger *zap.Logger
}

const flushLongDesc string = `Replay spooled store requests.

Store requests that could not reach the MemMachine service are spooled
locally (when spool.provider is sqlite). Flush replays them oldest first,
removing each entry the service accepts, and stops at the first failure so
nothing is dropped.

Examples:
  memgate flush
  memgate flush --spool-sqlite ./memgate-spool.db`

const flushShortDesc string = "Replay spooled store requests"

func NewFlushCmd() *cobra.Command {
	cmder := &flushCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "flush",
		Short: flushShortDesc,
		Long:  flushLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, fs, []string{
				config.FlagBaseURL,
				config.FlagOrgID,
				config.FlagProjectID,
				config.FlagAPIKey,
				config.FlagSpoolSQLite,
			})

			cmder.baseURL = v.GetString("memmachine.base_url")
			cmder.orgID = v.GetString("memmachine.org_id")
			cmder.projectID = v.GetString("memmachine.project_id")
			cmder.apiKey = v.GetString("memmachine.api_key")
			cmder.spoolSQLite = v.GetString("spool.sqlite_path")

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, fs, config.FlagBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, fs, config.FlagOrgID, &cmder.orgID)
	config.AddStringFlag(cmd, fs, config.FlagProjectID, &cmder.projectID)
	config.AddStringFlag(cmd, fs, config.FlagAPIKey, &cmder.apiKey)
	config.AddStringFlag(cmd, fs, config.FlagSpoolSQLite, &cmder.spoolSQLite)

	return cmd
}

func (c *flushCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	if c.spoolSQLite == "" {
		return fmt.Errorf("no spool database configured; set spool.sqlite_path or pass --spool-sqlite")
	}

	client, err := memmachine.NewClient(memmachine.Config{
		BaseURL:   c.baseURL,
		OrgID:     c.orgID,
		ProjectID: c.projectID,
		APIKey:    c.apiKey,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating memmachine client: %w", err)
	}

	spoolDriver, err := spoolsqlite.NewDriver(c.spoolSQLite)
	if err != nil {
		return fmt.Errorf("opening spool: %w", err)
	}
	defer spoolDriver.Close()

	ctx := context.Background()

	pending, err := spoolDriver.Len(ctx)
	if err != nil {
		return fmt.Errorf("counting spool entries: %w", err)
	}
	if pending == 0 {
		fmt.Println("Spool is empty. Nothing to flush.")
		return nil
	}

	provider, err := memory.NewProvider(
		client,
		spoolDriver,
		eventsnop.NewPublisher(),
		trace.NewZapTracer(c.logger),
		c.logger,
		memory.Options{},
	)
	if err != nil {
		return fmt.Errorf("creating memory provider: %w", err)
	}

	var flushed int
	err = cliui.Step(os.Stdout, fmt.Sprintf("Replaying %d spooled request(s)", pending), func() error {
		var flushErr error
		flushed, flushErr = provider.Flush(ctx)
		return flushErr
	})

	fmt.Printf("\n  Replayed %d of %d request(s)\n\n", flushed, pending)
	return err
}
