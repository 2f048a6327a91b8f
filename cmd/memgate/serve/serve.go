// Package servecmder provides the serve command for running the memgate API
// and MCP server.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/memgatehq/memgate/api"
	"github.com/memgatehq/memgate/api/mcp"
	"github.com/memgatehq/memgate/pkg/config"
	"github.com/memgatehq/memgate/pkg/eventstream"
	eventskafka "github.com/memgatehq/memgate/pkg/eventstream/kafka"
	eventsnop "github.com/memgatehq/memgate/pkg/eventstream/nop"
	"github.com/memgatehq/memgate/pkg/logger"
	"github.com/memgatehq/memgate/pkg/memmachine"
	"github.com/memgatehq/memgate/pkg/memory"
	"github.com/memgatehq/memgate/pkg/spool"
	spoolinmemory "github.com/memgatehq/memgate/pkg/spool/inmemory"
	spoolsqlite "github.com/memgatehq/memgate/pkg/spool/sqlite"
	"github.com/memgatehq/memgate/pkg/trace"
)

type serveCommander struct {
	listen         string
	baseURL        string
	orgID          string
	projectID      string
	apiKey         string
	historyCount   uint
	shortTermCount uint
	enableTemplate bool
	templatePath   string
	spoolProvider  string
	spoolSQLite    string
	eventsProvider string
	eventsTopic    string

	debug bool
	noMCP bool

	viper  *viper.Viper
	logger *zap.Logger
}

const serveLongDesc string = `Run the memgate API server.

Serves memory recall and store over HTTP, and exposes the same operations as
MCP tools at /mcp for agent runtimes that speak the Model Context Protocol.

When a template file is configured, the server watches it and hot-reloads the
recall template on change, so prompt layout edits apply without a restart.

Examples:
  memgate serve
  memgate serve --listen :9090 --base-url http://memmachine:8080
  memgate serve --template ./context.tmpl --spool-provider sqlite`

const serveShortDesc string = "Run the memgate API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, fs, []string{
				config.FlagAPIListen,
				config.FlagBaseURL,
				config.FlagOrgID,
				config.FlagProjectID,
				config.FlagAPIKey,
				config.FlagHistoryCount,
				config.FlagShortTermCount,
				config.FlagEnableTemplate,
				config.FlagTemplatePath,
				config.FlagSpoolProvider,
				config.FlagSpoolSQLite,
				config.FlagEventsProvider,
				config.FlagEventsTopic,
			})

			cmder.viper = v
			cmder.listen = v.GetString("api.listen")
			cmder.baseURL = v.GetString("memmachine.base_url")
			cmder.orgID = v.GetString("memmachine.org_id")
			cmder.projectID = v.GetString("memmachine.project_id")
			cmder.apiKey = v.GetString("memmachine.api_key")
			cmder.historyCount = v.GetUint("memory.history_count")
			cmder.shortTermCount = v.GetUint("memory.short_term_count")
			cmder.enableTemplate = v.GetBool("memory.enable_template")
			cmder.templatePath = v.GetString("memory.template_path")
			cmder.spoolProvider = v.GetString("spool.provider")
			cmder.spoolSQLite = v.GetString("spool.sqlite_path")
			cmder.eventsProvider = v.GetString("events.provider")
			cmder.eventsTopic = v.GetString("events.topic")

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

	config.AddStringFlag(cmd, fs, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, fs, config.FlagBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, fs, config.FlagOrgID, &cmder.orgID)
	config.AddStringFlag(cmd, fs, config.FlagProjectID, &cmder.projectID)
	config.AddStringFlag(cmd, fs, config.FlagAPIKey, &cmder.apiKey)
	config.AddUintFlag(cmd, fs, config.FlagHistoryCount, &cmder.historyCount)
	config.AddUintFlag(cmd, fs, config.FlagShortTermCount, &cmder.shortTermCount)
	config.AddBoolFlag(cmd, fs, config.FlagEnableTemplate, &cmder.enableTemplate)
	config.AddStringFlag(cmd, fs, config.FlagTemplatePath, &cmder.templatePath)
	config.AddStringFlag(cmd, fs, config.FlagSpoolProvider, &cmder.spoolProvider)
	config.AddStringFlag(cmd, fs, config.FlagSpoolSQLite, &cmder.spoolSQLite)
	config.AddStringFlag(cmd, fs, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, fs, config.FlagEventsTopic, &cmder.eventsTopic)
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Disable the MCP endpoint")

	return cmd
}

func (c *serveCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	client, err := memmachine.NewClient(memmachine.Config{
		BaseURL:   c.baseURL,
		OrgID:     c.orgID,
		ProjectID: c.projectID,
		APIKey:    c.apiKey,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating memmachine client: %w", err)
	}

	spoolDriver, err := c.newSpoolDriver()
	if err != nil {
		return err
	}
	defer spoolDriver.Close()

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	template, err := c.loadTemplate()
	if err != nil {
		return err
	}

	provider, err := memory.NewProvider(
		client,
		spoolDriver,
		publisher,
		trace.NewZapTracer(c.logger),
		c.logger,
		memory.Options{
			HistoryCount:   int(c.historyCount),
			ShortTermCount: int(c.shortTermCount),
			Template:       template,
			UserIDs:        c.viper.GetStringSlice("memory.user_ids"),
			SessionID:      c.viper.GetString("memory.session_id"),
		},
	)
	if err != nil {
		return fmt.Errorf("creating memory provider: %w", err)
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Provider: provider,
		Noop:     c.noMCP,
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	apiServer, err := api.NewServer(
		api.Config{ListenAddr: c.listen},
		provider,
		mcpServer.Handler(),
		c.logger,
	)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if c.enableTemplate && c.templatePath != "" {
		go c.watchTemplate(ctx, provider)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return apiServer.Shutdown()
	}
}

func (c *serveCommander) newSpoolDriver() (spool.Driver, error) {
	if c.spoolProvider == "sqlite" {
		path := c.spoolSQLite
		if path == "" {
			path = "memgate-spool.db"
		}
		driver, err := spoolsqlite.NewDriver(path)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite spool: %w", err)
		}
		c.logger.Info("using SQLite spool", zap.String("path", path))
		return driver, nil
	}

	c.logger.Info("using in-memory spool")
	return spoolinmemory.NewDriver(), nil
}

func (c *serveCommander) newPublisher() (eventstream.Publisher, error) {
	if c.eventsProvider == "kafka" {
		brokers := c.viper.GetStringSlice("events.brokers")
		publisher, err := eventskafka.NewPublisher(brokers, c.eventsTopic)
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		c.logger.Info("publishing stored events to kafka",
			zap.Strings("brokers", brokers),
			zap.String("topic", c.eventsTopic),
		)
		return publisher, nil
	}

	return eventsnop.NewPublisher(), nil
}

// loadTemplate reads the configured template file. An empty path, or
// enable_template set to false, means the provider uses its built-in default.
func (c *serveCommander) loadTemplate() (string, error) {
	if !c.enableTemplate || c.templatePath == "" {
		return "", nil
	}

	data, err := os.ReadFile(c.templatePath)
	if err != nil {
		return "", fmt.Errorf("reading template %s: %w", c.templatePath, err)
	}

	return string(data), nil
}

// watchTemplate hot-reloads the recall template when the file changes.
// Watching the directory rather than the file survives editors that rename
// on save.
func (c *serveCommander) watchTemplate(ctx context.Context, provider *memory.Provider) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.logger.Warn("template watch disabled", zap.Error(err))
		return
	}
	defer watcher.Close()

	dir := filepath.Dir(c.templatePath)
	if err := watcher.Add(dir); err != nil {
		c.logger.Warn("template watch disabled", zap.Error(err))
		return
	}

	target, _ := filepath.Abs(c.templatePath)
	c.logger.Info("watching template for changes", zap.String("path", c.templatePath))

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			changed, _ := filepath.Abs(event.Name)
			if changed != target {
				continue
			}

			template, err := c.loadTemplate()
			if err != nil {
				c.logger.Warn("template reload failed", zap.Error(err))
				continue
			}

			provider.SetTemplate(template)
			c.logger.Info("template reloaded", zap.String("path", c.templatePath))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("template watch error", zap.Error(err))
		}
	}
}
