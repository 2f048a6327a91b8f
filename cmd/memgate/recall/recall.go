// Package recallcmder provides the recall command for fetching a rendered
// memory context from a running memgate API server.
package recallcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	memgateapi "github.com/memgatehq/memgate/api"
	"github.com/memgatehq/memgate/pkg/cliui"
	"github.com/memgatehq/memgate/pkg/config"
	"github.com/memgatehq/memgate/pkg/logger"
)

type recallCommander struct {
	query     string
	apiTarget string
	render    bool
	raw       bool

	debug   bool
	logFile string
	log     *slog.Logger
}

const recallLongDesc string = `Recall a rendered memory context via the memgate API.

Fetches memories relevant to the query and prints the rendered markdown
context block. Requires a running memgate API server.

Use --render to preview the context with terminal markdown styling, or --raw
to print recalled messages as JSON instead of the rendered template.

Examples:
  memgate recall "what diet does the user follow"
  memgate recall "project deadlines" --api-target http://localhost:8081
  memgate recall "user preferences" --render
  memgate recall "user preferences" --raw | jq '.messages[].content'`

const recallShortDesc string = "Recall a rendered memory context"

func NewRecallCmd() *cobra.Command {
	cmder := &recallCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "recall <query>",
		Short: recallShortDesc,
		Long:  recallLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.logFile, _ = cmd.Flags().GetString("log-file")

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, fs, config.FlagAPITarget, &cmder.apiTarget)
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Render the context with terminal markdown styling")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print recalled messages as JSON instead of the rendered context")

	return cmd
}

func (c *recallCommander) run() error {
	log, closeLog, err := logger.NewCLI(c.debug, c.logFile)
	if err != nil {
		return err
	}
	defer closeLog()
	c.log = log

	if c.raw {
		return c.printRaw()
	}

	rendered, err := ContextAPI(c.apiTarget, c.query)
	if err != nil {
		return err
	}

	if c.render {
		styled, err := cliui.RenderMarkdown(rendered)
		if err == nil {
			fmt.Print(styled)
			return nil
		}
		c.log.Debug("markdown rendering failed, printing plain", "error", err)
	}

	fmt.Println(rendered)
	return nil
}

func (c *recallCommander) printRaw() error {
	body, err := getJSON(c.apiTarget, "/v1/search", c.query)
	if err != nil {
		return err
	}

	fmt.Println(string(body))
	return nil
}

// ContextAPI fetches the rendered memory context for a query from a memgate
// API server.
func ContextAPI(apiTarget, query string) (string, error) {
	body, err := getJSON(apiTarget, "/v1/context", query)
	if err != nil {
		return "", err
	}

	var output memgateapi.ContextResponse
	if err := json.Unmarshal(body, &output); err != nil {
		return "", fmt.Errorf("failed to parse context response: %w", err)
	}

	return output.Context, nil
}

func getJSON(apiTarget, path, query string) ([]byte, error) {
	target, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	target.Path = path
	q := target.Query()
	q.Set("query", query)
	target.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating recall request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to memgate API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recall request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}
