// Package storecmder provides the store command for persisting conversation
// messages through a running memgate API server.
package storecmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	memgateapi "github.com/memgatehq/memgate/api"
	"github.com/memgatehq/memgate/pkg/cliui"
	"github.com/memgatehq/memgate/pkg/config"
	"github.com/memgatehq/memgate/pkg/logger"
	"github.com/memgatehq/memgate/pkg/memmachine"
	"github.com/memgatehq/memgate/pkg/utils"
)

type storeCommander struct {
	content     string
	producer    string
	producedFor string
	role        string
	apiTarget   string

	debug   bool
	logFile string
	log     *slog.Logger
}

const storeLongDesc string = `Store a conversation message via the memgate API.

The message content is the positional argument; who said it and to whom come
from flags. Requires a running memgate API server. If the memory service is
unreachable the server spools the message for later replay with
"memgate flush".

Examples:
  memgate store "I'm vegetarian and allergic to peanuts" --producer alice --produced-for agent
  memgate store "Noted, I'll remember that" --producer agent --produced-for alice --role assistant`

const storeShortDesc string = "Store a conversation message"

func NewStoreCmd() *cobra.Command {
	cmder := &storeCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "store <content>",
		Short: storeShortDesc,
		Long:  storeLongDesc,
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
			cmder.content = args[0]

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
	cmd.Flags().StringVarP(&cmder.producer, "producer", "p", "", "Who produced the message (user or agent id)")
	cmd.Flags().StringVar(&cmder.producedFor, "produced-for", "", "Who the message was produced for")
	cmd.Flags().StringVarP(&cmder.role, "role", "r", "user", "Message role (user, assistant)")

	return cmd
}

func (c *storeCommander) run() error {
	log, closeLog, err := logger.NewCLI(c.debug, c.logFile)
	if err != nil {
		return err
	}
	defer closeLog()
	c.log = log

	message := memmachine.Message{
		Content:     c.content,
		Producer:    c.producer,
		ProducedFor: c.producedFor,
		Role:        c.role,
	}
	c.log.Debug("storing message",
		"producer", c.producer,
		"produced_for", c.producedFor,
		"role", c.role,
		"api_target", c.apiTarget,
		"content", utils.Truncate(utils.FirstLine(c.content), 80),
	)

	var stored int
	err = cliui.Step(os.Stdout, "Storing message", func() error {
		var err error
		stored, err = StoreAPI(c.apiTarget, []memmachine.Message{message})
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n  Stored %d message(s)\n\n", stored)
	return nil
}

// StoreAPI posts messages to a memgate API server and returns the stored
// count.
func StoreAPI(apiTarget string, messages []memmachine.Message) (int, error) {
	target, err := url.Parse(apiTarget)
	if err != nil {
		return 0, fmt.Errorf("invalid API target URL: %w", err)
	}
	target.Path = "/v1/store"

	payload, err := json.Marshal(memgateapi.StoreRequest{Messages: messages})
	if err != nil {
		return 0, fmt.Errorf("encoding store request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		context.Background(), http.MethodPost, target.String(), bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("creating store request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to memgate API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return 0, fmt.Errorf("store request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var output memgateapi.StoreResponse
	if err := json.Unmarshal(body, &output); err != nil {
		return 0, fmt.Errorf("failed to parse store response: %w", err)
	}

	return output.Stored, nil
}
