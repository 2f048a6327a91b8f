package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent memgate configuration stored as config.toml
// in the .memgate/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	MemMachine MemMachineConfig `toml:"memmachine"`
	Memory     MemoryConfig     `toml:"memory"`
	API        APIConfig        `toml:"api"`
	Client     ClientConfig     `toml:"client"`
	Spool      SpoolConfig      `toml:"spool"`
	Events     EventsConfig     `toml:"events"`
}

// MemMachineConfig holds connection settings for the remote MemMachine service.
type MemMachineConfig struct {
	BaseURL   string `toml:"base_url,omitempty"`
	OrgID     string `toml:"org_id,omitempty"`
	ProjectID string `toml:"project_id,omitempty"`
	APIKey    string `toml:"api_key,omitempty"`
}

// MemoryConfig holds recall shaping settings: how retrieved episodes are
// bucketed and whether they are rendered through a context template.
type MemoryConfig struct {
	HistoryCount   uint     `toml:"history_count,omitempty"`
	ShortTermCount uint     `toml:"short_term_count,omitempty"`
	EnableTemplate bool     `toml:"enable_template"`
	TemplatePath   string   `toml:"template_path,omitempty"`
	UserIDs        []string `toml:"user_ids,omitempty"`
	SessionID      string   `toml:"session_id,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// memgate API server (e.g. memgate recall, memgate store).
// Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// SpoolConfig holds offline spool settings for store requests that could not
// reach the remote service.
type SpoolConfig struct {
	Provider   string `toml:"provider,omitempty"`
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// EventsConfig holds event stream publisher settings.
type EventsConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"memmachine.base_url": {
		get: func(c *Config) string { return c.MemMachine.BaseURL },
		set: func(c *Config, v string) error { c.MemMachine.BaseURL = v; return nil },
	},
	"memmachine.org_id": {
		get: func(c *Config) string { return c.MemMachine.OrgID },
		set: func(c *Config, v string) error { c.MemMachine.OrgID = v; return nil },
	},
	"memmachine.project_id": {
		get: func(c *Config) string { return c.MemMachine.ProjectID },
		set: func(c *Config, v string) error { c.MemMachine.ProjectID = v; return nil },
	},
	"memmachine.api_key": {
		get: func(c *Config) string { return c.MemMachine.APIKey },
		set: func(c *Config, v string) error { c.MemMachine.APIKey = v; return nil },
	},
	"memory.history_count": {
		get: func(c *Config) string {
			if c.Memory.HistoryCount == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Memory.HistoryCount), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for memory.history_count: %w", err)
			}
			c.Memory.HistoryCount = uint(n)
			return nil
		},
	},
	"memory.short_term_count": {
		get: func(c *Config) string {
			if c.Memory.ShortTermCount == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Memory.ShortTermCount), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for memory.short_term_count: %w", err)
			}
			c.Memory.ShortTermCount = uint(n)
			return nil
		},
	},
	"memory.enable_template": {
		get: func(c *Config) string { return strconv.FormatBool(c.Memory.EnableTemplate) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for memory.enable_template: %w", err)
			}
			c.Memory.EnableTemplate = b
			return nil
		},
	},
	"memory.template_path": {
		get: func(c *Config) string { return c.Memory.TemplatePath },
		set: func(c *Config, v string) error { c.Memory.TemplatePath = v; return nil },
	},
	"memory.user_ids": {
		get: func(c *Config) string { return strings.Join(c.Memory.UserIDs, ",") },
		set: func(c *Config, v string) error {
			c.Memory.UserIDs = splitList(v)
			return nil
		},
	},
	"memory.session_id": {
		get: func(c *Config) string { return c.Memory.SessionID },
		set: func(c *Config, v string) error { c.Memory.SessionID = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"spool.provider": {
		get: func(c *Config) string { return c.Spool.Provider },
		set: func(c *Config, v string) error { c.Spool.Provider = v; return nil },
	},
	"spool.sqlite_path": {
		get: func(c *Config) string { return c.Spool.SQLitePath },
		set: func(c *Config, v string) error { c.Spool.SQLitePath = v; return nil },
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Events.Brokers = splitList(v)
			return nil
		},
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}

// splitList parses a comma-separated value into a trimmed, empty-free list.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
