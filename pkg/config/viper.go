package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/memgatehq/memgate/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the MEMGATE_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (MEMGATE_API_LISTEN, MEMGATE_MEMMACHINE_BASE_URL, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: MEMGATE_API_LISTEN, MEMGATE_SPOOL_SQLITE_PATH, etc.
	v.SetEnvPrefix("MEMGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// MemMachine service
	v.SetDefault("memmachine.base_url", d.MemMachine.BaseURL)
	v.SetDefault("memmachine.org_id", d.MemMachine.OrgID)
	v.SetDefault("memmachine.project_id", d.MemMachine.ProjectID)
	v.SetDefault("memmachine.api_key", d.MemMachine.APIKey)

	// Memory shaping
	v.SetDefault("memory.history_count", d.Memory.HistoryCount)
	v.SetDefault("memory.short_term_count", d.Memory.ShortTermCount)
	v.SetDefault("memory.enable_template", d.Memory.EnableTemplate)
	v.SetDefault("memory.template_path", d.Memory.TemplatePath)
	v.SetDefault("memory.user_ids", d.Memory.UserIDs)
	v.SetDefault("memory.session_id", d.Memory.SessionID)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Client
	v.SetDefault("client.api_target", d.Client.APITarget)

	// Spool
	v.SetDefault("spool.provider", d.Spool.Provider)
	v.SetDefault("spool.sqlite_path", d.Spool.SQLitePath)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}
