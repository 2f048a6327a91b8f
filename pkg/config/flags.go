package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --api-target
// on "memgate recall" and "memgate store").
type Flag struct {
	// Name is the long flag name (e.g. "base-url").
	Name string

	// Shorthand is the one-letter short flag (e.g. "b"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "memmachine.base_url").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag, AddBoolFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagAPIListen      = "api-listen"
	FlagBaseURL        = "base-url"
	FlagOrgID          = "org"
	FlagProjectID      = "project"
	FlagAPIKey         = "api-key"
	FlagHistoryCount   = "history-count"
	FlagShortTermCount = "short-term-count"
	FlagEnableTemplate = "enable-template"
	FlagTemplatePath   = "template"
	FlagAPITarget      = "api-target"
	FlagSpoolProvider  = "spool-provider"
	FlagSpoolSQLite    = "spool-sqlite"
	FlagEventsProvider = "events-provider"
	FlagEventsTopic    = "events-topic"
)

// DefaultFlagSet returns the standard registry used by memgate commands.
func DefaultFlagSet() FlagSet {
	return FlagSet{
		FlagAPIListen: {
			Name:        "listen",
			Shorthand:   "l",
			ViperKey:    "api.listen",
			Description: "Address for the API server to listen on",
		},
		FlagBaseURL: {
			Name:        "base-url",
			Shorthand:   "b",
			ViperKey:    "memmachine.base_url",
			Description: "MemMachine service base URL",
		},
		FlagOrgID: {
			Name:        "org",
			ViperKey:    "memmachine.org_id",
			Description: "MemMachine organization id",
		},
		FlagProjectID: {
			Name:        "project",
			ViperKey:    "memmachine.project_id",
			Description: "MemMachine project id",
		},
		FlagAPIKey: {
			Name:        "api-key",
			ViperKey:    "memmachine.api_key",
			Description: "MemMachine API key",
		},
		FlagHistoryCount: {
			Name:        "history-count",
			ViperKey:    "memory.history_count",
			Description: "Number of recalled episodes bucketed as conversation history",
		},
		FlagShortTermCount: {
			Name:        "short-term-count",
			ViperKey:    "memory.short_term_count",
			Description: "Number of recalled episodes bucketed as short-term memory",
		},
		FlagEnableTemplate: {
			Name:        "enable-template",
			ViperKey:    "memory.enable_template",
			Description: "Render recalled context through the configured template file",
		},
		FlagTemplatePath: {
			Name:        "template",
			Shorthand:   "t",
			ViperKey:    "memory.template_path",
			Description: "Path to the context template file",
		},
		FlagAPITarget: {
			Name:        "api-target",
			ViperKey:    "client.api_target",
			Description: "memgate API server URL",
		},
		FlagSpoolProvider: {
			Name:        "spool-provider",
			ViperKey:    "spool.provider",
			Description: "Spool backend for failed store requests (none, inmemory, sqlite)",
		},
		FlagSpoolSQLite: {
			Name:        "spool-sqlite",
			ViperKey:    "spool.sqlite_path",
			Description: "Path to the spool SQLite database",
		},
		FlagEventsProvider: {
			Name:        "events-provider",
			ViperKey:    "events.provider",
			Description: "Event stream publisher (none, kafka)",
		},
		FlagEventsTopic: {
			Name:        "events-topic",
			ViperKey:    "events.topic",
			Description: "Event stream topic for stored-memory events",
		},
	}
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}
