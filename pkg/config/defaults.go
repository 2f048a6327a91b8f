package config

const (
	defaultBaseURL   = "http://localhost:8080"
	defaultOrgID     = "default"
	defaultProjectID = "default"

	defaultHistoryCount   = 5
	defaultShortTermCount = 10

	defaultAPIListen       = ":8081"
	defaultClientAPITarget = "http://localhost:8081"

	defaultSpoolProvider = "inmemory"

	defaultEventsProvider = "none"
	defaultEventsTopic    = "memgate.memory.stored"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		MemMachine: MemMachineConfig{
			BaseURL:   defaultBaseURL,
			OrgID:     defaultOrgID,
			ProjectID: defaultProjectID,
		},
		Memory: MemoryConfig{
			HistoryCount:   defaultHistoryCount,
			ShortTermCount: defaultShortTermCount,
			EnableTemplate: true,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Spool: SpoolConfig{
			Provider: defaultSpoolProvider,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
