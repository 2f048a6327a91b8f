// Package api provides the HTTP API server for recalling and storing
// memories through the gateway.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string
}
