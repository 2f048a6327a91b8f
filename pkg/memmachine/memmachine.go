// Package memmachine provides an HTTP client for a remote MemMachine memory
// service.
//
// The client owns the full network policy for the gateway: one request per
// call, no backoff, and a single automatic project-create-and-retry on the
// store path when the service reports the target project missing. Everything
// returned from Search is raw response bytes; decoding the two supported
// response shapes belongs to pkg/memory.
package memmachine

import (
	"fmt"
)

// Message is one conversational message in a store request.
type Message struct {
	Content     string         `json:"content"`
	Producer    string         `json:"producer,omitempty"`
	ProducedFor string         `json:"produced_for,omitempty"`
	Role        string         `json:"role,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// StoreRequest is the payload for POST /v1/memories.
type StoreRequest struct {
	OrgID     string    `json:"org_id"`
	ProjectID string    `json:"project_id"`
	Messages  []Message `json:"messages"`
}

// SearchRequest is the payload for POST /v1/memories/search.
type SearchRequest struct {
	OrgID     string `json:"org_id"`
	ProjectID string `json:"project_id"`
	Query     string `json:"query"`
	Limit     int    `json:"limit,omitempty"`
}

// ProjectRequest is the payload for POST /v1/projects.
type ProjectRequest struct {
	OrgID     string `json:"org_id"`
	ProjectID string `json:"project_id"`
}

// APIError is a non-2xx answer from the service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("memmachine API error (HTTP %d): %s", e.StatusCode, e.Body)
}
