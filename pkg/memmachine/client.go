package memmachine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	memoriesPath = "/v1/memories"
	searchPath   = "/v1/memories/search"
	projectsPath = "/v1/projects"
	healthPath   = "/v1/health"

	defaultTimeout = 30 * time.Second
)

// Config holds connection settings for the MemMachine service.
type Config struct {
	// BaseURL is the service root, e.g. "http://localhost:8080".
	BaseURL string

	// OrgID and ProjectID scope every request.
	OrgID     string
	ProjectID string

	// APIKey, when set, is sent as a bearer token.
	APIKey string

	// Timeout bounds each HTTP request. Defaults to 30s.
	Timeout time.Duration
}

// Client talks to one MemMachine service instance. It is safe for concurrent
// use.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient validates the configuration and returns a ready client.
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("memmachine base URL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid memmachine base URL: %w", err)
	}
	if config.OrgID == "" {
		return nil, errors.New("memmachine org id is required")
	}
	if config.ProjectID == "" {
		return nil, errors.New("memmachine project id is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// OrgID returns the configured organization id.
func (c *Client) OrgID() string { return c.config.OrgID }

// ProjectID returns the configured project id.
func (c *Client) ProjectID() string { return c.config.ProjectID }

// Search retrieves memories relevant to the query and returns the raw
// response body. The service answers in one of two shapes (flat or nested);
// callers hand the bytes to memory.Normalize rather than decoding here.
func (c *Client) Search(ctx context.Context, query string, limit int) (json.RawMessage, error) {
	req := SearchRequest{
		OrgID:     c.config.OrgID,
		ProjectID: c.config.ProjectID,
		Query:     query,
		Limit:     limit,
	}

	body, err := c.post(ctx, searchPath, req)
	if err != nil {
		return nil, fmt.Errorf("searching memories: %w", err)
	}

	return body, nil
}

// Store persists messages to the configured project. When the service
// answers 404 with a body mentioning the project, the target project is
// created and the store retried exactly once; any other failure propagates
// immediately with no retry.
func (c *Client) Store(ctx context.Context, messages []Message) error {
	req := StoreRequest{
		OrgID:     c.config.OrgID,
		ProjectID: c.config.ProjectID,
		Messages:  messages,
	}

	_, err := c.post(ctx, memoriesPath, req)
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || !isProjectMissing(apiErr) {
		return fmt.Errorf("storing memories: %w", err)
	}

	c.logger.Info("project not found, creating and retrying store",
		zap.String("org_id", c.config.OrgID),
		zap.String("project_id", c.config.ProjectID),
	)

	if err := c.CreateProject(ctx); err != nil {
		return err
	}

	if _, err := c.post(ctx, memoriesPath, req); err != nil {
		return fmt.Errorf("storing memories after project create: %w", err)
	}

	return nil
}

// CreateProject creates the configured project.
func (c *Client) CreateProject(ctx context.Context) error {
	req := ProjectRequest{
		OrgID:     c.config.OrgID,
		ProjectID: c.config.ProjectID,
	}

	if _, err := c.post(ctx, projectsPath, req); err != nil {
		return fmt.Errorf("creating project: %w", err)
	}

	return nil
}

// DeleteMemories removes all memories in the configured project.
func (c *Client) DeleteMemories(ctx context.Context) error {
	req := ProjectRequest{
		OrgID:     c.config.OrgID,
		ProjectID: c.config.ProjectID,
	}

	if _, err := c.do(ctx, http.MethodDelete, memoriesPath, req); err != nil {
		return fmt.Errorf("deleting memories: %w", err)
	}

	return nil
}

// Ping checks service reachability.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodGet, healthPath, nil); err != nil {
		return fmt.Errorf("pinging memmachine: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, payload)
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.config.BaseURL, "/")+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connecting to memmachine at %s: %w", c.config.BaseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// isProjectMissing reports whether the error is the specific 404 the service
// emits when the target project does not exist yet.
func isProjectMissing(err *APIError) bool {
	return err.StatusCode == http.StatusNotFound &&
		strings.Contains(strings.ToLower(err.Body), "project")
}
