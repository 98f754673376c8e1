package testmonitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	queryStepsPath = "/nitestmonitor/v2/query-steps"

	apiKeyHeader = "x-ni-api-key"

	defaultTimeout = 30 * time.Second

	// maxErrorBodyBytes caps how much of an error response body is kept
	// for the APIError message.
	maxErrorBodyBytes = 4096
)

// Client issues step queries against a test monitor service.
type Client interface {
	// QuerySteps returns one page of steps matching the request filters,
	// along with a continuation token when more pages remain.
	QuerySteps(ctx context.Context, req *QueryStepsRequest) (*QueryStepsResponse, error)
}

// Config contains the settings needed to reach a test monitor service.
type Config struct {
	// URL is the base URL of the service, e.g. "https://systems.example.com".
	URL string

	// APIKey is sent in the x-ni-api-key header when non-empty.
	APIKey string

	// Timeout bounds each HTTP request. Zero means the default.
	Timeout time.Duration
}

// APIError is returned when the service responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("query api returned status %d", e.StatusCode)
	}

	return fmt.Sprintf("query api returned status %d: %s", e.StatusCode, e.Message)
}

// Compile-time interface check.
var _ Client = (*httpClient)(nil)

type httpClient struct {
	log    logrus.FieldLogger
	base   *url.URL
	apiKey string
	hc     *http.Client
}

// New creates an HTTP Client for the service described by cfg.
func New(log logrus.FieldLogger, cfg *Config) (Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("server url is required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &httpClient{
		log:    log.WithField("component", "testmonitor"),
		base:   base,
		apiKey: cfg.APIKey,
		hc:     &http.Client{Timeout: timeout},
	}, nil
}

// QuerySteps POSTs the request to the query-steps endpoint and decodes
// one page of results.
func (c *httpClient) QuerySteps(
	ctx context.Context, req *QueryStepsRequest,
) (*QueryStepsResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		c.base.JoinPath(queryStepsPath).String(),
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	if c.apiKey != "" {
		httpReq.Header.Set(apiKeyHeader, c.apiKey)
	}

	c.log.WithFields(logrus.Fields{
		"filter":        req.Filter,
		"result_filter": req.ResultFilter,
		"take":          req.Take,
		"continuation":  req.ContinuationToken != "",
	}).Debug("Querying steps")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("querying steps: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK ||
		resp.StatusCode >= http.StatusMultipleChoices {
		return nil, newAPIError(resp)
	}

	var out QueryStepsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &out, nil
}

// newAPIError builds an APIError from a failed response, extracting the
// server's error message when the body carries one.
func newAPIError(resp *http.Response) *APIError {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode}
	}

	// The service wraps failures as {"error": {"name": ..., "message": ...}}.
	var wrapped struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(data, &wrapped); err == nil &&
		wrapped.Error.Message != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    wrapped.Error.Message,
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(data)),
	}
}
