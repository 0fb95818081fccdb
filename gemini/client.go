package gemini

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
	// BaseURL is the Google AI Studio API base URL
	BaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultTimeout for API requests
	DefaultTimeout = 5 * time.Minute

	// DefaultImageModel renders logos
	DefaultImageModel = "imagen-4.0-generate-001"

	// DefaultVideoModel animates logos
	DefaultVideoModel = "veo-3.1-fast-generate-preview"

	// DefaultPollInterval is the fixed wait between operation checks
	DefaultPollInterval = 10 * time.Second
)

// ErrNoObjectStore is returned when a video finishes but the client has
// nowhere to put it.
var ErrNoObjectStore = errors.New("no object store configured")

// ObjectPutter stores downloaded bytes and returns a local URL for them.
type ObjectPutter interface {
	Put(data []byte, mimeType string) (string, error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Client is the Gemini generation client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	imageModel string
	videoModel string

	pollInterval time.Duration
	sleep        SleepFunc
	messages     []string
	store        ObjectPutter
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL (for testing)
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return
		}
		if parsed.Host == "" {
			return
		}
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the HTTP client timeout on a copy of the current client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout <= 0 {
			return
		}
		hc := *c.httpClient
		hc.Timeout = timeout
		c.httpClient = &hc
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithImageModel overrides the logo model
func WithImageModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.imageModel = model
		}
	}
}

// WithVideoModel overrides the animation model
func WithVideoModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.videoModel = model
		}
	}
}

// WithPollInterval sets the wait between operation checks
func WithPollInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithSleep replaces the wait between polls (for testing)
func WithSleep(sleep SleepFunc) ClientOption {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// WithStatusMessages replaces the rotating progress messages
func WithStatusMessages(messages []string) ClientOption {
	return func(c *Client) {
		if len(messages) > 0 {
			c.messages = append([]string(nil), messages...)
		}
	}
}

// WithObjectStore sets where downloaded videos are kept
func WithObjectStore(store ObjectPutter) ClientOption {
	return func(c *Client) {
		c.store = store
	}
}

// NewClient creates a new Gemini client for apiKey
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		apiKey:  apiKey,
		baseURL: BaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:       zap.NewNop(),
		imageModel:   DefaultImageModel,
		videoModel:   DefaultVideoModel,
		pollInterval: DefaultPollInterval,
		sleep:        sleepContext,
		messages:     append([]string(nil), StatusMessages...),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Factory builds a client for the key selected at call time.
type Factory func(apiKey string) (*Client, error)

// NewFactory returns a Factory that applies opts to every client.
func NewFactory(opts ...ClientOption) Factory {
	return func(apiKey string) (*Client, error) {
		return NewClient(apiKey, opts...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// endpoint builds an API URL with the key as a query parameter.
func (c *Client) endpoint(path string) string {
	q := url.Values{}
	q.Set("key", c.apiKey)
	return fmt.Sprintf("%s/%s?%s", c.baseURL, strings.TrimPrefix(path, "/"), q.Encode())
}

// redact masks the key query parameter of raw. Anything that does not parse
// as a URL is returned unchanged.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if !q.Has("key") {
		return raw
	}
	q.Del("key")
	rest := q.Encode()
	if rest != "" {
		rest += "&"
	}
	u.RawQuery = rest + "key=***"
	return u.String()
}

// requestError wraps a transport failure with the key masked in its URL.
func requestError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = redact(uerr.URL)
	}
	return fmt.Errorf("request failed: %w", err)
}

// doJSON sends in (if any) and decodes a 200 response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	apiURL := c.endpoint(path)

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return requestError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("gemini request",
		zap.String("method", method),
		zap.String("url", redact(apiURL)),
		zap.Int("status", resp.StatusCode),
		zap.Int("response_bytes", len(respBody)),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorBody
		if err := json.Unmarshal(respBody, &apiErr); err != nil || apiErr.Error.Message == "" {
			return &APIError{
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 200)),
			}
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     apiErr.Error.Status,
			Message:    apiErr.Error.Message,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
