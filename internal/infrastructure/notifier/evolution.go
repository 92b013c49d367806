// Package notifier delivers WhatsApp text messages through an Evolution API instance.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/infrastructure/config"
)

const (
	// maxResponseSize caps how much of an Evolution response is read
	maxResponseSize = 1 << 20
	defaultTimeout  = 15 * time.Second
)

// ErrNotConfigured is returned when the base URL, instance or key is missing
var ErrNotConfigured = errors.New("notifier: evolution api is not configured")

// EvolutionClient implements payables.Notifier against the Evolution WhatsApp API
type EvolutionClient struct {
	baseURL      string
	instanceName string
	apiKey       string
	httpClient   *http.Client
}

// Option configures an EvolutionClient
type Option func(*EvolutionClient)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(e *EvolutionClient) {
		e.httpClient = c
	}
}

// NewEvolutionClient creates a client for the configured instance.
// The instance key authenticates requests; the master key is the fallback.
func NewEvolutionClient(cfg config.NotifierConfig, opts ...Option) (*EvolutionClient, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	key := cfg.InstanceKey
	if key == "" {
		key = cfg.MasterKey
	}

	c := &EvolutionClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		instanceName: cfg.InstanceName,
		apiKey:       key,
		httpClient:   &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SendText sends message to phone, which must be in international digits-only form
func (c *EvolutionClient) SendText(ctx context.Context, phone, message string) (*payables.SendResult, error) {
	body, err := json.Marshal(map[string]string{
		"number": phone,
		"text":   message,
	})
	if err != nil {
		return nil, &payables.NotifyError{Kind: payables.NotifyGeneric, StatusCode: http.StatusInternalServerError, Err: err}
	}
	return c.do(ctx, http.MethodPost, "/message/sendText/"+url.PathEscape(c.instanceName), body)
}

// ConnectionState reports whether the WhatsApp instance is connected
func (c *EvolutionClient) ConnectionState(ctx context.Context) (*payables.SendResult, error) {
	return c.do(ctx, http.MethodGet, "/instance/connectionState/"+url.PathEscape(c.instanceName), nil)
}

func (c *EvolutionClient) do(ctx context.Context, method, path string, payload []byte) (*payables.SendResult, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &payables.NotifyError{Kind: payables.NotifyGeneric, StatusCode: http.StatusInternalServerError, Err: err}
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, classifyTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &payables.NotifyError{
			Kind:       payables.NotifyHTTP,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	return &payables.SendResult{
		StatusCode: resp.StatusCode,
		Response:   asJSON(raw),
	}, nil
}

// classifyTransportError maps client failures to timeout (504), connection (503) or generic (500)
func classifyTransportError(err error) *payables.NotifyError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return &payables.NotifyError{Kind: payables.NotifyTimeout, StatusCode: http.StatusGatewayTimeout, Err: err}
	case errors.Is(err, context.Canceled):
		return &payables.NotifyError{Kind: payables.NotifyGeneric, StatusCode: http.StatusInternalServerError, Err: err}
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	var urlErr *url.Error
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) || errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &urlErr) {
		return &payables.NotifyError{Kind: payables.NotifyConnection, StatusCode: http.StatusServiceUnavailable, Err: err}
	}
	return &payables.NotifyError{Kind: payables.NotifyGeneric, StatusCode: http.StatusInternalServerError, Err: err}
}

// asJSON keeps valid JSON as is and wraps anything else as a JSON string
func asJSON(raw []byte) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(raw) {
		return json.RawMessage(raw)
	}
	quoted, _ := json.Marshal(string(raw))
	return quoted
}

var _ payables.Notifier = (*EvolutionClient)(nil)
