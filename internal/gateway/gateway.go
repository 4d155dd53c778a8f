// Package gateway is the single HTTP channel to the dashboard backend. Every
// request carries the tenant header; responses are classified before any
// payload is handed back.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/johnwards/dashgate/internal/contract"
)

// TenantHeader names the header that scopes every request to one tenant.
const TenantHeader = "X-Tenant-ID"

// Settings are fixed for the lifetime of a Gateway.
type Settings struct {
	BaseURL  string
	TenantID string
}

// Method is a mutating verb.
type Method int

const (
	// Create issues a POST.
	Create Method = iota
	// Update issues a PATCH.
	Update
)

func (m Method) String() string {
	if m == Update {
		return http.MethodPatch
	}
	return http.MethodPost
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		if c != nil {
			g.client = c
		}
	}
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithRateLimit paces outgoing requests to rps per second with the given
// burst. A request waits for a token before it is issued; nothing is retried.
// rps <= 0 leaves pacing off.
func WithRateLimit(rps float64, burst int) Option {
	return func(g *Gateway) {
		if rps <= 0 {
			g.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// Gateway issues tenant-scoped requests against the backend.
type Gateway struct {
	settings Settings
	client   *http.Client
	logger   *slog.Logger
	limiter  *rate.Limiter
}

// New validates s and returns a Gateway.
func New(s Settings, opts ...Option) (*Gateway, error) {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("base url %q: must be an absolute http(s) url", s.BaseURL)
	}
	if strings.TrimSpace(s.TenantID) == "" {
		return nil, errors.New("tenant id is required")
	}
	s.BaseURL = strings.TrimSuffix(s.BaseURL, "/")

	g := &Gateway{
		settings: s,
		client:   http.DefaultClient,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Settings returns the settings the gateway was built with.
func (g *Gateway) Settings() Settings {
	return g.settings
}

// Request is a raw request for Fetch. Path is relative to the base URL.
type Request struct {
	Method      string
	Path        string
	ContentType string
	Body        io.Reader
}

// Response is a fully read 2xx response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Get reads path and returns the parsed, unvalidated JSON body.
func (g *Gateway) Get(ctx context.Context, path string) (any, error) {
	return g.doJSON(ctx, http.MethodGet, path, nil)
}

// Mutate sends body as JSON with the given method. Success is decided by the
// HTTP status alone; the response body is discarded unparsed.
func (g *Gateway) Mutate(ctx context.Context, path string, m Method, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s %s body: %w", m, path, err)
	}
	_, err = g.Fetch(ctx, Request{
		Method:      m.String(),
		Path:        path,
		ContentType: "application/json",
		Body:        bytes.NewReader(b),
	})
	return err
}

func (g *Gateway) doJSON(ctx context.Context, method, path string, body []byte) (any, error) {
	req := Request{Method: method, Path: path, ContentType: "application/json"}
	if body != nil {
		req.Body = bytes.NewReader(body)
	}
	resp, err := g.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	return contract.Parse(resp.Body)
}

// Fetch issues one request. The tenant header is always set; Content-Type
// only when req.ContentType is non-empty. Non-2xx responses become
// *HTTPStatusError with the body discarded.
func (g *Gateway) Fetch(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	fullURL := g.settings.BaseURL + "/" + strings.TrimPrefix(req.Path, "/")

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, req.Body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set(TenantHeader, g.settings.TenantID)
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Method: req.Method, Path: req.Path, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	if err != nil {
		g.logger.DebugContext(ctx, "gateway request failed",
			"method", req.Method,
			"path", req.Path,
			"error", err,
		)
		return nil, &TransportError{Method: req.Method, Path: req.Path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	g.logger.DebugContext(ctx, "gateway request",
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Method: req.Method, Path: req.Path}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: req.Method, Path: req.Path, Err: fmt.Errorf("read body: %w", err)}
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}
