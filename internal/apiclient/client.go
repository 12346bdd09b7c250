// Package apiclient is the authenticated client for the cutdesk backend. Every
// backend call goes through Client.Do, which attaches the bearer token,
// refreshes and replays once on 401, handles session expiry and applies the
// demo-mode gate to mutating calls.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
	"github.com/cutdesk/cutdesk/internal/observability/metrics"
	"github.com/cutdesk/cutdesk/internal/ports"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "cutdesk-cli"
	maxResponseBytes = 16 << 20

	// SessionExpiredNotice is shown once when a session cannot be renewed.
	SessionExpiredNotice = "Session expired, please log in again"

	headerRequestID = "X-Request-ID"
)

// Session is the part of the session service the client depends on.
// Refresh must share one in-flight refresh between concurrent callers and
// hand all of them the same error value when it fails.
type Session interface {
	State(ctx context.Context) (domainauth.State, error)
	Refresh(ctx context.Context) (domainauth.Tokens, error)
	Expire(ctx context.Context) error
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	Session  Session
	Notifier ports.SessionNotifier
	Demo     ports.DemoSignal
	// DemoMode forces demo mode regardless of the persisted flag.
	DemoMode   bool
	Anonymizer *Anonymizer

	HTTPClient *http.Client
	Metrics    *metrics.ClientMetrics
	Logger     *slog.Logger
	// Observer, when set, sees every call state transition.
	Observer func(requestID string, from, to CallState)
}

// Client performs backend calls. It is safe for concurrent use.
type Client struct {
	base       *url.URL
	userAgent  string
	http       *http.Client
	session    Session
	notifier   ports.SessionNotifier
	demo       ports.DemoSignal
	forceDemo  bool
	anonymizer *Anonymizer
	metrics    *metrics.ClientMetrics
	logger     *slog.Logger
	observer   func(string, CallState, CallState)

	// expired records failures whose session-expired handling already ran.
	expiredMu sync.Mutex
	expired   map[any]struct{}
}

// New constructs a Client.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("apiclient: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("apiclient: base URL must be http or https, got %q", opts.BaseURL)
	}
	if opts.Session == nil {
		return nil, errors.New("apiclient: session is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "apiclient")

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		jar, jerr := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if jerr != nil {
			return nil, fmt.Errorf("apiclient: cookie jar: %w", jerr)
		}
		hc = &http.Client{Timeout: timeout, Jar: jar}
	}

	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = logNotifier{logger: logger}
	}
	demo := opts.Demo
	if demo == nil {
		demo = logDemoSignal{logger: logger}
	}
	anonymizer := opts.Anonymizer
	if anonymizer == nil {
		anonymizer = DefaultAnonymizer()
	}

	return &Client{
		base:       base,
		userAgent:  ua,
		http:       hc,
		session:    opts.Session,
		notifier:   notifier,
		demo:       demo,
		forceDemo:  opts.DemoMode,
		anonymizer: anonymizer,
		metrics:    opts.Metrics,
		logger:     logger,
		observer:   opts.Observer,
	}, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// Request describes one logical backend call.
type Request struct {
	Method string
	// Path is relative to the base URL; callers escape path segments.
	Path  string
	Query url.Values
	// Body is JSON-encoded when non-nil.
	Body any
	// Anonymous skips the Authorization header and session handling.
	Anonymous bool
}

// Response is a successful backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Intercepted is set when demo mode skipped a mutating call; no request
	// was sent.
	Intercepted bool
	// Demo reports whether demo mode was active for the call.
	Demo bool
}

// Decode unmarshals the body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if r == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Do sends req. Non-2xx responses become *APIError; a 401 that cannot be
// recovered by one refresh yields ErrSessionExpired after session-expired
// handling ran.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	start := time.Now()

	if isMutation(req.Method) {
		intercepted, demo, err := c.demoGate(ctx, req)
		if err != nil {
			return nil, err
		}
		if intercepted {
			return &Response{Intercepted: true, Demo: demo}, nil
		}
	}

	resp, err := c.do(ctx, req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	c.metrics.APIRequest(req.Method, status, time.Since(start), err)
	return resp, err
}

func (c *Client) do(ctx context.Context, req Request) (*Response, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}
	target := c.resolve(req.Path, req.Query)
	requestID := uuid.NewString()

	if req.Anonymous {
		resp, _, err := c.send(ctx, req.Method, target, body, "", requestID)
		return resp, err
	}

	st, err := c.session.State(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session state: %w", err)
	}
	demo := c.forceDemo || st.DemoMode

	flow := newCallFlow(requestID, c.observer)
	resp, status, err := c.send(ctx, req.Method, target, body, st.BearerToken(), requestID)
	if status != http.StatusUnauthorized {
		if err == nil {
			_ = flow.advance(StateDone)
			resp.Demo = demo
		}
		return resp, err
	}

	if err = flow.advance(StateUnauthorized); err != nil {
		return nil, err
	}
	if err = flow.advance(StateRefreshing); err != nil {
		return nil, err
	}
	tokens, err := c.session.Refresh(ctx)
	if err != nil {
		if ctx.Err() != nil || isContextErr(err) {
			return nil, fmt.Errorf("refresh session: %w", err)
		}
		c.logger.DebugContext(ctx, "refresh failed", "request_id", requestID, "error", err)
		_ = flow.advance(StateExpired)
		if errors.Is(err, domainauth.ErrSessionEnded) {
			// signed out meanwhile; the sign-out already cleared the session
			return nil, ErrSessionExpired
		}
		c.expireOnce(ctx, err)
		return nil, ErrSessionExpired
	}

	if err = flow.advance(StateRetried); err != nil {
		return nil, err
	}
	token := bearer(tokens)
	resp, status, err = c.send(ctx, req.Method, target, body, token, requestID)
	if status == http.StatusUnauthorized {
		_ = flow.advance(StateExpired)
		c.expireOnce(ctx, replayKey(token))
		return nil, ErrSessionExpired
	}
	if err == nil {
		_ = flow.advance(StateDone)
		resp.Demo = demo
	}
	return resp, err
}

const maxExpiredKeys = 32

// replayKey identifies a 401 on the replay with a freshly refreshed token.
type replayKey string

// expireOnce runs session-expired handling once per failure. Calls that
// joined the same shared refresh receive the same error value, so they share
// one key. Keys that are not comparable are never deduplicated.
func (c *Client) expireOnce(ctx context.Context, key any) {
	if key != nil && reflect.TypeOf(key).Comparable() {
		c.expiredMu.Lock()
		if _, done := c.expired[key]; done {
			c.expiredMu.Unlock()
			return
		}
		if c.expired == nil || len(c.expired) >= maxExpiredKeys {
			c.expired = make(map[any]struct{})
		}
		c.expired[key] = struct{}{}
		c.expiredMu.Unlock()
	}
	c.expire(ctx)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) expire(ctx context.Context) {
	c.notifier.SessionExpired(ctx, SessionExpiredNotice)
	if err := c.session.Expire(ctx); err != nil {
		c.logger.WarnContext(ctx, "clear expired session failed", "error", err)
	}
	c.notifier.RedirectToLogin(ctx, "")
}

// send performs one HTTP exchange. The returned status is the response
// status when one was received, even for error results.
func (c *Client) send(ctx context.Context, method, target string, body []byte, token, requestID string) (*Response, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	hreq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set("User-Agent", c.userAgent)
	hreq.Header.Set(headerRequestID, requestID)
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		hreq.Header.Set("Authorization", "Bearer "+token)
	}

	hresp, err := c.http.Do(hreq)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, hreq.URL.Path, err)
	}
	defer hresp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(hresp.Body, maxResponseBytes))
	if err != nil {
		return nil, hresp.StatusCode, fmt.Errorf("%w: read response: %w", ErrNetwork, err)
	}
	c.logger.DebugContext(ctx, "api call", "method", method, "path", hreq.URL.Path, "status", hresp.StatusCode, "request_id", requestID)

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		return nil, hresp.StatusCode, newAPIError(hresp.StatusCode, data, requestID)
	}
	return &Response{StatusCode: hresp.StatusCode, Header: hresp.Header, Body: data}, hresp.StatusCode, nil
}

func (c *Client) resolve(p string, q url.Values) string {
	u := c.base.JoinPath(strings.TrimLeft(p, "/"))
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func encodeBody(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return data, nil
}

func bearer(t domainauth.Tokens) string {
	if t.IDToken != "" {
		return t.IDToken
	}
	return t.AccessToken
}

func isMutation(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

type logNotifier struct{ logger *slog.Logger }

func (n logNotifier) SessionExpired(ctx context.Context, notice string) {
	n.logger.WarnContext(ctx, notice)
}

func (n logNotifier) RedirectToLogin(ctx context.Context, _ string) {
	n.logger.InfoContext(ctx, "login required", "route", domainauth.LoginRoute)
}

type logDemoSignal struct{ logger *slog.Logger }

func (d logDemoSignal) OpenDemoModal(ctx context.Context, operation string) {
	d.logger.InfoContext(ctx, "demo mode: operation skipped", "operation", operation)
}
