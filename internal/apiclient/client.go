// Package apiclient talks to the portfolio REST API on behalf of the admin.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/nathanieluriri/omas-portfolio/internal/session"
	"github.com/nathanieluriri/omas-portfolio/internal/types"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// APIPrefix is prepended to every endpoint path.
const APIPrefix = "/v1"

// Options configures a Client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Sessions   session.Store
	Logger     *zap.Logger
}

// Client is an authenticated client for the portfolio API. It is safe for concurrent
// use; concurrent requests that hit an expired session share a single refresh.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions session.Store
	logger   *zap.Logger
	refresh  singleflight.Group
	now      func() time.Time
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("API base URL is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewMemoryStore(session.Tokens{})
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:  baseURL,
		http:     httpClient,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Sessions returns the token store the client authenticates with.
func (c *Client) Sessions() session.Store {
	return c.sessions
}

// request is a replayable API call; the body is kept as bytes so it can be resent
// after a token refresh.
type request struct {
	operation   string
	method      string
	path        string
	body        []byte
	contentType string
	auth        bool
}

type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// do sends r, refreshing the session first when the access token has expired and
// running bounded refresh-then-retry rounds on 401. When the backend rejects the
// refresh, or the request is still unauthorized afterwards, the session is cleared.
// A refresh that fails in transport returns its error and keeps the session.
func (c *Client) do(ctx context.Context, r request) (*response, error) {
	if r.auth && session.NeedsRefresh(c.sessions.Get(), c.now()) {
		c.logger.Debug("access token expired, refreshing before request", zap.String("path", r.path))
		if _, _, err := c.refreshSession(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.send(ctx, r, c.sessions.Get().AccessToken)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusUnauthorized || !r.auth {
		return resp, nil
	}

	for attempt := 0; attempt < session.MaxRefreshAttempts; attempt++ {
		tokens, ok, err := c.refreshSession(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		resp, err = c.send(ctx, r, tokens.AccessToken)
		if err != nil {
			return nil, err
		}
		if resp.status != http.StatusUnauthorized {
			return resp, nil
		}
	}

	c.logger.Warn("session could not be refreshed, clearing tokens", zap.String("path", r.path))
	if err := c.sessions.Clear(); err != nil {
		c.logger.Warn("failed to clear session", zap.Error(err))
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, r request, accessToken string) (*response, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+APIPrefix+r.path, body)
	if err != nil {
		return nil, &TransportError{Operation: r.operation, Message: "failed to create request", Cause: err}
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if r.auth && accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	start := c.now()
	httpResp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api request failed",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, &TransportError{Operation: r.operation, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Operation: r.operation, Message: "failed to read response body", Cause: err}
	}

	c.logger.Debug("api request",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", httpResp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("duration", c.now().Sub(start)),
	)

	return &response{status: httpResp.StatusCode, body: data}, nil
}

type refreshOutcome struct {
	tokens session.Tokens
	ok     bool
}

// refreshSession exchanges the stored refresh token for new tokens. Concurrent
// callers share one in-flight refresh. The error is non-nil only when the refresh
// call itself failed, in which case the stored tokens are left alone.
func (c *Client) refreshSession(ctx context.Context) (session.Tokens, bool, error) {
	v, err, _ := c.refresh.Do("refresh", func() (any, error) {
		current := c.sessions.Get()
		if current.RefreshToken == "" {
			return refreshOutcome{tokens: current}, nil
		}

		result, err := c.callRefresh(ctx, current)
		if err != nil {
			c.logger.Warn("token refresh failed", zap.Error(err))
			return nil, err
		}
		next, ok := session.Decide(current, result)
		if !ok {
			c.logger.Info("token refresh rejected")
			return refreshOutcome{tokens: current}, nil
		}
		if err := c.sessions.Set(next); err != nil {
			c.logger.Warn("failed to persist refreshed session", zap.Error(err))
		}
		c.logger.Info("token refreshed")
		return refreshOutcome{tokens: next, ok: true}, nil
	})
	if err != nil {
		return session.Tokens{}, false, err
	}
	outcome := v.(refreshOutcome)
	return outcome.tokens, outcome.ok, nil
}

// callRefresh calls the refresh endpoint. A non-2xx status or a response without
// user data is a rejection; anything that kept the backend's answer from arriving
// is an error.
func (c *Client) callRefresh(ctx context.Context, current session.Tokens) (session.RefreshResult, error) {
	r := request{
		operation:   "refresh session",
		method:      http.MethodPost,
		path:        "/users/refresh",
		contentType: "application/json",
		auth:        true,
	}
	body, err := json.Marshal(types.RefreshRequest{RefreshToken: current.RefreshToken})
	if err != nil {
		return session.RefreshResult{}, fmt.Errorf("failed to encode refresh request: %w", err)
	}
	r.body = body

	resp, err := c.send(ctx, r, current.AccessToken)
	if err != nil {
		return session.RefreshResult{}, err
	}
	if !resp.ok() {
		return session.RefreshResult{}, nil
	}

	payload, err := decode[types.User](r, resp)
	if err != nil {
		return session.RefreshResult{}, err
	}
	if payload.Data == nil {
		return session.RefreshResult{}, nil
	}
	return session.RefreshResult{
		OK:           true,
		AccessToken:  payload.Data.AccessToken,
		RefreshToken: payload.Data.RefreshToken,
	}, nil
}

// failure converts a non-success response into a RequestFailedError.
func failure(r request, resp *response, fallback string) error {
	message := strings.TrimSpace(string(resp.body))
	if message == "" {
		message = fallback
	}
	err := &RequestFailedError{Operation: r.operation, Status: resp.status, Message: message}
	if resp.status == http.StatusUnauthorized && r.auth {
		err.Cause = ErrUnauthorized
	}
	return err
}

// decode unmarshals the envelope of a successful response.
func decode[T any](r request, resp *response) (*types.APIResponse[T], error) {
	var payload types.APIResponse[T]
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return &payload, nil
	}
	if err := json.Unmarshal(resp.body, &payload); err != nil {
		return nil, &TransportError{Operation: r.operation, Message: "failed to decode response", Cause: err}
	}
	return &payload, nil
}

func jsonRequest(operation, method, path string, payload any) (request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("failed to encode %s request: %w", operation, err)
	}
	return request{
		operation:   operation,
		method:      method,
		path:        path,
		body:        body,
		contentType: "application/json",
		auth:        true,
	}, nil
}
