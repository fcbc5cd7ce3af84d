package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"kasbi-client/internal/constant"
	"kasbi-client/internal/dto"
	"kasbi-client/internal/entity"
	"kasbi-client/internal/pkg/logger"
	"kasbi-client/internal/repository/contract"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	logModule       = "HttpClient"
	headerRequestId = "X-Request-ID"
)

type Config struct {
	BaseURL string
	Timeout time.Duration

	// RefreshSingleFlight collapses concurrent refreshes into one call.
	// Off by default: every failed request refreshes on its own and the
	// last stored pair wins.
	RefreshSingleFlight bool

	// Transport overrides http.DefaultTransport (tracing wraps it).
	Transport http.RoundTripper
}

// Client is the single request pipeline shared by every API call. It
// attaches the stored access token and, on a 401, refreshes once and
// replays the request once.
type Client struct {
	baseURL      string
	http         *http.Client
	tokens       contract.TokenRepository
	logger       logger.ILogger
	singleFlight bool
	group        singleflight.Group

	mu        sync.RWMutex
	onExpired func(ctx context.Context)
}

func New(cfg Config, tokens contract.TokenRepository, log logger.ILogger) *Client {
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		http:         &http.Client{Timeout: cfg.Timeout, Transport: transport},
		tokens:       tokens,
		logger:       log,
		singleFlight: cfg.RefreshSingleFlight,
	}
}

// OnSessionExpired registers the hook run after the store has been cleared
// because a refresh was impossible. The session manager uses it to drop its
// in-memory state and send the user to the login screen.
func (c *Client) OnSessionExpired(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = fn
}

// call tracks one logical request across its possible replay.
type call struct {
	req     *Request
	id      string
	body    *payload
	retried bool
}

// Do sends req. Non-2xx replies come back as *APIError; transport failures
// wrap ErrNetwork; an unrecoverable 401 wraps ErrSessionExpired.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	body, err := req.encode()
	if err != nil {
		return nil, err
	}
	cl := &call{req: req, id: uuid.NewString(), body: body}

	accessToken, err := c.currentAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	status, resp, err := c.send(ctx, cl, accessToken)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && !cl.retried && !req.SkipRefresh {
		cl.retried = true

		c.logger.Warn(logModule, "Access token rejected, refreshing", map[string]interface{}{
			"request_id": cl.id,
			"path":       req.Path,
		})

		pair, refreshErr := c.refresh(ctx)
		if refreshErr != nil {
			c.expire(ctx, cl, refreshErr)
			if errors.Is(refreshErr, errNoRefreshToken) {
				return nil, fmt.Errorf("%w: %w", ErrSessionExpired, newAPIError(req.Method, req.Path, status, resp.Body))
			}
			return nil, fmt.Errorf("%w: %w", ErrSessionExpired, refreshErr)
		}

		// Replay exactly once with the new token; its outcome is final.
		status, resp, err = c.send(ctx, cl, pair.AccessToken)
		if err != nil {
			return nil, err
		}
	}

	if status < 200 || status >= 300 {
		return nil, newAPIError(req.Method, req.Path, status, resp.Body)
	}
	return resp, nil
}

// DoJSON is Do followed by Response.Decode. out may be nil.
func (c *Client) DoJSON(ctx context.Context, req *Request, out interface{}) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

func (c *Client) currentAccessToken(ctx context.Context) (string, error) {
	pair, err := c.tokens.Read(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read token store: %w", err)
	}
	if pair == nil {
		return "", nil
	}
	return pair.AccessToken, nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// send performs one round trip. An empty token sends the request
// unauthenticated.
func (c *Client) send(ctx context.Context, cl *call, accessToken string) (int, *Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, cl.req.Method, c.buildURL(cl.req.Path, cl.req.Query), cl.body.reader())
	if err != nil {
		return 0, nil, err
	}
	if cl.body.contentType != "" {
		httpReq.Header.Set("Content-Type", cl.body.contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(headerRequestId, cl.id)
	if accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	}

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Error(logModule, "Request failed", map[string]interface{}{
			"request_id": cl.id,
			"method":     cl.req.Method,
			"path":       cl.req.Path,
			"error":      err.Error(),
		})
		return 0, nil, fmt.Errorf("%w: %s %s: %w", ErrNetwork, cl.req.Method, cl.req.Path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: reading %s: %w", ErrNetwork, cl.req.Path, err)
	}

	c.logger.Debug(logModule, "Request completed", map[string]interface{}{
		"request_id":  cl.id,
		"method":      cl.req.Method,
		"path":        cl.req.Path,
		"status":      httpResp.StatusCode,
		"retried":     cl.retried,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return httpResp.StatusCode, &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

var errNoRefreshToken = errors.New("no refresh token stored")

func (c *Client) refresh(ctx context.Context) (*entity.TokenPair, error) {
	if !c.singleFlight {
		return c.doRefresh(ctx)
	}

	// the shared refresh outlives whichever caller happened to start it
	v, err, shared := c.group.Do("refresh", func() (interface{}, error) {
		return c.doRefresh(context.WithoutCancel(ctx))
	})
	if shared {
		c.logger.Debug(logModule, "Joined in-flight token refresh", nil)
	}
	if err != nil {
		return nil, err
	}
	return v.(*entity.TokenPair), nil
}

// doRefresh talks to the refresh endpoint directly, outside Do, so a failing
// refresh can never trigger another refresh.
func (c *Client) doRefresh(ctx context.Context) (*entity.TokenPair, error) {
	stored, err := c.tokens.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read token store: %w", err)
	}
	if stored == nil || stored.RefreshToken == "" {
		return nil, errNoRefreshToken
	}

	req := &Request{
		Method: http.MethodPost,
		Path:   constant.PathAuthRefresh,
		Body:   dto.RefreshRequest{RefreshToken: stored.RefreshToken},
	}
	body, err := req.encode()
	if err != nil {
		return nil, err
	}
	cl := &call{req: req, id: uuid.NewString(), body: body, retried: true}

	status, resp, err := c.send(ctx, cl, "")
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, newAPIError(req.Method, req.Path, status, resp.Body)
	}

	var out dto.RefreshResponse
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, errors.New("refresh response carried no access token")
	}

	pair := entity.TokenPair{AccessToken: out.AccessToken, RefreshToken: out.RefreshToken}
	if pair.RefreshToken == "" {
		// Some deployments do not rotate refresh tokens.
		pair.RefreshToken = stored.RefreshToken
	}
	if err := c.tokens.Save(ctx, pair); err != nil {
		return nil, fmt.Errorf("failed to store refreshed tokens: %w", err)
	}

	c.logger.Info(logModule, "Access token refreshed", map[string]interface{}{"request_id": cl.id})
	return &pair, nil
}

// expire ends the session: clear everything, then hand over to the hook.
func (c *Client) expire(ctx context.Context, cl *call, cause error) {
	c.logger.Error(logModule, "Session expired, forcing logout", map[string]interface{}{
		"request_id": cl.id,
		"path":       cl.req.Path,
		"error":      cause.Error(),
	})

	// The request context may already be done; clearing must still happen.
	clearCtx := context.WithoutCancel(ctx)
	if err := c.tokens.Clear(clearCtx); err != nil {
		c.logger.Error(logModule, "Failed to clear token store", map[string]interface{}{"error": err.Error()})
	}

	c.mu.RLock()
	hook := c.onExpired
	c.mu.RUnlock()
	if hook != nil {
		hook(clearCtx)
	}
}
