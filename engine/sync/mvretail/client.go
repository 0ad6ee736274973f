package mvretail

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/infra/monitoring"
	"github.com/demoplan/demoplan/pkg/config"
	"github.com/demoplan/demoplan/pkg/logger"
)

const (
	loginPath = "/login/authenticate"

	pushPath   = "/planningextcontroller/scheduleMplanEvent"
	deletePath = "/planningextcontroller/deleteMplanEvent"

	scheduledEventsPath = "/schedulingcontroller/getScheduledEvents"
	planningEventsPath  = "/planningextcontroller/getPlanningEvents"
	availableRepsPath   = "/schedulingcontroller/getAvailableReps"
)

// Client is the session-authenticated MVRetail API client. All wire encoding
// for the upstream system of record lives here; callers pass structured
// arguments and receive domain shapes.
//
// The process holds one logical session. The refresh path is mutex-guarded
// so concurrent workers do not race to re-login; individual requests are
// otherwise parallel-safe.
type Client struct {
	http *resty.Client
	cfg  *config.UpstreamConfig
	loc  *time.Location

	mu            sync.Mutex
	lastLogin     time.Time
	authenticated bool
}

func NewClient(cfg *config.UpstreamConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("upstream config is required")
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load upstream timezone %q: %w", cfg.Timezone, err)
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("Accept", "application/json").
		// A redirect to the login page is a session-drift signal, not a
		// navigation; surface the raw 3xx instead of following it.
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		}))
	return &Client{http: httpClient, cfg: cfg, loc: loc}, nil
}

// Location returns the upstream-local timezone used for wire timestamps.
func (c *Client) Location() *time.Location {
	return c.loc
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ensureSession logs in when the client has no session or the soft refresh
// deadline has passed.
func (c *Client) ensureSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authenticated && time.Since(c.lastLogin) < c.cfg.SessionRefresh {
		return nil
	}
	return c.loginLocked(ctx)
}

// relogin forces a fresh session after a drift signal.
func (c *Client) relogin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginLocked(ctx)
}

func (c *Client) loginLocked(ctx context.Context) error {
	log := logger.FromContext(ctx)
	c.authenticated = false
	backoff := retry.WithMaxRetries(3, retry.NewExponential(1*time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		res, err := c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(loginRequest{Username: c.cfg.Username, Password: c.cfg.Password.Value()}).
			Post(loginPath)
		if err != nil {
			return retry.RetryableError(err)
		}
		if res.StatusCode() >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("login returned %d", res.StatusCode()))
		}
		if res.StatusCode() != http.StatusOK {
			return fmt.Errorf("login rejected with %d", res.StatusCode())
		}
		if len(res.Cookies()) == 0 {
			return fmt.Errorf("login returned no session cookie")
		}
		return nil
	})
	if err != nil {
		return core.WrapError(core.KindUpstreamTransient, err, "mvretail login failed")
	}
	c.lastLogin = time.Now()
	c.authenticated = true
	log.Debug("mvretail session established", "base_url", c.cfg.BaseURL)
	return nil
}

// sessionDrift reports whether a response indicates the session went stale:
// a 401, or a redirect back to the login page.
func sessionDrift(res *resty.Response) bool {
	if res.StatusCode() == http.StatusUnauthorized {
		return true
	}
	if res.StatusCode() >= 300 && res.StatusCode() < 400 {
		location := strings.ToLower(res.Header().Get("Location"))
		return strings.Contains(location, "login")
	}
	return false
}

// do runs one authenticated request. On a drift signal it re-logins once and
// retries once; any further failure goes back to the caller.
func (c *Client) do(ctx context.Context, path string, send func(r *resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}
	res, err := c.send(ctx, path, send)
	if err != nil {
		return nil, err
	}
	if !sessionDrift(res) {
		return res, nil
	}
	if err := c.relogin(ctx); err != nil {
		return nil, err
	}
	return c.send(ctx, path, send)
}

func (c *Client) send(ctx context.Context, path string, send func(r *resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	start := time.Now()
	res, err := send(c.http.R().SetContext(ctx))
	monitoring.ObserveUpstream(path, time.Since(start))
	if err != nil {
		return nil, core.WrapError(core.KindUpstreamTransient, err, "mvretail request failed")
	}
	return res, nil
}

// classify maps an upstream HTTP status onto the error taxonomy: 5xx and 429
// are transient, everything else non-2xx is permanent.
func classify(res *resty.Response, operation string) error {
	code := res.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= http.StatusInternalServerError || code == http.StatusTooManyRequests:
		return core.NewError(core.KindUpstreamTransient, "%s: upstream returned %d", operation, code)
	default:
		return core.NewError(core.KindUpstreamPermanent, "%s: upstream rejected with %d", operation, code)
	}
}

// HealthCheck reports healthy iff a trivial authenticated call succeeds.
func (c *Client) HealthCheck(ctx context.Context) error {
	res, err := c.do(ctx, planningEventsPath, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(map[string]any{}).Post(planningEventsPath)
	})
	if err != nil {
		return err
	}
	return classify(res, "health check")
}
