// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/poiesic/stargaze/core"
	"github.com/poiesic/stargaze/retry"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public GitHub REST API.
	DefaultBaseURL = "https://api.github.com"

	// DefaultTimeout bounds every HTTP request.
	DefaultTimeout = 10 * time.Second

	// maxRateLimitAttempts bounds how often one call is retried after throttling.
	maxRateLimitAttempts = 3

	// maxListAttempts bounds retries of a single listing page.
	maxListAttempts = 3

	perPage = 100

	acceptJSON = "application/vnd.github+json"
	acceptRaw  = "application/vnd.github.v3.raw"
	apiVersion = "2022-11-28"
	userAgent  = "stargaze"
)

// Client is a small wrapper around the GitHub REST API v3 covering the
// endpoints stargaze needs.
type Client struct {
	http       *http.Client
	baseURL    string
	guard      *QuotaGuard
	limiter    *rate.Limiter
	retryDelay time.Duration
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithQuotaGuard shares a guard between clients.
func WithQuotaGuard(guard *QuotaGuard) ClientOption {
	return func(c *Client) {
		c.guard = guard
	}
}

// WithRate paces requests to at most rps per second. Zero disables pacing.
func WithRate(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithRetryDelay sets the base backoff between listing page retries.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient returns a client authenticating with token.
// An empty token makes anonymous requests subject to very low rate limits.
func NewClient(token string, opts ...ClientOption) *Client {
	httpClient := &http.Client{}
	if token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), src)
	}
	httpClient.Timeout = DefaultTimeout

	c := &Client{
		http:       httpClient,
		baseURL:    DefaultBaseURL,
		retryDelay: time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.guard == nil {
		c.guard = NewQuotaGuard(WithGuardLogger(c.logger))
	}
	c.logger = c.logger.With("component", "github")
	return c
}

// Guard returns the quota guard consulted before every request.
func (c *Client) Guard() *QuotaGuard {
	return c.guard
}

type apiUser struct {
	Login string `json:"login"`
}

type apiRepository struct {
	ID              uint64    `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Description     string    `json:"description"`
	HTMLURL         string    `json:"html_url"`
	StargazersCount int       `json:"stargazers_count"`
	Language        string    `json:"language"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Owner           apiUser   `json:"owner"`
}

func (r *apiRepository) toCore() *core.Repository {
	return &core.Repository{
		Id:          core.ID(r.ID),
		FullName:    r.FullName,
		Name:        r.Name,
		Description: r.Description,
		URL:         r.HTMLURL,
		Stars:       r.StargazersCount,
		Language:    r.Language,
		Owner:       r.Owner.Login,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type apiRateLimit struct {
	Resources struct {
		Core struct {
			Limit     int   `json:"limit"`
			Remaining int   `json:"remaining"`
			Reset     int64 `json:"reset"`
		} `json:"core"`
	} `json:"resources"`
}

// User returns the login of the authenticated user.
func (c *Client) User(ctx context.Context) (string, error) {
	var user apiUser
	if err := c.getJSON(ctx, c.baseURL+"/user", &user); err != nil {
		return "", err
	}
	return user.Login, nil
}

// QuotaStatus reads the core rate-limit budget from /rate_limit.
// The endpoint does not count against the budget, so the guard is bypassed.
func (c *Client) QuotaStatus(ctx context.Context) (core.QuotaStatus, error) {
	req, err := c.newRequest(ctx, c.baseURL+"/rate_limit", acceptJSON)
	if err != nil {
		return core.QuotaStatus{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return core.QuotaStatus{}, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return core.QuotaStatus{}, err
	}

	var payload apiRateLimit
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return core.QuotaStatus{}, fmt.Errorf("decoding rate limit: %w", err)
	}
	status := core.QuotaStatus{
		Remaining: payload.Resources.Core.Remaining,
		Limit:     payload.Resources.Core.Limit,
		ResetAt:   time.Unix(payload.Resources.Core.Reset, 0),
	}
	c.guard.Record(status)
	return status, nil
}

// ListStarred returns every repository starred by the authenticated user.
// Pages are retried with backoff; an unauthorized response is not retried.
func (c *Client) ListStarred(ctx context.Context) ([]*core.Repository, error) {
	next := fmt.Sprintf("%s/user/starred?per_page=%d", c.baseURL, perPage)
	var repos []*core.Repository

	for page := 1; next != ""; page++ {
		var batch []apiRepository
		var link string
		err := retry.WithBackoff(ctx, func() error {
			var err error
			link, err = c.getJSONPage(ctx, next, &batch)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, ErrUnauthorized) {
					return retry.Permanent(err)
				}
				c.logger.Warn("listing page failed", "page", page, "err", err)
			}
			return err
		}, maxListAttempts, c.retryDelay)
		if err != nil {
			return nil, fmt.Errorf("listing starred repositories (page %d): %w", page, err)
		}

		for i := range batch {
			repos = append(repos, batch[i].toCore())
		}
		c.logger.Debug("fetched starred page", "page", page, "count", len(batch), "total", len(repos))
		next = nextPageURL(link)
	}

	return repos, nil
}

// getJSON fetches url through the guard and decodes the body into v.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	_, err := c.getJSONPage(ctx, url, v)
	return err
}

// getJSONPage is getJSON that also returns the Link header.
func (c *Client) getJSONPage(ctx context.Context, url string, v any) (string, error) {
	resp, err := c.send(ctx, url, acceptJSON)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return "", fmt.Errorf("decoding %s: %w", url, err)
	}
	return resp.Header.Get("Link"), nil
}

// send issues a GET through the quota guard, retrying rate-limited responses
// at most maxRateLimitAttempts times. The caller owns the returned body.
func (c *Client) send(ctx context.Context, url, accept string) (*http.Response, error) {
	for attempt := 1; attempt <= maxRateLimitAttempts; attempt++ {
		if err := c.guard.CheckAndWait(ctx); err != nil {
			return nil, err
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := c.newRequest(ctx, url, accept)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}

		c.guard.RecordHeaders(resp.Header)
		if !isRateLimited(resp) {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		c.logger.Warn("rate limited", "url", url, "status", resp.StatusCode, "attempt", attempt)
		c.guard.Throttled(ctx, resp.Header, c)
	}
	return nil, ErrRateLimitExhausted
}

func (c *Client) newRequest(ctx context.Context, url, accept string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

// isRateLimited reports whether resp is a primary or secondary rate-limit rejection.
func isRateLimited(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		return resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.Header.Get("Retry-After") != ""
	}
	return false
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode >= 300:
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	return nil
}

var linkNextPattern = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// nextPageURL extracts the rel="next" target from a Link header.
func nextPageURL(link string) string {
	if m := linkNextPattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return ""
}
