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
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/poiesic/stargaze/core"
)

const (
	// DefaultSafetyMargin is added to every computed wait.
	DefaultSafetyMargin = 5 * time.Second

	// DefaultFallbackWait is used when the reset time cannot be determined.
	DefaultFallbackWait = time.Hour

	// DefaultSecondaryWait is used for throttling while the primary budget is not exhausted.
	DefaultSecondaryWait = 60 * time.Second
)

// QuotaSource reports the current rate-limit budget.
type QuotaSource interface {
	QuotaStatus(ctx context.Context) (core.QuotaStatus, error)
}

// QuotaGuard tracks the remote rate-limit budget shared by all callers and
// blocks them while it is exhausted. Safe for concurrent use.
type QuotaGuard struct {
	mu      sync.Mutex
	state   core.QuotaStatus
	known   bool
	version uint64

	now           func() time.Time
	sleep         func(ctx context.Context, d time.Duration) error
	safetyMargin  time.Duration
	fallbackWait  time.Duration
	secondaryWait time.Duration
	logger        *slog.Logger
}

// GuardOption configures a QuotaGuard.
type GuardOption func(*QuotaGuard)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) GuardOption {
	return func(g *QuotaGuard) {
		g.now = now
	}
}

// WithSleeper replaces the context-aware sleep used while waiting for a reset.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) GuardOption {
	return func(g *QuotaGuard) {
		g.sleep = sleep
	}
}

// WithSafetyMargin sets the extra time waited past the reported reset.
func WithSafetyMargin(d time.Duration) GuardOption {
	return func(g *QuotaGuard) {
		g.safetyMargin = d
	}
}

// WithFallbackWait sets the wait used when no reset time is available.
func WithFallbackWait(d time.Duration) GuardOption {
	return func(g *QuotaGuard) {
		g.fallbackWait = d
	}
}

// WithGuardLogger sets the logger.
func WithGuardLogger(logger *slog.Logger) GuardOption {
	return func(g *QuotaGuard) {
		g.logger = logger
	}
}

// NewQuotaGuard creates a guard with no knowledge of the budget.
// Until a response is observed every call is allowed through.
func NewQuotaGuard(opts ...GuardOption) *QuotaGuard {
	g := &QuotaGuard{
		now:           time.Now,
		sleep:         sleepContext,
		safetyMargin:  DefaultSafetyMargin,
		fallbackWait:  DefaultFallbackWait,
		secondaryWait: DefaultSecondaryWait,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "quota-guard")
	return g
}

// Status returns the last observed budget and whether one has been observed.
func (g *QuotaGuard) Status() (core.QuotaStatus, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.known
}

// CheckAndWait blocks until at least one call may be made.
// When the budget is exhausted it sleeps until the reset time plus the safety
// margin, then optimistically assumes a full budget until the next response
// says otherwise. The lock is never held while sleeping.
func (g *QuotaGuard) CheckAndWait(ctx context.Context) error {
	g.mu.Lock()
	if !g.known || g.state.Remaining > 0 {
		g.mu.Unlock()
		return nil
	}
	wait := g.state.ResetIn(g.now()) + g.safetyMargin
	observed := g.version
	g.mu.Unlock()

	g.logger.Warn("rate limit exhausted, waiting for reset", "wait", wait.Round(time.Second))
	if err := g.sleep(ctx, wait); err != nil {
		return err
	}

	g.mu.Lock()
	// A fresher observation made while sleeping wins
	if g.version == observed {
		g.state.Remaining = max(g.state.Limit, 1)
		g.version++
	}
	g.mu.Unlock()
	return nil
}

// Record stores an observed budget. Last writer wins.
func (g *QuotaGuard) Record(status core.QuotaStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = status
	g.known = true
	g.version++
}

// RecordHeaders updates the budget from X-RateLimit-* response headers.
// Responses without them are ignored.
func (g *QuotaGuard) RecordHeaders(hdr http.Header) {
	status, ok := parseRateLimitHeaders(hdr)
	if !ok {
		return
	}
	g.Record(status)
}

// Throttled marks the budget exhausted after a rate-limited response.
// The block lasts until Retry-After, the reported reset, or, failing both,
// whatever source reports. A source that cannot be reached yields the fixed
// fallback wait; a source reporting budget left means a secondary limit.
func (g *QuotaGuard) Throttled(ctx context.Context, hdr http.Header, source QuotaSource) {
	now := g.now()

	if d, ok := parseRetryAfter(hdr, now); ok {
		g.block(now.Add(d))
		return
	}
	if status, ok := parseRateLimitHeaders(hdr); ok && status.Remaining == 0 && !status.ResetAt.IsZero() {
		g.Record(status)
		return
	}
	if source == nil {
		g.block(now.Add(g.fallbackWait))
		return
	}

	status, err := source.QuotaStatus(ctx)
	if err != nil {
		g.logger.Warn("rate limit status unavailable, using fallback wait", "wait", g.fallbackWait, "err", err)
		g.block(now.Add(g.fallbackWait))
		return
	}
	if status.Remaining > 0 {
		g.block(now.Add(g.secondaryWait))
		return
	}
	g.Record(status)
}

// block marks the budget exhausted until the given time.
func (g *QuotaGuard) block(until time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.Remaining = 0
	g.state.ResetAt = until
	g.known = true
	g.version++
}

func parseRateLimitHeaders(hdr http.Header) (core.QuotaStatus, bool) {
	remaining, err := strconv.Atoi(hdr.Get("X-RateLimit-Remaining"))
	if err != nil {
		return core.QuotaStatus{}, false
	}
	status := core.QuotaStatus{Remaining: max(remaining, 0)}
	if limit, err := strconv.Atoi(hdr.Get("X-RateLimit-Limit")); err == nil {
		status.Limit = limit
	}
	if reset, err := strconv.ParseInt(hdr.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		status.ResetAt = time.Unix(reset, 0)
	}
	return status, true
}

// parseRetryAfter accepts both delay-seconds and HTTP-date forms.
func parseRetryAfter(hdr http.Header, now time.Time) (time.Duration, bool) {
	value := hdr.Get("Retry-After")
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		return max(at.Sub(now), 0), true
	}
	return 0, false
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
