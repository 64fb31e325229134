package github

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/stargaze/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock whose sleeps advance time instantly.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	return nil
}

func (f *fakeClock) Sleeps() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.sleeps...)
}

func newTestGuard(clock *fakeClock) *QuotaGuard {
	return NewQuotaGuard(WithClock(clock.Now), WithSleeper(clock.Sleep))
}

type stubSource struct {
	status core.QuotaStatus
	err    error
	calls  int
}

func (s *stubSource) QuotaStatus(ctx context.Context) (core.QuotaStatus, error) {
	s.calls++
	return s.status, s.err
}

func TestQuotaGuard_UnknownStateDoesNotWait(t *testing.T) {
	clock := newFakeClock()
	guard := newTestGuard(clock)

	require.NoError(t, guard.CheckAndWait(context.Background()))
	assert.Empty(t, clock.Sleeps())

	_, known := guard.Status()
	assert.False(t, known)
}

func TestQuotaGuard_RemainingBudgetDoesNotWait(t *testing.T) {
	clock := newFakeClock()
	guard := newTestGuard(clock)
	guard.Record(core.QuotaStatus{Remaining: 10, Limit: 5000, ResetAt: clock.Now().Add(time.Hour)})

	require.NoError(t, guard.CheckAndWait(context.Background()))
	assert.Empty(t, clock.Sleeps())
}

func TestQuotaGuard_WaitsUntilReset(t *testing.T) {
	clock := newFakeClock()
	guard := newTestGuard(clock)
	resetAt := clock.Now().Add(30 * time.Second)
	guard.Record(core.QuotaStatus{Remaining: 0, Limit: 5000, ResetAt: resetAt})

	require.NoError(t, guard.CheckAndWait(context.Background()))

	require.Len(t, clock.Sleeps(), 1)
	assert.Equal(t, 30*time.Second+DefaultSafetyMargin, clock.Sleeps()[0])
	assert.False(t, clock.Now().Before(resetAt), "must not return before the reset time")

	status, _ := guard.Status()
	assert.Equal(t, 5000, status.Remaining, "budget is optimistically restored")

	// The next call proceeds without waiting
	require.NoError(t, guard.CheckAndWait(context.Background()))
	assert.Len(t, clock.Sleeps(), 1)
}

func TestQuotaGuard_PastResetWaitsOnlyMargin(t *testing.T) {
	clock := newFakeClock()
	guard := newTestGuard(clock)
	guard.Record(core.QuotaStatus{Remaining: 0, ResetAt: clock.Now().Add(-time.Minute)})

	require.NoError(t, guard.CheckAndWait(context.Background()))
	assert.Equal(t, []time.Duration{DefaultSafetyMargin}, clock.Sleeps())

	status, _ := guard.Status()
	assert.Equal(t, 1, status.Remaining, "unknown limit restores a budget of one")
}

func TestQuotaGuard_CancelledWait(t *testing.T) {
	clock := newFakeClock()
	guard := newTestGuard(clock)
	guard.Record(core.QuotaStatus{Remaining: 0, ResetAt: clock.Now().Add(time.Minute)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := guard.CheckAndWait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	status, _ := guard.Status()
	assert.Equal(t, 0, status.Remaining, "state is untouched when the wait is abandoned")
}

func TestQuotaGuard_RealSleepHonoursReset(t *testing.T) {
	guard := NewQuotaGuard(WithSafetyMargin(0))
	guard.Record(core.QuotaStatus{Remaining: 0, Limit: 10, ResetAt: time.Now().Add(50 * time.Millisecond)})

	start := time.Now()
	require.NoError(t, guard.CheckAndWait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestQuotaGuard_ConcurrentWaitersShareTheBlock(t *testing.T) {
	clock := newFakeClock()
	guard := newTestGuard(clock)
	guard.Record(core.QuotaStatus{Remaining: 0, Limit: 100, ResetAt: clock.Now().Add(10 * time.Second)})

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, guard.CheckAndWait(context.Background()))
		}()
	}
	wg.Wait()

	status, _ := guard.Status()
	assert.Equal(t, 100, status.Remaining)
	assert.NotEmpty(t, clock.Sleeps())
}

func TestQuotaGuard_RecordHeaders(t *testing.T) {
	clock := newFakeClock()
	guard := newTestGuard(clock)
	reset := clock.Now().Add(time.Hour).Unix()

	hdr := http.Header{}
	hdr.Set("X-RateLimit-Remaining", "42")
	hdr.Set("X-RateLimit-Limit", "5000")
	hdr.Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
	guard.RecordHeaders(hdr)

	status, known := guard.Status()
	require.True(t, known)
	assert.Equal(t, 42, status.Remaining)
	assert.Equal(t, 5000, status.Limit)
	assert.Equal(t, reset, status.ResetAt.Unix())

	// Headers without quota information leave state alone
	guard.RecordHeaders(http.Header{})
	status, _ = guard.Status()
	assert.Equal(t, 42, status.Remaining)
}

func TestQuotaGuard_ThrottledRetryAfter(t *testing.T) {
	clock := newFakeClock()
	guard := newTestGuard(clock)
	source := &stubSource{}

	hdr := http.Header{}
	hdr.Set("Retry-After", "17")
	guard.Throttled(context.Background(), hdr, source)

	require.NoError(t, guard.CheckAndWait(context.Background()))
	assert.Equal(t, []time.Duration{17*time.Second + DefaultSafetyMargin}, clock.Sleeps())
	assert.Equal(t, 0, source.calls, "retry-after needs no introspection")
}

func TestQuotaGuard_ThrottledUsesResetHeader(t *testing.T) {
	clock := newFakeClock()
	guard := newTestGuard(clock)
	source := &stubSource{}

	hdr := http.Header{}
	hdr.Set("X-RateLimit-Remaining", "0")
	hdr.Set("X-RateLimit-Reset", strconv.FormatInt(clock.Now().Add(2*time.Minute).Unix(), 10))
	guard.Throttled(context.Background(), hdr, source)

	require.NoError(t, guard.CheckAndWait(context.Background()))
	assert.Equal(t, []time.Duration{2*time.Minute + DefaultSafetyMargin}, clock.Sleeps())
	assert.Equal(t, 0, source.calls)
}

func TestQuotaGuard_ThrottledSourceFailureFallsBack(t *testing.T) {
	clock := newFakeClock()
	guard := newTestGuard(clock)
	source := &stubSource{err: errors.New("unreachable")}

	guard.Throttled(context.Background(), http.Header{}, source)

	require.NoError(t, guard.CheckAndWait(context.Background()))
	assert.Equal(t, []time.Duration{DefaultFallbackWait + DefaultSafetyMargin}, clock.Sleeps())
	assert.Equal(t, 1, source.calls, "introspection is attempted exactly once")
}

func TestQuotaGuard_ThrottledSecondaryLimit(t *testing.T) {
	clock := newFakeClock()
	guard := newTestGuard(clock)
	source := &stubSource{status: core.QuotaStatus{Remaining: 4000, Limit: 5000}}

	guard.Throttled(context.Background(), http.Header{}, source)

	require.NoError(t, guard.CheckAndWait(context.Background()))
	assert.Equal(t, []time.Duration{DefaultSecondaryWait + DefaultSafetyMargin}, clock.Sleeps())
}

func TestQuotaGuard_ThrottledSourceReportsExhaustion(t *testing.T) {
	clock := newFakeClock()
	guard := newTestGuard(clock)
	source := &stubSource{status: core.QuotaStatus{Remaining: 0, Limit: 60, ResetAt: clock.Now().Add(20 * time.Second)}}

	guard.Throttled(context.Background(), http.Header{}, source)

	require.NoError(t, guard.CheckAndWait(context.Background()))
	assert.Equal(t, []time.Duration{20*time.Second + DefaultSafetyMargin}, clock.Sleeps())
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  time.Duration
		ok    bool
	}{
		{"missing", "", 0, false},
		{"seconds", "30", 30 * time.Second, true},
		{"http date", now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second, true},
		{"past date", now.Add(-time.Minute).Format(http.TimeFormat), 0, true},
		{"garbage", "soon", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hdr := http.Header{}
			if tt.value != "" {
				hdr.Set("Retry-After", tt.value)
			}
			got, ok := parseRetryAfter(hdr, now)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
