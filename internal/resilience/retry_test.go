package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errLimited = errors.New("rate limited")

func isLimited(err error) bool { return errors.Is(err, errLimited) }

// recordSleep returns a Sleep func that records delays without waiting.
func recordSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func TestDoVal_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	v, err := DoVal(context.Background(), RetryConfig{MaxRetries: 2}, func(_ context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "ok" || calls != 1 {
		t.Errorf("got %q after %d calls", v, calls)
	}
}

func TestDoVal_RateLimitPolicy_DoublesFromBase(t *testing.T) {
	var delays []time.Duration
	cfg := RateLimitRetryConfig(2, 2*time.Second, isLimited)
	cfg.Sleep = recordSleep(&delays)

	var calls int
	_, err := DoVal(context.Background(), cfg, func(_ context.Context) (int, error) {
		calls++
		return 0, errLimited
	})
	if !errors.Is(err, errLimited) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls (1 + 2 retries), got %d", calls)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("sleep %d: expected %v, got %v", i, want[i], delays[i])
		}
	}
}

func TestDoVal_SuccessAfterRetry(t *testing.T) {
	var delays []time.Duration
	cfg := RateLimitRetryConfig(2, time.Second, isLimited)
	cfg.Sleep = recordSleep(&delays)

	var calls int
	v, err := DoVal(context.Background(), cfg, func(_ context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errLimited
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 || calls != 2 || len(delays) != 1 {
		t.Errorf("v=%d calls=%d sleeps=%d", v, calls, len(delays))
	}
}

func TestDoVal_NonRetryableError_NoRetry(t *testing.T) {
	var calls int
	fatal := errors.New("unauthorized")
	cfg := RateLimitRetryConfig(2, time.Millisecond, isLimited)
	_, err := DoVal(context.Background(), cfg, func(_ context.Context) (int, error) {
		calls++
		return 0, fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoVal_ContextCancelled_StopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	cfg := RateLimitRetryConfig(5, time.Hour, isLimited)
	cfg.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return SleepContext(ctx, d)
	}
	_, err := DoVal(ctx, cfg, func(_ context.Context) (int, error) {
		calls++
		return 0, errLimited
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestDo_OnRetryCallback(t *testing.T) {
	var retries []int
	var delays []time.Duration
	cfg := RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		ShouldRetry:    isLimited,
		Sleep:          recordSleep(&delays),
		OnRetry: func(retry int, _ time.Duration, _ error) {
			retries = append(retries, retry)
		},
	}
	_ = Do(context.Background(), cfg, func(_ context.Context) error { return errLimited })
	if len(retries) != 2 || retries[0] != 1 || retries[1] != 2 {
		t.Errorf("unexpected retry sequence %v", retries)
	}
}

func TestDo_DefaultShouldRetryUsesIsTransient(t *testing.T) {
	var calls int
	var delays []time.Duration
	cfg := RetryConfig{MaxRetries: 1, Sleep: recordSleep(&delays)}
	_ = Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		return NewTransientError(errors.New("503"), 503)
	})
	if calls != 2 {
		t.Errorf("expected transient error to be retried once, got %d calls", calls)
	}
}

func TestComputeBackoff_CapsAtMax(t *testing.T) {
	cfg := applyDefaults(RetryConfig{InitialBackoff: time.Second, MaxBackoff: 3 * time.Second})
	if got := computeBackoff(5, cfg); got != 3*time.Second {
		t.Errorf("expected cap at 3s, got %v", got)
	}
}

func TestComputeBackoff_WithJitter(t *testing.T) {
	cfg := applyDefaults(RetryConfig{InitialBackoff: time.Second, JitterFraction: 0.5})
	for range 20 {
		got := computeBackoff(0, cfg)
		if got < 500*time.Millisecond || got > 1500*time.Millisecond {
			t.Fatalf("jittered backoff out of range: %v", got)
		}
	}
}

func TestSleepContext(t *testing.T) {
	if err := SleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRetryLogger(t *testing.T) {
	fn := RetryLogger("apollo", "enrich")
	fn(1, time.Second, errors.New("rate limited"))
}
