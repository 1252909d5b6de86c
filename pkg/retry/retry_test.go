package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsAfterRetries(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return Retryable(errors.New("connection refused"))
		}
		return nil
	},
		WithMaxAttempts(5),
		WithInitialDelay(time.Millisecond),
		WithJitter(0),
	)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	attempts := 0
	base := errors.New("schema mismatch")
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Permanent(base)
	},
		WithMaxAttempts(5),
		WithInitialDelay(time.Millisecond),
	)

	assert.Equal(t, base, err)
	assert.Equal(t, 1, attempts)
}

func TestDoNonRetryableErrorReturnsImmediately(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("plain error")
	},
		WithMaxAttempts(5),
		WithInitialDelay(time.Millisecond),
	)

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoRetryIfOverridesClassification(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("plain error")
	},
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithJitter(0),
		WithRetryIf(func(err error) bool { return true }),
	)

	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := Do(ctx, func(ctx context.Context) error {
		attempts++
		cancel()
		return Retryable(errors.New("still starting"))
	},
		WithMaxAttempts(10),
		WithInitialDelay(50*time.Millisecond),
	)

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestStartupRetrierExhaustsAttempts(t *testing.T) {
	r := StartupRetrier()
	assert.Equal(t, 5, r.config.MaxAttempts)

	attempts := 0
	fast := New(WithMaxAttempts(2), WithInitialDelay(time.Millisecond), WithJitter(0))
	base := errors.New("dial tcp: connection refused")
	err := fast.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Retryable(base)
	})

	assert.Equal(t, base, err)
	assert.Equal(t, 2, attempts)
}
