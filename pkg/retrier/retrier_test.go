package retrier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetrier_Do(t *testing.T) {
	t.Run("success on first attempt", func(t *testing.T) {
		r := New()
		attempts := 0
		err := r.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("success after retries", func(t *testing.T) {
		r := New(WithMaxRetries(3), WithInitialInterval(1*time.Millisecond))
		attempts := 0
		err := r.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("fail")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("fail after max retries", func(t *testing.T) {
		r := New(WithMaxRetries(2), WithInitialInterval(1*time.Millisecond))
		attempts := 0
		err := r.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return errors.New("fail")
		})
		assert.Error(t, err)
		assert.Equal(t, 3, attempts) // 1 initial + 2 retries
	})

	t.Run("permanent error stops retrying", func(t *testing.T) {
		r := New(WithMaxRetries(5), WithInitialInterval(1*time.Millisecond))
		cause := errors.New("bad request")
		attempts := 0
		err := r.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return Permanent(cause)
		})
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, 1, attempts)
	})

	t.Run("context cancellation", func(t *testing.T) {
		r := New(WithMaxRetries(5), WithInitialInterval(100*time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())

		attempts := 0
		err := r.Do(ctx, func(ctx context.Context) error {
			attempts++
			if attempts == 2 {
				cancel()
			}
			return errors.New("fail")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.LessOrEqual(t, attempts, 3)
	})
}

func TestRetrier_Next(t *testing.T) {
	r := New(WithInitialInterval(time.Second), WithMaxInterval(4*time.Second), WithJitter(0))

	assert.Equal(t, time.Second, r.Next(0))
	assert.Equal(t, 2*time.Second, r.Next(1))
	assert.Equal(t, 4*time.Second, r.Next(2))
	assert.Equal(t, 4*time.Second, r.Next(10), "interval is capped at max")
}
