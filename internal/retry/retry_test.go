package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3}, func(_ context.Context, _ int) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	var seen []int
	err := Do(context.Background(), Policy{MaxAttempts: 3}, func(_ context.Context, attempt int) error {
		seen = append(seen, attempt)
		if attempt < 3 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestDo_ExhaustsBudget(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3}, func(_ context.Context, _ int) error {
		calls++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
}

func TestDo_DefaultBudget(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), Policy{}, func(_ context.Context, _ int) error {
		calls++
		return errTransient
	})

	assert.Equal(t, DefaultMaxAttempts, calls)
}

func TestDo_ShouldRetryDeclines(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	err := Do(context.Background(), Policy{
		MaxAttempts: 5,
		ShouldRetry: func(err error) bool { return errors.Is(err, errTransient) },
	}, func(_ context.Context, _ int) error {
		calls++
		return fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDo_Permanent(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 5}, func(_ context.Context, _ int) error {
		calls++
		return Permanent(errTransient)
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}

func TestDo_OnRetry(t *testing.T) {
	var retried []int
	_ = Do(context.Background(), Policy{
		MaxAttempts: 3,
		OnRetry:     func(attempt int, _ error) { retried = append(retried, attempt) },
	}, func(_ context.Context, _ int) error {
		return errTransient
	})

	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, Policy{MaxAttempts: 3}, func(_ context.Context, _ int) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestPermanent_Nil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}
