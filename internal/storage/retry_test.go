package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsRetriable(t *testing.T) {
	assert.True(t, isRetriable(&pgconn.PgError{Code: "40P01"}))
	assert.True(t, isRetriable(fmt.Errorf("storage: seed well ZT-102: %w", &pgconn.PgError{Code: "40001"})))
	assert.False(t, isRetriable(&pgconn.PgError{Code: "23505"}), "unique violations are not transient")
	assert.False(t, isRetriable(errors.New("connection refused")))
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := WithRetry(ctx, 3, 0, func() error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "40P01"}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = WithRetry(ctx, 2, 0, func() error {
		calls++
		return &pgconn.PgError{Code: "40001"}
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls, "one attempt plus two retries")

	calls = 0
	permanent := errors.New("syntax error")
	err = WithRetry(ctx, 5, 0, func() error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRetry(ctx, 5, 1, func() error { return &pgconn.PgError{Code: "40P01"} })
	assert.ErrorIs(t, err, context.Canceled)
}
