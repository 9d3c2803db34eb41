package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"instituto-amostral/internal/model"
)

var fastRetry = model.RetryConfig{
	MaxAttempts:       3,
	InitialDelay:      time.Millisecond,
	MaxDelay:          5 * time.Millisecond,
	BackoffMultiplier: 2,
}

func TestWithRetry_RecoversFromTransientFailures(t *testing.T) {
	var calls int
	err := WithRetry(context.Background(), fastRetry, zap.NewNop(), "op", func(_ context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return &StatusError{URL: "u", Code: http.StatusServiceUnavailable}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_StopsOnPermanentError(t *testing.T) {
	boom := errors.New("boom")
	var calls int
	err := WithRetry(context.Background(), fastRetry, zap.NewNop(), "op", func(context.Context, int) error {
		calls++
		return Permanent(boom)
	})
	assert.Same(t, boom, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ClientErrorsAreNotRetried(t *testing.T) {
	var calls int
	err := WithRetry(context.Background(), fastRetry, zap.NewNop(), "op", func(context.Context, int) error {
		calls++
		return &StatusError{URL: "u", Code: http.StatusNotFound}
	})
	var status *StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, http.StatusNotFound, status.Code)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int
	err := WithRetry(context.Background(), fastRetry, zap.NewNop(), "op", func(context.Context, int) error {
		calls++
		return errors.New("connection reset")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	slow := fastRetry
	slow.InitialDelay = time.Hour
	slow.MaxDelay = time.Hour
	err := WithRetry(ctx, slow, zap.NewNop(), "op", func(context.Context, int) error {
		cancel()
		return errors.New("timeout")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSourceClient_GetJSONRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewSourceClient(Endpoints{}, time.Second, fastRetry, nil)
	var v struct{ OK bool }
	require.NoError(t, c.getJSON(context.Background(), srv.URL, &v))
	assert.True(t, v.OK)
	assert.EqualValues(t, 3, hits.Load())
}
