package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/aditya-makadiya/sociofeed/pkg/errors"
)

func TestRefresh_SingleFlightForConcurrentCallers(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	c := NewCoordinator(func(ctx context.Context) error {
		calls.Add(1)
		<-release
		return nil
	})

	gen := c.Generation()
	const waiters = 8
	errs := make(chan error, waiters)
	var started sync.WaitGroup
	started.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			started.Done()
			errs <- c.Refresh(context.Background(), gen)
		}()
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)

	for i := 0; i < waiters; i++ {
		require.NoError(t, <-errs)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, gen+1, c.Generation())
}

func TestRefresh_StaleGenerationSkipsRefresh(t *testing.T) {
	var calls atomic.Int32
	c := NewCoordinator(func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	gen := c.Generation()
	require.NoError(t, c.Refresh(context.Background(), gen))
	// A request sent before that refresh completed retries without refreshing again
	require.NoError(t, c.Refresh(context.Background(), gen))

	assert.Equal(t, int32(1), calls.Load())
	assert.EqualValues(t, 1, c.Attempts())
}

func TestRefresh_FailureExpiresEveryWaiter(t *testing.T) {
	release := make(chan struct{})
	c := NewCoordinator(func(ctx context.Context) error {
		<-release
		return errors.New("refresh token revoked")
	})

	var expired atomic.Int32
	c.OnExpired(func(err error) { expired.Add(1) })

	gen := c.Generation()
	const waiters = 5
	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		go func() { errs <- c.Refresh(context.Background(), gen) }()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)

	for i := 0; i < waiters; i++ {
		err := <-errs
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindSessionExpired))
	}
	assert.Equal(t, int32(1), expired.Load())
	assert.Equal(t, gen, c.Generation())
}

func TestRefresh_OnRefreshedRunsOncePerRefresh(t *testing.T) {
	fail := false
	c := NewCoordinator(func(ctx context.Context) error {
		if fail {
			return errors.New("refresh token revoked")
		}
		return nil
	})

	var refreshed atomic.Int32
	c.OnRefreshed(func() { refreshed.Add(1) })

	gen := c.Generation()
	require.NoError(t, c.Refresh(context.Background(), gen))
	require.NoError(t, c.Refresh(context.Background(), gen))
	assert.Equal(t, int32(1), refreshed.Load())

	fail = true
	require.Error(t, c.Refresh(context.Background(), c.Generation()))
	assert.Equal(t, int32(1), refreshed.Load())
}

func TestRefresh_CallerCancellationDoesNotAbortRefresh(t *testing.T) {
	release := make(chan struct{})
	done := make(chan struct{})
	c := NewCoordinator(func(ctx context.Context) error {
		<-release
		close(done)
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- c.Refresh(ctx, c.Generation()) }()
	time.Sleep(10 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-errc, context.Canceled)

	close(release)
	<-done
	assert.Eventually(t, func() bool { return c.Generation() == 1 }, time.Second, 5*time.Millisecond)
}

func TestBypassesRefresh(t *testing.T) {
	tests := []struct {
		path   string
		bypass bool
	}{
		{"/auth/login", true},
		{"/auth/register", true},
		{"/auth/activate/abc123", true},
		{"/auth/forgot-password", true},
		{"/auth/reset-password/tok", true},
		{"/auth/resend-activation", true},
		{"/auth/refresh-token", true},
		{"/auth/logout", true},
		{"/auth/getMe", false},
		{"/posts/feed?page=1", false},
		{"/users/42/follow", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.bypass, BypassesRefresh(tt.path))
		})
	}
}
