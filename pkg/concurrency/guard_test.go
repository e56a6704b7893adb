package concurrency

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardRunsTask(t *testing.T) {
	g := NewGuard()
	ran := false
	require.NoError(t, g.Execute(func() error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
}

func TestGuardPropagatesTaskError(t *testing.T) {
	g := NewGuard()
	boom := errors.New("boom")
	assert.ErrorIs(t, g.Execute(func() error { return boom }), boom)
}

func TestGuardRejectsConcurrentTask(t *testing.T) {
	g := NewGuard()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- g.Execute(func() error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	assert.ErrorIs(t, g.Execute(func() error { return nil }), ErrBusy)
	close(release)
	require.NoError(t, <-done)
}

func TestGuardFreeAfterCompletion(t *testing.T) {
	g := NewGuard()
	require.NoError(t, g.Execute(func() error { return nil }))
	require.Error(t, g.Execute(func() error { return errors.New("x") }))
	// A failed task releases the guard too.
	require.NoError(t, g.Execute(func() error { return nil }))
}
