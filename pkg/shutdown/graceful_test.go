package shutdown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGraceful_ShutdownWithoutTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	g := NewGraceful(ctx, cancel)
	g.SetGracefulTimeout(100 * time.Millisecond)

	g.Add(1)
	go func() {
		defer g.Done()
		time.Sleep(10 * time.Millisecond)
	}()

	doneCh := make(chan error)
	go func() { doneCh <- g.ListenCancelAndAwait() }()
	time.Sleep(5 * time.Millisecond)
	cancel()

	assert.NoError(t, <-doneCh)
}

func TestGraceful_ShutdownTimesOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	g := NewGraceful(ctx, cancel)
	g.SetGracefulTimeout(20 * time.Millisecond)

	release := make(chan struct{})
	g.Add(1)
	go func() {
		defer g.Done()
		<-release
	}()

	doneCh := make(chan error)
	go func() { doneCh <- g.ListenCancelAndAwait() }()
	time.Sleep(5 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-doneCh, ErrGracefulTimeout)
	close(release)
}

func TestGraceful_NoWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	g := NewGraceful(ctx, cancel)
	g.SetGracefulTimeout(50 * time.Millisecond)

	doneCh := make(chan error)
	go func() { doneCh <- g.ListenCancelAndAwait() }()
	cancel()

	assert.NoError(t, <-doneCh)
}
