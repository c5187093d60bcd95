package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// Gracefuller is what long-running components see: they signal completion
// through Done once their shutdown path finished.
type Gracefuller interface {
	Add(n int)
	Done()
}

// Graceful coordinates shutdown between OS signals, context cancellation and
// background workers registered through Add/Done.
type Graceful struct {
	ctx     context.Context
	cancel  context.CancelFunc
	wg      *sync.WaitGroup
	timeout time.Duration
}

var ErrGracefulTimeout = errors.New("graceful shutdown timed out")

func NewGraceful(ctx context.Context, cancel context.CancelFunc) *Graceful {
	return &Graceful{ctx: ctx, cancel: cancel, wg: &sync.WaitGroup{}, timeout: time.Minute}
}

// SetGracefulTimeout bounds how long ListenCancelAndAwait waits for workers.
func (g *Graceful) SetGracefulTimeout(timeout time.Duration) {
	g.timeout = timeout
}

// Add registers n workers that must call Done before shutdown completes.
func (g *Graceful) Add(n int) { g.wg.Add(n) }

// Done marks one registered worker as finished.
func (g *Graceful) Done() { g.wg.Done() }

// ListenCancelAndAwait blocks until an OS signal arrives or the context is
// canceled, then waits for registered workers up to the graceful timeout.
func (g *Graceful) ListenCancelAndAwait() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info().Msgf("[shutdown] received signal: %s", sig)
		g.cancel()
	case <-g.ctx.Done():
		log.Info().Msg("[shutdown] context canceled")
	}

	waitCh := make(chan struct{})
	go func() {
		defer close(waitCh)
		g.wg.Wait()
	}()

	select {
	case <-waitCh:
		return nil
	case <-time.After(g.timeout):
		return ErrGracefulTimeout
	}
}
