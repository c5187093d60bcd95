package utils

import (
	"context"
	"time"

	"github.com/Borislavv/advanced-memory/pkg/ctime"
)

// NewTicker returns a channel that fires immediately and then every interval.
// The channel is closed when ctx is done.
func NewTicker(ctx context.Context, interval time.Duration) (ch <-chan time.Time) {
	ctx, cancel := context.WithCancel(ctx)

	tickCh := make(chan time.Time, 1)
	tickCh <- ctime.Now()

	go func() {
		ticker := time.NewTicker(interval)
		defer func() {
			ticker.Stop()
			close(tickCh)
			cancel()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				tickCh <- t
			}
		}
	}()

	return tickCh
}
