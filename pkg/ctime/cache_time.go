package ctime

import (
	"sync/atomic"
	"time"
)

// Coarse clock for hot paths (trace events, site stats) where calling
// time.Now per allocation is too expensive. Resolution is set by Start.

var nowUnix atomic.Int64

func init() {
	// Usable before Start for tests and short-lived tools.
	nowUnix.Store(time.Now().UnixNano())
}

// Start launches the background clock goroutine and returns a stop func.
func Start(resolution time.Duration) func() {
	nowUnix.Store(time.Now().UnixNano())
	t := time.NewTicker(resolution)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case tt := <-t.C:
				nowUnix.Store(tt.UnixNano())
			case <-done:
				t.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}

func Now() time.Time                  { return time.Unix(0, nowUnix.Load()) }
func UnixNano() int64                 { return nowUnix.Load() }
func Since(t time.Time) time.Duration { return Now().Sub(t) }
