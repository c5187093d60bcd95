package watchdog

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/Borislavv/advanced-memory/pkg/alloc"
	"github.com/Borislavv/advanced-memory/pkg/config"
	"github.com/Borislavv/advanced-memory/pkg/lifetrace"
	"github.com/rs/zerolog/log"
)

// Run periodically reports the runtime's memory picture and optionally
// forces Go's garbage collector.
// ----------------------------------------------
// Why the forced GC pass?
//
// A process built around this runtime keeps most of its working set alive
// through explicit ownership, so the Go heap stabilizes and rarely grows by
// GOGC% again. Meanwhile finalized payloads and dropped handles still create
// garbage that an idle collector never reclaims, so RSS looks like a leak.
// A periodic runtime.GC() plus debug.FreeOSMemory() keeps RSS honest.
//
// The stats pass correlates three views of the same memory: Go's MemStats,
// the allocator's accounted bytes, and the tracer's live-block counts — a
// divergence between the last two is how ownership bugs surface in prod.
func Run(ctx context.Context, cfg *config.Runtime, allocator alloc.Allocator, tracer *lifetrace.Tracer) {
	go func() {
		statsTicker := time.NewTicker(cfg.Runtime.Watchdog.StatsInterval)
		defer statsTicker.Stop()

		gcTicker := time.NewTicker(cfg.Runtime.Watchdog.ForceGCInterval)
		defer gcTicker.Stop()

		freeOsMemTicker := time.NewTicker(cfg.Runtime.Watchdog.FreeOsMemInterval)
		defer freeOsMemTicker.Stop()

		log.Info().Msgf(
			"[watchdog] running with statsInterval=%s, gcInterval=%s, freeOsMemInterval=%s",
			cfg.Runtime.Watchdog.StatsInterval,
			cfg.Runtime.Watchdog.ForceGCInterval,
			cfg.Runtime.Watchdog.FreeOsMemInterval,
		)

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("[watchdog] stopped")
				return

			case <-statsTicker.C:
				var mem runtime.MemStats
				runtime.ReadMemStats(&mem)

				log.Info().Msgf(
					"[watchdog] heap=%s, accounted=%s, live blocks=%d (shared=%d, box=%d, weak handles=%d)",
					fmtBytes(mem.HeapAlloc),
					fmtBytes(uint64(allocator.InUse())),
					allocator.Live(),
					tracer.Live(lifetrace.KindShared),
					tracer.Live(lifetrace.KindBox),
					tracer.Live(lifetrace.KindWeak),
				)

			case <-gcTicker.C:
				var mem runtime.MemStats
				runtime.ReadMemStats(&mem)

				runtime.GC()

				log.Info().Msgf(
					"[watchdog] forced GC pass (last GC pass at: %s, pause: %s)",
					time.Unix(0, int64(mem.LastGC)).Format(time.RFC3339Nano),
					lastGCPauseNs(mem.PauseNs),
				)

			case <-freeOsMemTicker.C:
				var before runtime.MemStats
				runtime.ReadMemStats(&before)

				debug.FreeOSMemory() // madvise(DONTNEED) under the hood

				var after runtime.MemStats
				runtime.ReadMemStats(&after)

				log.Info().Msgf(
					"[watchdog] flushed freed memory to OS (alloc was %s, now %s)",
					fmtBytes(before.HeapAlloc), fmtBytes(after.HeapAlloc),
				)
			}
		}
	}()
}

// fmtBytes formats a byte count to a human-readable string.
func fmtBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%dB", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

func lastGCPauseNs(pauses [256]uint64) time.Duration {
	for i := 255; i >= 0; i-- {
		if pauses[i] > 0 {
			return time.Duration(pauses[i])
		}
	}
	return time.Duration(0)
}
