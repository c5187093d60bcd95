package lifetrace

import (
	"context"
	"strconv"
	"time"

	"github.com/Borislavv/advanced-memory/pkg/utils"
	"github.com/rs/zerolog/log"
)

// Stats is the snapshot served by the /memory/stats debug endpoint.
type Stats struct {
	Enabled            bool             `json:"enabled"`
	Live               map[string]int64 `json:"live"`
	Allocations        uint64           `json:"allocations_total"`
	Finalizations      uint64           `json:"finalizations_total"`
	Releases           uint64           `json:"releases_total"`
	BorrowConflicts    uint64           `json:"borrow_conflicts_total"`
	UpgradeMisses      uint64           `json:"weak_upgrade_misses_total"`
	AffinityViolations uint64           `json:"affinity_violations_total"`
	RecentEvents       []EventSnapshot  `json:"recent_events,omitempty"`
}

// EventSnapshot is one decoded ring event. Site is empty when the event kind
// carries no site, or when the site record was already evicted.
type EventSnapshot struct {
	Op   string `json:"op"`
	Kind string `json:"kind"`
	Site string `json:"site,omitempty"`
}

const drainPerSnapshot = 256

// Counters returns the current counters and leaves the event ring intact.
// This is what counters-only consumers (the ?events=false stats request)
// must use: draining is destructive, events are reported once.
func (t *Tracer) Counters() Stats {
	s := Stats{
		Enabled:            t.enabled.Load(),
		Live:               make(map[string]int64, kindCount),
		Allocations:        t.allocs.Load(),
		Finalizations:      t.finalizations.Load(),
		Releases:           t.releases.Load(),
		BorrowConflicts:    t.conflicts.Load(),
		UpgradeMisses:      t.upgradeMisses.Load(),
		AffinityViolations: t.affinityViolations.Load(),
	}
	for _, k := range []Kind{KindBox, KindShared, KindWeak, KindCell} {
		s.Live[k.String()] = t.live[k].Load()
	}
	return s
}

// Snapshot drains recent events and returns the current counters.
func (t *Tracer) Snapshot() Stats {
	s := t.Counters()

	for _, raw := range t.ring.Drain(drainPerSnapshot) {
		o, k, hash := unpackEvent(raw)
		ev := EventSnapshot{Op: o.String(), Kind: k.String()}
		if hash != 0 {
			if cached, ok := t.sites.Get(hash); ok {
				if stat, ok := cached.(*SiteStat); ok {
					ev.Site = stat.File + ":" + strconv.Itoa(stat.Line)
				}
			}
		}
		s.RecentEvents = append(s.RecentEvents, ev)
	}
	return s
}

// Run periodically publishes live-block gauges and logs a leak warning while
// blocks stay alive. Reports are rate limited so a long-running leak does not
// flood the log.
func (t *Tracer) Run(ctx context.Context, interval time.Duration) {
	go func() {
		log.Info().Msgf("[lifetrace] leak reporter running with interval=%s", interval)
		for range utils.NewTicker(ctx, interval) {
			for _, k := range []Kind{KindBox, KindShared, KindWeak, KindCell} {
				t.meter.SetLiveBlocks(k.String(), t.live[k].Load())
			}

			live := t.LiveTotal()
			if live == 0 || !t.limiter.Allow() {
				continue
			}
			log.Warn().Msgf(
				"[lifetrace] %d live blocks (box=%d, shared=%d, weak=%d, cell=%d), allocs=%d, releases=%d",
				live,
				t.live[KindBox].Load(), t.live[KindShared].Load(),
				t.live[KindWeak].Load(), t.live[KindCell].Load(),
				t.allocs.Load(), t.releases.Load(),
			)
		}
		log.Info().Msg("[lifetrace] leak reporter stopped")
	}()
}
