package lifetrace

import (
	"sync/atomic"

	"github.com/Borislavv/advanced-memory/pkg/buffer"
	"github.com/Borislavv/advanced-memory/pkg/prometheus/metrics"
	"github.com/Borislavv/advanced-memory/pkg/synced"
	"github.com/dgraph-io/ristretto"
	"golang.org/x/time/rate"
)

// Tracer observes the lifecycle of every ownership primitive: allocations,
// finalizations, block releases, borrow conflicts and weak-upgrade misses.
// It is pure diagnostics: the primitives behave identically with tracing off,
// and every hook is a single atomic load away from a no-op.
type Tracer struct {
	enabled atomic.Bool

	meter    metrics.Meter
	ring     *buffer.RingBuffer
	sites    *ristretto.Cache
	statPool *synced.BatchPool[*SiteStat]
	limiter  *rate.Limiter

	live               [kindCount]atomic.Int64
	allocs             atomic.Uint64
	finalizations      atomic.Uint64
	releases           atomic.Uint64
	conflicts          atomic.Uint64
	upgradeMisses      atomic.Uint64
	affinityViolations atomic.Uint64
}

// Config bounds the tracer's own memory: the site table is a ristretto cache
// with cost-based eviction, the event ring overwrites nothing and drops on
// overflow, and leak reports are rate limited.
type Config struct {
	Enabled       bool
	MaxSites      int64   // site cache capacity (entries)
	RingSize      int     // event ring capacity, power of 2
	ReportsPerMin float64 // leak report rate limit
	Meter         metrics.Meter
}

func New(cfg Config) (*Tracer, error) {
	if cfg.MaxSites <= 0 {
		cfg.MaxSites = 4096
	}
	if cfg.RingSize <= 0 {
		cfg.RingSize = 1024
	}
	if cfg.ReportsPerMin <= 0 {
		cfg.ReportsPerMin = 6
	}
	if cfg.Meter == nil {
		cfg.Meter = metrics.Noop{}
	}

	t := &Tracer{
		meter:   cfg.Meter,
		ring:    buffer.NewRingBuffer(cfg.RingSize),
		limiter: rate.NewLimiter(rate.Limit(cfg.ReportsPerMin/60), 1),
	}
	t.statPool = synced.NewBatchPool[*SiteStat](func() *SiteStat { return new(SiteStat) })

	sites, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.MaxSites * 10,
		MaxCost:     cfg.MaxSites,
		BufferItems: 64,
		OnEvict: func(item *ristretto.Item) {
			if stat, ok := item.Value.(*SiteStat); ok {
				t.statPool.Put(stat)
			}
		},
	})
	if err != nil {
		return nil, err
	}
	t.sites = sites

	t.enabled.Store(cfg.Enabled)
	return t, nil
}

// Enable/Disable flip tracing at runtime (driven by the debug API).
func (t *Tracer) Enable()       { t.enabled.Store(true) }
func (t *Tracer) Disable()      { t.enabled.Store(false) }
func (t *Tracer) Enabled() bool { return t.enabled.Load() }

// onAlloc records one allocation attributed to the caller callerSkip frames up.
func (t *Tracer) onAlloc(k Kind, size int64, callerSkip int) {
	t.live[k].Add(1)
	t.allocs.Add(1)
	t.meter.IncAllocated(k.String())
	t.meter.AddBytesInUse(size)

	hash, file, line := callerSite(callerSkip)
	if cached, ok := t.sites.Get(hash); ok {
		if stat, ok := cached.(*SiteStat); ok {
			stat.hit()
		}
	} else {
		stat := t.statPool.Get().reset(file, line)
		stat.hit()
		t.sites.Set(hash, stat, 1)
	}

	t.ring.Push(packEvent(opAlloc, k, hash))
}

func (t *Tracer) onFinalize(k Kind) {
	t.finalizations.Add(1)
	t.meter.IncFinalized(k.String())
	t.ring.Push(packEvent(opFinalize, k, 0))
}

func (t *Tracer) onRelease(k Kind, size int64) {
	t.live[k].Add(-1)
	t.releases.Add(1)
	t.meter.IncReleased(k.String())
	t.meter.AddBytesInUse(-size)
	t.ring.Push(packEvent(opRelease, k, 0))
}

func (t *Tracer) onBorrowConflict() {
	t.conflicts.Add(1)
	t.meter.IncBorrowConflict()
	t.ring.Push(packEvent(opConflict, KindCell, 0))
}

func (t *Tracer) onUpgradeMiss() {
	t.upgradeMisses.Add(1)
	t.meter.IncUpgradeMiss()
	t.ring.Push(packEvent(opUpgradeMiss, KindWeak, 0))
}

// onAffinityViolation counts a primitive used from a foreign goroutine. No
// ring event: the violation panics and carries its own diagnostics.
func (t *Tracer) onAffinityViolation() {
	t.affinityViolations.Add(1)
	t.meter.IncAffinityViolation()
}

// Live returns the number of live blocks of the given kind.
func (t *Tracer) Live(k Kind) int64 { return t.live[k].Load() }

// LiveTotal returns live blocks across all kinds.
func (t *Tracer) LiveTotal() int64 {
	var total int64
	for i := range t.live {
		total += t.live[i].Load()
	}
	return total
}

// -- process-wide default tracer, consumed by the primitive packages --

var def atomic.Pointer[Tracer]

func init() {
	t, err := New(Config{Enabled: false})
	if err != nil {
		panic("lifetrace: default tracer init failed: " + err.Error())
	}
	def.Store(t)
}

// Default returns the process-wide tracer.
func Default() *Tracer { return def.Load() }

// SetDefault installs the app-configured tracer. Call once at bootstrap.
func SetDefault(t *Tracer) { def.Store(t) }

// Hook funcs below are called directly from the exported constructors and
// drop funcs of the primitive packages; the caller-skip depth of site capture
// depends on that call shape.
//
// Stack at callerSite: 0 callerSite, 1 onAlloc, 2 OnAlloc, 3 primitive
// constructor, 4 user code.
const allocCallerSkip = 4

func OnAlloc(k Kind, size int64) {
	if t := def.Load(); t.enabled.Load() {
		t.onAlloc(k, size, allocCallerSkip)
	}
}

func OnFinalize(k Kind) {
	if t := def.Load(); t.enabled.Load() {
		t.onFinalize(k)
	}
}

func OnRelease(k Kind, size int64) {
	if t := def.Load(); t.enabled.Load() {
		t.onRelease(k, size)
	}
}

func OnBorrowConflict() {
	if t := def.Load(); t.enabled.Load() {
		t.onBorrowConflict()
	}
}

func OnUpgradeMiss() {
	if t := def.Load(); t.enabled.Load() {
		t.onUpgradeMiss()
	}
}

func OnAffinityViolation() {
	if t := def.Load(); t.enabled.Load() {
		t.onAffinityViolation()
	}
}
