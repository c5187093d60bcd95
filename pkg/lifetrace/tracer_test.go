package lifetrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracer(t *testing.T) *Tracer {
	t.Helper()
	tr, err := New(Config{Enabled: true, MaxSites: 64, RingSize: 64})
	require.NoError(t, err)
	return tr
}

func TestTracer_LiveBookkeeping(t *testing.T) {
	tr := newTestTracer(t)

	tr.onAlloc(KindShared, 64, 1)
	tr.onAlloc(KindShared, 64, 1)
	tr.onAlloc(KindBox, 32, 1)
	assert.Equal(t, int64(2), tr.Live(KindShared))
	assert.Equal(t, int64(1), tr.Live(KindBox))
	assert.Equal(t, int64(3), tr.LiveTotal())

	tr.onFinalize(KindShared)
	tr.onRelease(KindShared, 64)
	assert.Equal(t, int64(1), tr.Live(KindShared))
	assert.Equal(t, int64(2), tr.LiveTotal())
}

func TestTracer_SnapshotCounters(t *testing.T) {
	tr := newTestTracer(t)

	tr.onAlloc(KindCell, 16, 1)
	tr.onBorrowConflict()
	tr.onBorrowConflict()
	tr.onUpgradeMiss()

	s := tr.Snapshot()
	assert.True(t, s.Enabled)
	assert.Equal(t, uint64(1), s.Allocations)
	assert.Equal(t, uint64(2), s.BorrowConflicts)
	assert.Equal(t, uint64(1), s.UpgradeMisses)
	assert.Equal(t, int64(1), s.Live[KindCell.String()])

	require.Len(t, s.RecentEvents, 4)
	assert.Equal(t, "alloc", s.RecentEvents[0].Op)
	assert.Equal(t, "borrow_conflict", s.RecentEvents[1].Op)
	assert.Equal(t, "upgrade_miss", s.RecentEvents[3].Op)

	// The ring is drained by snapshotting.
	assert.Empty(t, tr.Snapshot().RecentEvents)
}

func TestTracer_SnapshotEventSiteAttribution(t *testing.T) {
	tr := newTestTracer(t)

	tr.onAlloc(KindShared, 64, 1)
	tr.sites.Wait() // flush ristretto's buffered set

	evs := tr.Snapshot().RecentEvents
	require.Len(t, evs, 1)
	assert.Equal(t, "alloc", evs[0].Op)

	// The event references the site by the same truncated hash the cache is
	// keyed by, so the lookup must resolve.
	require.NotEmpty(t, evs[0].Site)
	assert.Contains(t, evs[0].Site, "tracer.go:")
}

func TestTracer_CountersLeaveRingIntact(t *testing.T) {
	tr := newTestTracer(t)

	tr.onAlloc(KindBox, 8, 1)
	tr.onFinalize(KindBox)

	s := tr.Counters()
	assert.Equal(t, uint64(1), s.Allocations)
	assert.Equal(t, uint64(1), s.Finalizations)
	assert.Empty(t, s.RecentEvents)

	// The events are still there for the next draining snapshot.
	evs := tr.Snapshot().RecentEvents
	require.Len(t, evs, 2)
	assert.Equal(t, "alloc", evs[0].Op)
	assert.Equal(t, "finalize", evs[1].Op)
}

func TestTracer_DisabledHooksAreNoops(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	tr, err := New(Config{Enabled: false})
	require.NoError(t, err)
	SetDefault(tr)

	OnAlloc(KindShared, 64)
	OnFinalize(KindShared)
	OnRelease(KindShared, 64)
	OnBorrowConflict()
	OnUpgradeMiss()

	s := tr.Snapshot()
	assert.Zero(t, s.Allocations)
	assert.Zero(t, s.Releases)
	assert.Zero(t, s.BorrowConflicts)
	assert.Empty(t, s.RecentEvents)
}

func TestTracer_EnableDisable(t *testing.T) {
	tr := newTestTracer(t)
	assert.True(t, tr.Enabled())

	tr.Disable()
	assert.False(t, tr.Enabled())
	tr.Enable()
	assert.True(t, tr.Enabled())
}

func TestPackEvent_RoundTrip(t *testing.T) {
	hash, _, _ := callerSite(1)
	raw := packEvent(opAlloc, KindWeak, hash)
	o, k, h := unpackEvent(raw)
	assert.Equal(t, opAlloc, o)
	assert.Equal(t, KindWeak, k)
	assert.Equal(t, hash&siteHashMask, h)
}

func TestKindAndOpNames(t *testing.T) {
	assert.Equal(t, "box", KindBox.String())
	assert.Equal(t, "shared", KindShared.String())
	assert.Equal(t, "weak", KindWeak.String())
	assert.Equal(t, "cell", KindCell.String())
	assert.Equal(t, "alloc", opAlloc.String())
	assert.Equal(t, "release", opRelease.String())
	assert.Equal(t, "borrow_conflict", opConflict.String())
}
