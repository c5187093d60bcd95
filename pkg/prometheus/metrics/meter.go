package metrics

import (
	"sync"

	"github.com/Borislavv/advanced-memory/pkg/prometheus/metrics/keyword"
	"github.com/VictoriaMetrics/metrics"
)

// Meter is the metrics surface consumed by the ownership primitives through
// the tracer. Kind is the primitive family ("box", "shared", "weak", "cell").
type Meter interface {
	IncAllocated(kind string)
	IncReleased(kind string)
	IncFinalized(kind string)
	AddBytesInUse(delta int64)
	IncBorrowConflict()
	IncUpgradeMiss()
	IncAffinityViolation()
	SetLiveBlocks(kind string, n int64)
}

type Metrics struct{}

func New() *Metrics { return &Metrics{} }

var bufPool = sync.Pool{New: func() any {
	buf := make([]byte, 0, 128)
	return &buf
}}

func getBuf() *[]byte {
	buf := bufPool.Get().(*[]byte)
	*buf = (*buf)[:0]
	return buf
}

func putBuf(buf *[]byte) { bufPool.Put(buf) }

// withKind renders `name{kind="..."}` without fmt on the hot path.
func withKind(name, kind string) *[]byte {
	buf := getBuf()
	*buf = append(*buf, name...)
	*buf = append(*buf, `{kind="`...)
	*buf = append(*buf, kind...)
	*buf = append(*buf, `"}`...)
	return buf
}

func (m *Metrics) IncAllocated(kind string) {
	buf := withKind(keyword.Allocations, kind)
	defer putBuf(buf)
	metrics.GetOrCreateCounter(string(*buf)).Inc()
}

func (m *Metrics) IncReleased(kind string) {
	buf := withKind(keyword.Releases, kind)
	defer putBuf(buf)
	metrics.GetOrCreateCounter(string(*buf)).Inc()
}

func (m *Metrics) IncFinalized(kind string) {
	buf := withKind(keyword.Finalizations, kind)
	defer putBuf(buf)
	metrics.GetOrCreateCounter(string(*buf)).Inc()
}

func (m *Metrics) AddBytesInUse(delta int64) {
	metrics.GetOrCreateFloatCounter(keyword.BytesInUse).Add(float64(delta))
}

func (m *Metrics) IncBorrowConflict() {
	metrics.GetOrCreateCounter(keyword.BorrowConflicts).Inc()
}

func (m *Metrics) IncUpgradeMiss() {
	metrics.GetOrCreateCounter(keyword.UpgradeMisses).Inc()
}

func (m *Metrics) IncAffinityViolation() {
	metrics.GetOrCreateCounter(keyword.AffinityViolations).Inc()
}

func (m *Metrics) SetLiveBlocks(kind string, n int64) {
	buf := withKind(keyword.LiveBlocks, kind)
	defer putBuf(buf)
	metrics.GetOrCreateGauge(string(*buf), nil).Set(float64(n))
}

// Noop satisfies Meter for tests and for tracers constructed without metrics.
type Noop struct{}

func (Noop) IncAllocated(string)       {}
func (Noop) IncReleased(string)        {}
func (Noop) IncFinalized(string)       {}
func (Noop) AddBytesInUse(int64)       {}
func (Noop) IncBorrowConflict()          {}
func (Noop) IncUpgradeMiss()             {}
func (Noop) IncAffinityViolation()       {}
func (Noop) SetLiveBlocks(string, int64) {}
