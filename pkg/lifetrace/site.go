package lifetrace

import (
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/Borislavv/advanced-memory/pkg/ctime"
	"github.com/zeebo/xxh3"
)

// SiteStat aggregates allocations attributed to one call site (file:line of
// the primitive constructor's caller). Stats live in a bounded ristretto
// cache owned by the Tracer; an evicted site simply starts from zero if it
// allocates again. Never a process-wide unbounded map.
type SiteStat struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Allocs uint64 `json:"allocs"` // atomic
	LastAt int64  `json:"last_at_unix_nano"` // atomic
}

// Weight makes SiteStat poolable through synced.BatchPool.
func (s *SiteStat) Weight() int64 {
	return int64(unsafe.Sizeof(*s)) + int64(len(s.File))
}

func (s *SiteStat) reset(file string, line int) *SiteStat {
	s.File = file
	s.Line = line
	atomic.StoreUint64(&s.Allocs, 0)
	atomic.StoreInt64(&s.LastAt, 0)
	return s
}

func (s *SiteStat) hit() {
	atomic.AddUint64(&s.Allocs, 1)
	atomic.StoreInt64(&s.LastAt, ctime.UnixNano())
}

var siteBufPool = &sync.Pool{New: func() any {
	buf := make([]byte, 0, 256)
	return &buf
}}

// callerSite resolves the allocation site skipping the tracer and primitive
// frames, and returns its xxh3 hash together with file/line. The hash is
// truncated to the width carried in packed ring events so the site-cache key
// and the event's site reference always agree.
func callerSite(skip int) (hash uint64, file string, line int) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return 0, "unknown", 0
	}

	bufPtr := siteBufPool.Get().(*[]byte)
	buf := (*bufPtr)[:0]
	buf = append(buf, file...)
	buf = append(buf, ':')
	buf = strconv.AppendInt(buf, int64(line), 10)
	hash = xxh3.Hash(buf) & siteHashMask
	*bufPtr = buf
	siteBufPool.Put(bufPtr)

	return hash, file, line
}
