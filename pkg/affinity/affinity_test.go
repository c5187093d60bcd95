package affinity

import (
	"testing"

	"github.com/Borislavv/advanced-memory/pkg/lifetrace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_StablePerGoroutine(t *testing.T) {
	id := ID()
	require.NotZero(t, id)
	assert.Equal(t, id, ID())

	other := make(chan uint64, 1)
	go func() { other <- ID() }()
	assert.NotEqual(t, id, <-other)
}

func TestCapture_DisabledIsZeroOwner(t *testing.T) {
	Disable()
	defer Disable()

	owner := Capture()
	assert.Equal(t, Owner{}, owner)

	// Zero owners never check, even from a foreign goroutine.
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NotPanics(t, func() { owner.Check("test") })
	}()
	<-done
}

func TestCheck_SameGoroutinePasses(t *testing.T) {
	Enable()
	defer Disable()

	owner := Capture()
	assert.NotPanics(t, func() { owner.Check("test") })
}

func TestCheck_ForeignGoroutinePanics(t *testing.T) {
	Enable()
	defer Disable()

	owner := Capture()

	violation := make(chan *ViolationError, 1)
	go func() {
		defer func() {
			v, _ := recover().(*ViolationError)
			violation <- v
		}()
		owner.Check("rc.Shared")
	}()

	v := <-violation
	require.NotNil(t, v, "cross-goroutine use must panic with *ViolationError")
	assert.Equal(t, "rc.Shared", v.What)
	assert.NotEqual(t, v.Owner, v.Caller)
	assert.Contains(t, v.Error(), "rc.Shared")
}

func TestCheck_ViolationReachesTracer(t *testing.T) {
	prev := lifetrace.Default()
	defer lifetrace.SetDefault(prev)

	tr, err := lifetrace.New(lifetrace.Config{Enabled: true})
	require.NoError(t, err)
	lifetrace.SetDefault(tr)

	Enable()
	defer Disable()
	owner := Capture()

	done := make(chan struct{})
	go func() {
		defer func() {
			_ = recover()
			close(done)
		}()
		owner.Check("rc.Shared")
	}()
	<-done

	assert.Equal(t, uint64(1), tr.Counters().AffinityViolations)
}

func TestEnable_AffectsNewCapturesOnly(t *testing.T) {
	Disable()
	before := Capture()

	Enable()
	defer Disable()
	after := Capture()

	assert.Zero(t, before.gid)
	assert.NotZero(t, after.gid)
}
