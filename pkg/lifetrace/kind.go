package lifetrace

// Kind identifies the primitive family an event belongs to.
type Kind uint8

const (
	KindBox Kind = iota + 1
	KindShared
	KindWeak
	KindCell

	kindCount = 5
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindShared:
		return "shared"
	case KindWeak:
		return "weak"
	case KindCell:
		return "cell"
	default:
		return "unknown"
	}
}

// op is the lifecycle transition recorded in the event ring.
type op uint8

const (
	opAlloc op = iota + 1
	opFinalize
	opRelease
	opConflict
	opUpgradeMiss
)

func (o op) String() string {
	switch o {
	case opAlloc:
		return "alloc"
	case opFinalize:
		return "finalize"
	case opRelease:
		return "release"
	case opConflict:
		return "borrow_conflict"
	case opUpgradeMiss:
		return "upgrade_miss"
	default:
		return "unknown"
	}
}

// Events are packed into one uint64 for the ring:
// [4-bit op][4-bit kind][56-bit site hash].
const (
	siteHashBits = 56
	siteHashMask = (uint64(1) << siteHashBits) - 1
)

func packEvent(o op, k Kind, siteHash uint64) uint64 {
	return uint64(o)<<60 | uint64(k)<<56 | siteHash&siteHashMask
}

func unpackEvent(v uint64) (o op, k Kind, siteHash uint64) {
	return op(v >> 60), Kind(v >> 56 & 0xf), v & siteHashMask
}
