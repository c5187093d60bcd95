package mock

import (
	"math/rand"
	"strconv"
	"unsafe"

	"github.com/Borislavv/advanced-memory/pkg/borrow"
	"github.com/Borislavv/advanced-memory/pkg/pool"
	"github.com/Borislavv/advanced-memory/pkg/rc"
)

// Workload generators for tests, benchmarks and the stress entrypoint:
// payloads with pooled backing storage and ownership trees in the canonical
// shape (strong edges downward, weak back-references upward).

var blobPool = pool.NewSizedBytePool()

// Blob is a payload with pooled backing storage. Finalize returns the buffer
// to the pool, so a blob reaching its finalizer exactly once is observable as
// pool reuse instead of allocator churn.
type Blob struct {
	buf  *[]byte
	size int
}

// NewBlob builds a blob of the given size filled with pseudo-random bytes.
func NewBlob(size int) *Blob {
	bufPtr := blobPool.Get(size)
	buf := (*bufPtr)[:0]
	for i := 0; i < size; i++ {
		buf = append(buf, byte(rand.Intn(256)))
	}
	*bufPtr = buf
	return &Blob{buf: bufPtr, size: size}
}

// Bytes exposes the payload. Invalid after Finalize.
func (b *Blob) Bytes() []byte {
	if b.buf == nil {
		panic("mock: blob used after finalize")
	}
	return *b.buf
}

func (b *Blob) Weight() int64 {
	return int64(unsafe.Sizeof(*b)) + int64(b.size)
}

// Finalize returns the backing buffer to the pool. Exactly-once is the
// caller's (or the owning primitive's) contract; a second call panics.
func (b *Blob) Finalize() {
	if b.buf == nil {
		panic("mock: blob finalized twice")
	}
	blobPool.Put(b.buf)
	b.buf = nil
}

// Node is the canonical cyclic shape: a container owns its members through
// strong handles (downward), members reference the container through a weak
// handle (upward). Children live in a borrow cell so the tree stays mutable
// through shared ownership.
type Node struct {
	Name     string
	Payload  *Blob
	Children *borrow.Cell[[]*rc.Shared[Node]]
	Parent   *rc.Weak[Node]
}

// FinalizeNode is the node finalizer: it cascades ownership release down the
// tree (dropping child strong handles) and lets go of the upward weak edge.
func FinalizeNode(n Node) {
	if n.Payload != nil {
		n.Payload.Finalize()
	}
	if n.Children != nil {
		for _, child := range n.Children.Replace(nil) {
			child.Drop()
		}
	}
	if n.Parent != nil && n.Parent.IsLive() {
		n.Parent.Drop()
	}
}

// GenTree builds a tree of the given depth and fanout where every node
// carries a payload of payloadSize bytes. Dropping the returned root handle
// cascades: all nodes finalize and all blocks release.
func GenTree(depth, fanout, payloadSize int) *rc.Shared[Node] {
	return genNode("root", depth, fanout, payloadSize, nil)
}

func genNode(name string, depth, fanout, payloadSize int, parent *rc.Weak[Node]) *rc.Shared[Node] {
	node := rc.New(Node{
		Name:     name,
		Payload:  NewBlob(payloadSize),
		Children: borrow.New[[]*rc.Shared[Node]](nil),
		Parent:   parent,
	}, rc.WithFinalizer(FinalizeNode))

	if depth <= 0 {
		return node
	}

	guard := node.Deref().Children.BorrowMut()
	children := make([]*rc.Shared[Node], 0, fanout)
	for i := 0; i < fanout; i++ {
		child := genNode(
			name+"/"+strconv.Itoa(i),
			depth-1, fanout, payloadSize,
			node.Downgrade(),
		)
		children = append(children, child)
	}
	guard.Set(children)
	guard.Release()

	return node
}

// CountNodes walks the tree through read borrows and returns the node count.
func CountNodes(root *rc.Shared[Node]) int {
	count := 1
	guard := root.Deref().Children.Borrow()
	for _, child := range *guard.Get() {
		count += CountNodes(child)
	}
	guard.Release()
	return count
}
