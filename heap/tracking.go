package heap

import (
	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/holeheap/holes"
	"golang.org/x/exp/slices"
)

type allocationTracker struct {
	sizes *swiss.Map[uintptr, int]
}

func newAllocationTracker() *allocationTracker {
	return &allocationTracker{
		sizes: swiss.NewMap[uintptr, int](42),
	}
}

func (t *allocationTracker) register(addr uintptr, size int) {
	if _, exists := t.sizes.Get(addr); exists {
		panic(errors.AssertionFailedf("address %#x was handed out while it was still live", addr))
	}

	t.sizes.Put(addr, size)
}

func (t *allocationTracker) unregister(addr uintptr, size int) {
	liveSize, exists := t.sizes.Get(addr)
	if !exists {
		panic(errors.Wrapf(holes.ErrInvalidDeallocation, "address %#x is not a live allocation", addr))
	}
	if liveSize != size {
		panic(errors.Wrapf(holes.ErrInvalidDeallocation, "allocation at %#x is %d bytes, but was freed as %d bytes", addr, liveSize, size))
	}

	t.sizes.Delete(addr)
}

func (t *allocationTracker) count() int {
	return t.sizes.Count()
}

func (t *allocationTracker) visit(visit func(addr uintptr, size int)) {
	t.sizes.Iter(func(addr uintptr, size int) bool {
		visit(addr, size)
		return false
	})
}

// sorted returns the live allocations in address order
func (t *allocationTracker) sorted() []holes.HoleInfo {
	result := make([]holes.HoleInfo, 0, t.count())
	t.visit(func(addr uintptr, size int) {
		result = append(result, holes.HoleInfo{Addr: addr, Size: size})
	})

	slices.SortFunc(result, func(left, right holes.HoleInfo) bool {
		return left.Addr < right.Addr
	})

	return result
}
