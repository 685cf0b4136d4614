package holes

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/holeheap/memutils"
)

// HoleList tracks the free regions of one contiguous heap region as a singly-linked list whose
// nodes are stored inside the free memory itself. Holes are kept in ascending address order,
// never overlap, and adjacent holes are always merged.
//
// The list head plays the part of a sentinel hole of size 0: first is the address of the
// lowest hole, or noHole when the heap is fully allocated.
//
// HoleList is not safe for concurrent use.
type HoleList struct {
	base  uintptr
	arena []byte
	first uintptr

	allocCount int
	freeBytes  int
}

// New creates a HoleList that manages arena, whose first byte lives at address base. The whole
// arena (rounded down to a multiple of Align) starts out as a single hole. The arena must not be
// used by anything else for as long as the HoleList exists.
func New(arena []byte, base uintptr) *HoleList {
	if base == noHole {
		panic("a heap region cannot start at address 0")
	}
	if !memutils.IsAligned(base, Align) {
		panic(fmt.Sprintf("heap region base %#x is not aligned to %d bytes", base, Align))
	}

	size := memutils.AlignDown(len(arena), Align)
	if size < MinSize {
		panic(fmt.Sprintf("heap region of %d bytes cannot hold a single hole", len(arena)))
	}

	l := &HoleList{
		base:      base,
		arena:     arena[:size],
		first:     base,
		freeBytes: size,
	}
	l.writeHole(base, hole{size: size, next: noHole})

	return l
}

func (l *HoleList) Base() uintptr { return l.base }

func (l *HoleList) Size() int { return len(l.arena) }

// Contains returns true if [addr, addr+size) lies entirely within the region
func (l *HoleList) Contains(addr uintptr, size int) bool {
	return addr >= l.base && size >= 0 && addr-l.base <= uintptr(len(l.arena)) && int(addr-l.base)+size <= len(l.arena)
}

// AllocateFirstFit searches the list for the first hole, in address order, that can hold
// layout, removes the region from the free list, and returns its address. Any padding left in
// front of or behind the region goes back into the list as new holes. This is O(n) in the
// number of holes.
//
// If no hole is suitable, ErrOutOfMemory is returned and the list is not modified.
func (l *HoleList) AllocateFirstFit(layout Layout) (uintptr, error) {
	if layout.Size < MinSize {
		panic(fmt.Sprintf("allocation size %d is below the minimum hole size %d", layout.Size, MinSize))
	}

	memutils.DebugValidate(l)

	allocation, found := l.allocateFirstFit(layout)
	if !found {
		return 0, errors.Wrapf(ErrOutOfMemory, "size %d alignment %d", layout.Size, layout.Align)
	}

	if allocation.FrontPadding != nil {
		l.free(allocation.FrontPadding.Addr, allocation.FrontPadding.Size)
	}

	if allocation.BackPadding != nil {
		l.free(allocation.BackPadding.Addr, allocation.BackPadding.Size)
	}

	l.allocCount++
	l.freeBytes -= allocation.Info.Size

	memutils.DebugValidate(l)

	return allocation.Info.Addr, nil
}

// Free returns the region described by addr and layout to the list, merging it with the holes
// on either side when they are adjacent. The layout must be the one the region was allocated
// with.
//
// Freeing a region that overlaps a hole, or that is not inside the heap, panics with an error
// wrapping ErrInvalidDeallocation: carrying on would corrupt the list.
func (l *HoleList) Free(addr uintptr, layout Layout) {
	if !l.Contains(addr, layout.Size) {
		panic(errors.Wrapf(ErrInvalidDeallocation, "region %s is outside of the heap region %s",
			HoleInfo{Addr: addr, Size: layout.Size}, HoleInfo{Addr: l.base, Size: len(l.arena)}))
	}

	memutils.DebugValidate(l)

	l.free(addr, layout.Size)
	l.allocCount--
	l.freeBytes += layout.Size

	memutils.DebugValidate(l)
}

// next returns the address of the hole following cursor. A cursor of noHole is the list head.
func (l *HoleList) next(cursor uintptr) uintptr {
	if cursor == noHole {
		return l.first
	}

	return l.readHole(cursor).next
}

func (l *HoleList) setNext(cursor uintptr, next uintptr) {
	if cursor == noHole {
		l.first = next
		return
	}

	h := l.readHole(cursor)
	h.next = next
	l.writeHole(cursor, h)
}

func (l *HoleList) info(addr uintptr) HoleInfo {
	return HoleInfo{Addr: addr, Size: l.readHole(addr).size}
}

func (l *HoleList) allocateFirstFit(layout Layout) (Allocation, bool) {
	previous := noHole

	for {
		current := l.next(previous)
		if current == noHole {
			// Ran off the end of the list
			return Allocation{}, false
		}

		allocation, ok := splitHole(l.info(current), layout)
		if ok {
			// Unlink the hole; the padding is put back by the caller
			l.setNext(previous, l.next(current))
			return allocation, true
		}

		previous = current
	}
}

// free walks the list from the head and inserts [addr, addr+size) at its sorted position,
// merging it with neighbouring holes
func (l *HoleList) free(addr uintptr, size int) {
	cursor := noHole

	for {
		if size < MinSize {
			panic(errors.Wrapf(ErrInvalidDeallocation, "freed size %d is below the minimum hole size %d", size, MinSize))
		}

		isHead := cursor == noHole
		var current HoleInfo
		if !isHead {
			current = l.info(cursor)
			if current.End() > addr {
				panic(errors.Wrapf(ErrInvalidDeallocation, "freed region %s overlaps or precedes hole %s (probable double free)",
					HoleInfo{Addr: addr, Size: size}, current))
			}
		}

		next := l.next(cursor)
		var nextInfo HoleInfo
		if next != noHole {
			nextInfo = l.info(next)

			if addr < next && addr+uintptr(size) > next {
				panic(errors.Wrapf(ErrInvalidDeallocation, "freed region %s overlaps hole %s (probable double free)",
					HoleInfo{Addr: addr, Size: size}, nextInfo))
			}
		}

		switch {
		case !isHead && next != noHole && current.End() == addr && addr+uintptr(size) == next:
			// The freed block exactly fills the gap between this hole and the next:
			//   ___XXXFFFFYYYY___
			l.writeHole(cursor, hole{
				size: current.Size + size + nextInfo.Size,
				next: l.next(next),
			})

		case !isHead && current.End() == addr:
			// The freed block is right behind this hole, with used memory (or the end of the
			// heap) after it:
			//   ___XXXFFFF__YYYY___
			l.writeHole(cursor, hole{
				size: current.Size + size,
				next: next,
			})

		case next != noHole && addr+uintptr(size) == next:
			// The freed block is right before the next hole, with used memory before it. Swallow
			// the next hole and keep going; the bigger block may still touch this hole.
			//   ___XXX__FFFFYYYY___
			l.setNext(cursor, l.next(next))
			size += nextInfo.Size
			continue

		case next != noHole && next <= addr:
			// The freed block is past the next hole; hand it on
			//   ___XXX___YYYY__FFFF__
			cursor = next
			continue

		default:
			// The freed block sits between this hole and the next (or past the last hole) and
			// touches neither
			//   ___XXX__FFFF__YYYY___
			l.writeHole(addr, hole{size: size, next: next})
			l.setNext(cursor, addr)
		}

		return
	}
}
