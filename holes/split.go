package holes

import (
	"github.com/vkngwrapper/holeheap/memutils"
)

// Layout is the size and alignment of a requested allocation. Size is expected to already be an
// effective size: at least MinSize and a multiple of Align.
type Layout struct {
	Size  int
	Align uint
}

// Allocation is the result of splitting a hole to satisfy a Layout. Info is the region handed
// out; FrontPadding and BackPadding are the leftover pieces of the hole, if any, which must be
// returned to the list as new holes.
type Allocation struct {
	Info         HoleInfo
	FrontPadding *HoleInfo
	BackPadding  *HoleInfo
}

// splitHole carves the requested layout out of the given hole. It returns false if the hole
// can't hold the layout at the required alignment, or if doing so would leave a remainder at
// the back that is too small to be a hole.
func splitHole(h HoleInfo, required Layout) (Allocation, bool) {
	alignedAddr := h.Addr
	var frontPadding *HoleInfo

	if !memutils.IsAligned(h.Addr, required.Align) {
		// The front padding has to be able to stand as a hole on its own
		alignedAddr = memutils.AlignUp(h.Addr+uintptr(MinSize), required.Align)
		frontPadding = &HoleInfo{
			Addr: h.Addr,
			Size: int(alignedAddr - h.Addr),
		}
	}

	if alignedAddr+uintptr(required.Size) > h.End() {
		return Allocation{}, false
	}

	alignedSize := h.Size - int(alignedAddr-h.Addr)
	remainder := alignedSize - required.Size

	var backPadding *HoleInfo
	if remainder > 0 && remainder < MinSize {
		// Accepting would leave behind a sliver that can't hold a header
		return Allocation{}, false
	} else if remainder > 0 {
		backPadding = &HoleInfo{
			Addr: alignedAddr + uintptr(required.Size),
			Size: remainder,
		}
	}

	return Allocation{
		Info:         HoleInfo{Addr: alignedAddr, Size: required.Size},
		FrontPadding: frontPadding,
		BackPadding:  backPadding,
	}, true
}
