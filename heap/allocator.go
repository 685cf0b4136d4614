package heap

import (
	"context"
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/holeheap/holes"
	"github.com/vkngwrapper/holeheap/memutils"
	"golang.org/x/exp/slog"
)

// Layout is the size and alignment requested for an allocation
type Layout struct {
	Size  int
	Align uint
}

// NewLayout builds a Layout, verifying that size is not negative and that align is a power
// of two
func NewLayout(size int, align uint) (Layout, error) {
	if size < 0 {
		return Layout{}, errors.Newf("layout size %d is negative", size)
	}

	err := memutils.CheckPow2(align, "layout alignment")
	if err != nil {
		return Layout{}, err
	}

	return Layout{Size: size, Align: align}, nil
}

// GlobalAllocator is the interface that general-purpose memory consumers allocate through.
// Alloc returns 0 when the request can't be satisfied. Dealloc must be called with the same
// layout the memory was allocated with.
type GlobalAllocator interface {
	Alloc(layout Layout) uintptr
	Dealloc(addr uintptr, layout Layout)
}

// Allocator owns one heap region and the hole list that tracks its free memory. It is created
// empty and becomes usable after a single call to Init; it is never torn down.
//
// Allocator is not synchronized. The process-wide instance lives behind a spin mutex in the
// sysalloc package.
type Allocator struct {
	logger      *slog.Logger
	createFlags CreateFlags

	heapBottom uintptr
	heapSize   int
	region     Region
	holes      *holes.HoleList
	tracker    *allocationTracker
}

// Larger sizes overflow when rounded up to holes.Align
const maxAllocationSize = math.MaxInt - int(holes.Align)

// EffectiveLayout returns the layout the hole list actually allocates for a request: the size
// is raised to holes.MinSize and rounded up to holes.Align so that the memory can hold a hole
// header once it's freed
func EffectiveLayout(size int, align uint) holes.Layout {
	if size < holes.MinSize {
		size = holes.MinSize
	}

	return holes.Layout{
		Size:  memutils.AlignUp(size, holes.Align),
		Align: align,
	}
}

func (a *Allocator) holeList() *holes.HoleList {
	if a.holes == nil {
		panic(errors.Wrap(ErrNotInitialized, "tried to use the heap before initializing the allocator"))
	}

	return a.holes
}

// IsInitialized returns true once Init has succeeded
func (a *Allocator) IsInitialized() bool {
	return a.holes != nil
}

func (a *Allocator) HeapBottom() uintptr { return a.heapBottom }

func (a *Allocator) HeapSize() int { return a.heapSize }

// Allocate finds room for size bytes at the requested alignment using a first-fit search of
// the free list. It returns an error wrapping holes.ErrOutOfMemory if no hole is large enough,
// in which case the heap is unchanged.
//
// Allocate panics if the Allocator has not been initialized, or if align is neither zero nor
// a power of two.
func (a *Allocator) Allocate(size int, align uint) (uintptr, error) {
	list := a.holeList()
	if size < 0 {
		panic(fmt.Sprintf("allocation size %d is negative", size))
	}

	a.logger.Debug("Allocator::Allocate", slog.Int("Size", size), slog.Uint64("Alignment", uint64(align)))

	if size > maxAllocationSize {
		return 0, errors.Wrapf(holes.ErrOutOfMemory, "size %d cannot be rounded to a hole size", size)
	}

	layout := EffectiveLayout(size, align)
	addr, err := list.AllocateFirstFit(layout)
	if err != nil {
		a.logger.Debug("  Allocator::Allocate FAILED", slog.Int("FreeBytes", list.SumFreeSize()))
		list.DebugLogAllHoles(a.logger)
		return 0, err
	}

	if a.tracker != nil {
		a.tracker.register(addr, layout.Size)
	}

	return addr, nil
}

// Deallocate returns the memory at addr to the heap. size and align must be the values the
// memory was allocated with. Freeing memory that overlaps free space panics with an error
// wrapping holes.ErrInvalidDeallocation.
func (a *Allocator) Deallocate(addr uintptr, size int, align uint) {
	list := a.holeList()

	a.logger.Debug("Allocator::Deallocate", slog.Uint64("Address", uint64(addr)), slog.Int("Size", size))

	layout := EffectiveLayout(size, align)
	if a.tracker != nil {
		a.tracker.unregister(addr, layout.Size)
	}

	list.Free(addr, layout)
}

// Bytes returns the heap memory backing [addr, addr+size). It panics if the range is not
// inside the heap region. The slice aliases heap memory and must not be used after the
// allocation that contains it is freed.
func (a *Allocator) Bytes(addr uintptr, size int) []byte {
	list := a.holeList()
	if !list.Contains(addr, size) {
		panic(fmt.Sprintf("range %s is outside of the heap region %s",
			holes.HoleInfo{Addr: addr, Size: size}, holes.HoleInfo{Addr: a.heapBottom, Size: a.heapSize}))
	}

	offset := int(addr - a.heapBottom)
	return a.region.Bytes()[offset : offset+size : offset+size]
}

// Validate runs the consistency checks of the free list
func (a *Allocator) Validate() error {
	if a.holes == nil {
		return errors.Wrap(ErrNotInitialized, "there is no free list to validate")
	}

	err := a.holes.Validate()
	if err != nil {
		return err
	}

	if a.tracker != nil && a.tracker.count() != a.holes.AllocationCount() {
		return errors.Errorf("the allocator is tracking %d allocations, but the free list counts %d",
			a.tracker.count(), a.holes.AllocationCount())
	}

	return nil
}

// AddStatistics sums the heap's totals into stats. An uninitialized Allocator adds nothing.
func (a *Allocator) AddStatistics(stats *memutils.Statistics) {
	if a.holes == nil {
		return
	}

	a.holes.AddStatistics(stats)
}

// AddDetailedStatistics sums the heap's totals and hole sizes into stats. Allocation size
// ranges are only available with CreateTrackAllocations.
func (a *Allocator) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	if a.holes == nil {
		return
	}

	a.holes.AddDetailedStatistics(stats)

	if a.tracker != nil {
		a.tracker.visit(func(addr uintptr, size int) {
			stats.AddAllocationSize(size)
		})
	}
}

// LogUnreleasedAllocations logs every live allocation at error level and returns how many
// there were. Without CreateTrackAllocations only the totals are known, and a single line is
// logged for them.
func (a *Allocator) LogUnreleasedAllocations() int {
	if a.holes == nil || a.holes.IsEmpty() {
		return 0
	}

	if a.tracker == nil {
		a.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] unfreed allocations",
			slog.Int("count", a.holes.AllocationCount()),
			slog.Int("bytes", a.heapSize-a.holes.SumFreeSize()),
		)
		return a.holes.AllocationCount()
	}

	for _, alloc := range a.tracker.sorted() {
		a.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] unfreed allocation",
			slog.Uint64("addr", uint64(alloc.Addr)),
			slog.Int("size", alloc.Size),
		)
	}

	return a.tracker.count()
}

// BuildStatsString returns a json document describing the heap. When detailed is true, it
// lists every hole, and every live allocation if allocations are being tracked.
func (a *Allocator) BuildStatsString(detailed bool) string {
	writer := jwriter.NewWriter()
	root := writer.Object()

	var stats memutils.DetailedStatistics
	stats.Clear()
	a.AddDetailedStatistics(&stats)

	totalObj := root.Name("Total").Object()
	printStatistics(&totalObj, &stats)
	totalObj.End()

	if a.holes != nil {
		regionObj := root.Name("Region").Object()
		a.holes.BlockJsonData(&regionObj)
		regionObj.Name("Flags").String(a.createFlags.String())

		if detailed {
			a.printDetailedMap(&regionObj)
		}

		regionObj.End()
	}

	root.End()

	return string(writer.Bytes())
}

func (a *Allocator) printDetailedMap(json *jwriter.ObjectState) {
	holesArray := json.Name("Holes").Array()
	_ = a.holes.VisitHoles(func(h holes.HoleInfo) error {
		obj := holesArray.Object()
		defer obj.End()

		obj.Name("Offset").Int(int(h.Addr - a.heapBottom))
		obj.Name("Size").Int(h.Size)
		return nil
	})
	holesArray.End()

	if a.tracker == nil {
		return
	}

	allocArray := json.Name("LiveAllocations").Array()
	for _, alloc := range a.tracker.sorted() {
		obj := allocArray.Object()
		obj.Name("Offset").Int(int(alloc.Addr - a.heapBottom))
		obj.Name("Size").Int(alloc.Size)
		obj.End()
	}
	allocArray.End()
}

func printStatistics(json *jwriter.ObjectState, stats *memutils.DetailedStatistics) {
	json.Name("RegionCount").Int(stats.RegionCount)
	json.Name("AllocationCount").Int(stats.AllocationCount)
	json.Name("RegionBytes").Int(stats.RegionBytes)
	json.Name("AllocationBytes").Int(stats.AllocationBytes)
	json.Name("HoleCount").Int(stats.HoleCount)

	if stats.HoleCount > 0 {
		json.Name("HoleSizeMin").Int(stats.HoleSizeMin)
		json.Name("HoleSizeMax").Int(stats.HoleSizeMax)
	}

	if stats.AllocationSizeMax > 0 {
		json.Name("AllocationSizeMin").Int(stats.AllocationSizeMin)
		json.Name("AllocationSizeMax").Int(stats.AllocationSizeMax)
	}
}
