// Package sysalloc adapts a heap.Allocator to the general-purpose allocation interface
// that memory consumers use. The process-wide heap lives behind a spin mutex here, and every
// operation holds the mutex for its whole duration.
package sysalloc

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/holeheap/heap"
	"github.com/vkngwrapper/holeheap/holes"
	"github.com/vkngwrapper/holeheap/internal/utils"
	"github.com/vkngwrapper/holeheap/memutils"
	"golang.org/x/exp/slog"
)

var global = utils.NewSpinMutex(heap.Empty())

// System allocates from a heap.Allocator guarded by a spin mutex. The zero value is not
// usable; get one from Global or New.
type System struct {
	allocator *utils.SpinMutex[heap.Allocator]
}

var _ heap.GlobalAllocator = System{}

// Global returns the adapter over the process-wide heap. Init must be called once before
// anything is allocated through it.
func Global() System {
	return System{allocator: global}
}

// Init initializes the process-wide heap
func Init(logger *slog.Logger, provisioner heap.Provisioner, options heap.CreateOptions) error {
	return Global().Init(logger, provisioner, options)
}

// New returns an adapter over a heap of its own, separate from the process-wide heap. It
// must be initialized with Init before use.
func New() System {
	return System{allocator: utils.NewSpinMutex(heap.Empty())}
}

// Init initializes the heap this adapter allocates from. It panics if the heap was already
// initialized.
func (s System) Init(logger *slog.Logger, provisioner heap.Provisioner, options heap.CreateOptions) error {
	guard := s.allocator.Lock()
	defer guard.Unlock()

	return guard.Value().Init(logger, provisioner, options)
}

// IsInitialized returns true once the heap has been initialized
func (s System) IsInitialized() bool {
	guard := s.allocator.Lock()
	defer guard.Unlock()

	return guard.Value().IsInitialized()
}

// Alloc returns the address of a new allocation fitting layout, or 0 if the heap has no room
// for it
func (s System) Alloc(layout heap.Layout) uintptr {
	guard := s.allocator.Lock()
	defer guard.Unlock()

	return alloc(guard.Value(), layout)
}

func alloc(allocator *heap.Allocator, layout heap.Layout) uintptr {
	memutils.DebugCheckPow2(layout.Align, "layout alignment")

	addr, err := allocator.Allocate(layout.Size, layout.Align)
	if errors.Is(err, holes.ErrOutOfMemory) {
		return 0
	} else if err != nil {
		panic(err)
	}

	return addr
}

// AllocZeroed behaves like Alloc, but the returned memory is cleared
func (s System) AllocZeroed(layout heap.Layout) uintptr {
	guard := s.allocator.Lock()
	defer guard.Unlock()

	allocator := guard.Value()
	addr := alloc(allocator, layout)
	if addr == 0 || layout.Size == 0 {
		return addr
	}

	data := allocator.Bytes(addr, layout.Size)
	for i := range data {
		data[i] = 0
	}

	return addr
}

// Dealloc returns memory to the heap. layout must be the layout the memory was allocated with.
func (s System) Dealloc(addr uintptr, layout heap.Layout) {
	guard := s.allocator.Lock()
	defer guard.Unlock()

	guard.Value().Deallocate(addr, layout.Size, layout.Align)
}

// Realloc moves an allocation into a new one of newSize bytes with the same alignment,
// copying over as much of the contents as fits, and frees the old allocation. The allocation
// is never resized in place. If the heap has no room for the new allocation, Realloc returns
// 0 and the old allocation is untouched.
func (s System) Realloc(addr uintptr, layout heap.Layout, newSize int) uintptr {
	guard := s.allocator.Lock()
	defer guard.Unlock()

	allocator := guard.Value()
	// Panics before anything is allocated if the old range is not in the heap
	oldData := allocator.Bytes(addr, layout.Size)

	newAddr := alloc(allocator, heap.Layout{Size: newSize, Align: layout.Align})
	if newAddr == 0 {
		return 0
	}

	copy(allocator.Bytes(newAddr, newSize), oldData)

	allocator.Deallocate(addr, layout.Size, layout.Align)
	return newAddr
}

// Bytes returns the heap memory backing [addr, addr+size). The slice must not be used after
// the allocation it belongs to is freed.
func (s System) Bytes(addr uintptr, size int) []byte {
	guard := s.allocator.Lock()
	defer guard.Unlock()

	return guard.Value().Bytes(addr, size)
}

// Validate checks the consistency of the heap
func (s System) Validate() error {
	guard := s.allocator.Lock()
	defer guard.Unlock()

	return guard.Value().Validate()
}

// CalculateStatistics returns the heap's totals
func (s System) CalculateStatistics() memutils.DetailedStatistics {
	var stats memutils.DetailedStatistics
	stats.Clear()

	s.allocator.With(func(allocator *heap.Allocator) {
		allocator.AddDetailedStatistics(&stats)
	})

	return stats
}

// BuildStatsString returns a json document describing the heap
func (s System) BuildStatsString(detailed bool) string {
	var result string
	s.allocator.With(func(allocator *heap.Allocator) {
		result = allocator.BuildStatsString(detailed)
	})

	return result
}

// LogUnreleasedAllocations logs the allocations that are still live and returns how many
// there were
func (s System) LogUnreleasedAllocations() int {
	var count int
	s.allocator.With(func(allocator *heap.Allocator) {
		count = allocator.LogUnreleasedAllocations()
	})

	return count
}
