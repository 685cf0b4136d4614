package heap

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/holeheap/holes"
	"github.com/vkngwrapper/holeheap/memutils"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific allocator behaviors to activate or deactivate
type CreateFlags int32

const (
	// CreateExecutable requests that the heap region be mapped executable as well as writable
	CreateExecutable CreateFlags = 1 << iota
	// CreateTrackAllocations keeps a registry of every live allocation. Deallocate then
	// verifies that the address and size match a live allocation and panics if they don't,
	// statistics include per-allocation sizes, and LogUnreleasedAllocations can list leaks.
	// This costs a map insert and delete per allocation.
	CreateTrackAllocations
)

var createFlagsMapping = map[CreateFlags]string{
	CreateExecutable:       "CreateExecutable",
	CreateTrackAllocations: "CreateTrackAllocations",
}

func (f CreateFlags) String() string {
	if f == 0 {
		return "None"
	}

	var names []string
	for bit := CreateFlags(1); bit != 0 && bit <= f; bit <<= 1 {
		if f&bit == 0 {
			continue
		}

		name, ok := createFlagsMapping[bit]
		if !ok {
			name = fmt.Sprintf("CreateFlags(%#x)", int32(bit))
		}
		names = append(names, name)
	}

	return strings.Join(names, "|")
}

const (
	// DefaultHeapSize is the size in bytes of the heap region when CreateOptions.HeapSize is
	// not set
	DefaultHeapSize int = 0x4000
)

// CreateOptions contains optional settings when initializing an Allocator. It is valid to
// leave all the fields blank.
type CreateOptions struct {
	// Flags indicates specific allocator behaviors to activate or deactivate
	Flags CreateFlags
	// HeapStart is the address of the heap region. DefaultHeapStart is used if it is 0.
	HeapStart uintptr
	// HeapSize is the size in bytes of the heap region. DefaultHeapSize is used if it is 0.
	HeapSize int
}

// Empty returns an Allocator with no backing memory. Init must be called before any
// allocation is made from it.
func Empty() Allocator {
	return Allocator{}
}

// Init provisions and maps the heap region through provisioner and builds the free list,
// which starts out as a single hole covering the whole region. Init may only be called once;
// a second call panics.
//
// If the provisioner fails, the error is returned and the Allocator stays empty.
func (a *Allocator) Init(logger *slog.Logger, provisioner Provisioner, options CreateOptions) error {
	if a.holes != nil {
		panic("attempting to initialize a heap allocator that is already initialized")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard))
	}

	heapStart := options.HeapStart
	if heapStart == 0 {
		heapStart = DefaultHeapStart
	}

	heapSize := options.HeapSize
	if heapSize == 0 {
		heapSize = DefaultHeapSize
	}

	logger.Debug("Allocator::Init",
		slog.Uint64("HeapStart", uint64(heapStart)),
		slog.Int("HeapSize", heapSize),
		slog.String("Flags", options.Flags.String()),
	)

	if !memutils.IsAligned(heapStart, holes.Align) {
		return errors.Newf("heap start %#x must be aligned to %d bytes", heapStart, holes.Align)
	}
	if heapSize < holes.MinSize || heapSize%int(holes.Align) != 0 {
		return errors.Newf("heap size %d must be a multiple of %d and at least %d bytes", heapSize, holes.Align, holes.MinSize)
	}

	executable := options.Flags&CreateExecutable != 0
	region, err := provisioner.ProvisionRegion(heapStart, heapSize, true, executable)
	if err != nil {
		logger.LogAttrs(context.Background(), slog.LevelError, "failed to provision heap region", slog.Any("error", err))
		return errors.Wrapf(err, "failed to provision a heap region of %d bytes at %#x", heapSize, heapStart)
	}

	err = provisioner.MapRegion(region)
	if err != nil {
		logger.LogAttrs(context.Background(), slog.LevelError, "failed to map heap region", slog.Any("error", err))
		return errors.Wrapf(err, "failed to map the heap region of %d bytes at %#x", heapSize, heapStart)
	}

	if region.Base() != heapStart {
		return errors.Newf("provisioner placed the heap region at %#x instead of %#x", region.Base(), heapStart)
	}

	data := region.Bytes()
	if len(data) < heapSize {
		return errors.Newf("provisioner mapped %d bytes for a heap region of %d bytes", len(data), heapSize)
	}

	a.logger = logger
	a.createFlags = options.Flags
	a.region = region
	a.heapBottom = heapStart
	a.heapSize = heapSize
	if options.Flags&CreateTrackAllocations != 0 {
		a.tracker = newAllocationTracker()
	}
	a.holes = holes.New(data[:heapSize:heapSize], heapStart)

	return nil
}
