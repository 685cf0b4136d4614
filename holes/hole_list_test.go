package holes_test

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/holeheap/holes"
	"github.com/vkngwrapper/holeheap/memutils"
)

const (
	testBase uintptr = 0x100000
	testSize int     = 16384
)

func newTestList(t *testing.T, base uintptr, size int) (*holes.HoleList, []byte) {
	arena := make([]byte, size)
	list := holes.New(arena, base)
	require.NoError(t, list.Validate())
	return list, arena
}

func holeSnapshot(t *testing.T, list *holes.HoleList) []holes.HoleInfo {
	var result []holes.HoleInfo
	require.NoError(t, list.VisitHoles(func(h holes.HoleInfo) error {
		result = append(result, h)
		return nil
	}))
	return result
}

func layout(size int, align uint) holes.Layout {
	return holes.Layout{Size: size, Align: align}
}

func requirePanicsWithError(t *testing.T, target error, f func()) {
	t.Helper()

	defer func() {
		recovered := recover()
		require.NotNil(t, recovered, "expected a panic")

		err, ok := recovered.(error)
		require.True(t, ok, "expected the panic value to be an error, got %v", recovered)
		require.True(t, errors.Is(err, target), "expected %v to wrap %v", err, target)
	}()

	f()
}

func TestHoleListNew(t *testing.T) {
	list, _ := newTestList(t, testBase, testSize)

	require.Equal(t, testBase, list.Base())
	require.Equal(t, testSize, list.Size())
	require.Equal(t, testSize, list.SumFreeSize())
	require.Equal(t, 1, list.FreeRegionsCount())
	require.True(t, list.IsEmpty())
	require.Equal(t, []holes.HoleInfo{{Addr: testBase, Size: testSize}}, holeSnapshot(t, list))
}

func TestHoleListNewInvalidRegion(t *testing.T) {
	require.Panics(t, func() {
		holes.New(make([]byte, 64), 0)
	})
	require.Panics(t, func() {
		holes.New(make([]byte, 64), testBase+1)
	})
	require.Panics(t, func() {
		holes.New(make([]byte, holes.MinSize-1), testBase)
	})
}

func TestAllocateAlignedStartRestoresOnFree(t *testing.T) {
	list, _ := newTestList(t, testBase, testSize)

	addr, err := list.AllocateFirstFit(layout(64, 8))
	require.NoError(t, err)
	require.Equal(t, testBase, addr)
	require.Equal(t, []holes.HoleInfo{{Addr: testBase + 64, Size: testSize - 64}}, holeSnapshot(t, list))
	require.Equal(t, 1, list.AllocationCount())
	require.NoError(t, list.Validate())

	list.Free(addr, layout(64, 8))
	require.Equal(t, []holes.HoleInfo{{Addr: testBase, Size: testSize}}, holeSnapshot(t, list))
	require.True(t, list.IsEmpty())
	require.NoError(t, list.Validate())
}

func TestAllocateLargeAlignmentCreatesFrontAndBackPadding(t *testing.T) {
	base := uintptr(0x100010)
	list, _ := newTestList(t, base, testSize)

	addr, err := list.AllocateFirstFit(layout(64, 4096))
	require.NoError(t, err)

	expected := memutils.AlignUp(base+uintptr(holes.MinSize), 4096)
	require.Equal(t, expected, addr)
	require.Zero(t, addr%4096)

	end := base + uintptr(testSize)
	require.Equal(t, []holes.HoleInfo{
		{Addr: base, Size: int(expected - base)},
		{Addr: expected + 64, Size: int(end - (expected + 64))},
	}, holeSnapshot(t, list))
	require.NoError(t, list.Validate())

	list.Free(addr, layout(64, 4096))
	require.Equal(t, []holes.HoleInfo{{Addr: base, Size: testSize}}, holeSnapshot(t, list))
	require.NoError(t, list.Validate())
}

func TestAllocateRefusesSliverAndMovesOn(t *testing.T) {
	list, _ := newTestList(t, testBase, testSize)

	wordSize := holes.MinSize / 2
	first, err := list.AllocateFirstFit(layout(64+wordSize, holes.Align))
	require.NoError(t, err)
	second, err := list.AllocateFirstFit(layout(64, holes.Align))
	require.NoError(t, err)

	list.Free(first, layout(64+wordSize, holes.Align))
	require.Equal(t, []holes.HoleInfo{
		{Addr: testBase, Size: 64 + wordSize},
		{Addr: second + 64, Size: testSize - 128 - wordSize},
	}, holeSnapshot(t, list))

	// The first hole would leave a single word behind, so the second hole gets used
	third, err := list.AllocateFirstFit(layout(64, holes.Align))
	require.NoError(t, err)
	require.Equal(t, second+64, third)
	require.Equal(t, []holes.HoleInfo{
		{Addr: testBase, Size: 64 + wordSize},
		{Addr: third + 64, Size: testSize - 192 - wordSize},
	}, holeSnapshot(t, list))
	require.NoError(t, list.Validate())
}

func TestAllocateExhaustionLeavesListUntouched(t *testing.T) {
	list, arena := newTestList(t, testBase, 1024)

	// Leave holes of 64 bytes between live allocations
	var live []uintptr
	for i := 0; i < 8; i++ {
		addr, err := list.AllocateFirstFit(layout(64, 8))
		require.NoError(t, err)
		live = append(live, addr)
	}
	for i := 0; i < len(live); i += 2 {
		list.Free(live[i], layout(64, 8))
	}

	before := holeSnapshot(t, list)
	arenaBefore := bytes.Clone(arena)
	freeBefore := list.SumFreeSize()

	_, err := list.AllocateFirstFit(layout(1024, 8))
	require.Error(t, err)
	require.True(t, errors.Is(err, holes.ErrOutOfMemory))

	require.Equal(t, before, holeSnapshot(t, list))
	require.Equal(t, arenaBefore, arena)
	require.Equal(t, freeBefore, list.SumFreeSize())
	require.NoError(t, list.Validate())
}

func TestAllocateEntireHeap(t *testing.T) {
	list, _ := newTestList(t, testBase, testSize)

	addr, err := list.AllocateFirstFit(layout(testSize, 8))
	require.NoError(t, err)
	require.Equal(t, testBase, addr)
	require.Empty(t, holeSnapshot(t, list))
	require.Zero(t, list.SumFreeSize())

	_, err = list.AllocateFirstFit(layout(holes.MinSize, 1))
	require.True(t, errors.Is(err, holes.ErrOutOfMemory))

	list.Free(addr, layout(testSize, 8))
	require.Equal(t, []holes.HoleInfo{{Addr: testBase, Size: testSize}}, holeSnapshot(t, list))
}

func TestFreeMergesBothNeighbours(t *testing.T) {
	list, _ := newTestList(t, testBase, testSize)

	var blocks [4]uintptr
	for i := range blocks {
		addr, err := list.AllocateFirstFit(layout(64, 8))
		require.NoError(t, err)
		blocks[i] = addr
	}

	// Neither neighbour is free
	list.Free(blocks[0], layout(64, 8))
	list.Free(blocks[2], layout(64, 8))
	require.Equal(t, []holes.HoleInfo{
		{Addr: testBase, Size: 64},
		{Addr: testBase + 128, Size: 64},
		{Addr: testBase + 256, Size: testSize - 256},
	}, holeSnapshot(t, list))

	// Fills the gap between two holes
	list.Free(blocks[1], layout(64, 8))
	require.Equal(t, []holes.HoleInfo{
		{Addr: testBase, Size: 192},
		{Addr: testBase + 256, Size: testSize - 256},
	}, holeSnapshot(t, list))

	list.Free(blocks[3], layout(64, 8))
	require.Equal(t, []holes.HoleInfo{{Addr: testBase, Size: testSize}}, holeSnapshot(t, list))
	require.NoError(t, list.Validate())
}

func TestFreeMergesPreviousOnly(t *testing.T) {
	list, _ := newTestList(t, testBase, testSize)

	a, err := list.AllocateFirstFit(layout(64, 8))
	require.NoError(t, err)
	b, err := list.AllocateFirstFit(layout(64, 8))
	require.NoError(t, err)
	_, err = list.AllocateFirstFit(layout(64, 8))
	require.NoError(t, err)

	list.Free(a, layout(64, 8))
	list.Free(b, layout(64, 8))
	require.Equal(t, []holes.HoleInfo{
		{Addr: testBase, Size: 128},
		{Addr: testBase + 192, Size: testSize - 192},
	}, holeSnapshot(t, list))
	require.NoError(t, list.Validate())
}

func TestFreeMergesNextOnly(t *testing.T) {
	list, _ := newTestList(t, testBase, testSize)

	a, err := list.AllocateFirstFit(layout(64, 8))
	require.NoError(t, err)
	b, err := list.AllocateFirstFit(layout(64, 8))
	require.NoError(t, err)

	list.Free(b, layout(64, 8))
	require.Equal(t, []holes.HoleInfo{{Addr: testBase + 64, Size: testSize - 64}}, holeSnapshot(t, list))

	list.Free(a, layout(64, 8))
	require.Equal(t, []holes.HoleInfo{{Addr: testBase, Size: testSize}}, holeSnapshot(t, list))
	require.NoError(t, list.Validate())
}

func TestDoubleFreePanics(t *testing.T) {
	list, _ := newTestList(t, testBase, testSize)

	a, err := list.AllocateFirstFit(layout(64, 8))
	require.NoError(t, err)
	_, err = list.AllocateFirstFit(layout(64, 8))
	require.NoError(t, err)

	list.Free(a, layout(64, 8))
	requirePanicsWithError(t, holes.ErrInvalidDeallocation, func() {
		list.Free(a, layout(64, 8))
	})

	// Overlapping the tail hole from below
	requirePanicsWithError(t, holes.ErrInvalidDeallocation, func() {
		list.Free(testBase+96, layout(64, 8))
	})
}

func TestFreeOutsideRegionPanics(t *testing.T) {
	list, _ := newTestList(t, testBase, testSize)

	requirePanicsWithError(t, holes.ErrInvalidDeallocation, func() {
		list.Free(testBase-64, layout(64, 8))
	})
	requirePanicsWithError(t, holes.ErrInvalidDeallocation, func() {
		list.Free(testBase+uintptr(testSize)-32, layout(64, 8))
	})
}

func TestAllocateBelowMinimumSizePanics(t *testing.T) {
	list, _ := newTestList(t, testBase, testSize)

	require.Panics(t, func() {
		_, _ = list.AllocateFirstFit(layout(holes.MinSize-1, 1))
	})
}

func TestAllocateFreePropertySequence(t *testing.T) {
	type liveAllocation struct {
		addr   uintptr
		layout holes.Layout
	}

	list, _ := newTestList(t, testBase, 64*1024)
	alignments := []uint{1, 2, 4, 8, 16, 64, 256, 4096}
	rnd := rand.New(rand.NewSource(1))
	var live []liveAllocation

	for i := 0; i < 2000; i++ {
		if len(live) > 0 && rnd.Intn(3) == 0 {
			index := rnd.Intn(len(live))
			alloc := live[index]
			live = append(live[:index], live[index+1:]...)

			list.Free(alloc.addr, alloc.layout)
			require.NoError(t, list.Validate())
			continue
		}

		size := memutils.AlignUp(rnd.Intn(512)+1, holes.Align)
		if size < holes.MinSize {
			size = holes.MinSize
		}
		l := layout(size, alignments[rnd.Intn(len(alignments))])

		freeBefore := list.SumFreeSize()
		addr, err := list.AllocateFirstFit(l)
		if err != nil {
			require.True(t, errors.Is(err, holes.ErrOutOfMemory))
			require.Equal(t, freeBefore, list.SumFreeSize())
			continue
		}

		require.True(t, memutils.IsAligned(addr, l.Align))
		require.True(t, list.Contains(addr, l.Size))
		for _, other := range live {
			overlaps := addr < other.addr+uintptr(other.layout.Size) && other.addr < addr+uintptr(l.Size)
			require.False(t, overlaps, "allocation %#x+%d overlaps %#x+%d", addr, l.Size, other.addr, other.layout.Size)
		}
		require.Equal(t, freeBefore-l.Size, list.SumFreeSize())
		require.NoError(t, list.Validate())

		// Allocating and immediately freeing must conserve free bytes
		if rnd.Intn(4) == 0 {
			list.Free(addr, l)
			require.Equal(t, freeBefore, list.SumFreeSize())
			require.NoError(t, list.Validate())
			continue
		}

		live = append(live, liveAllocation{addr: addr, layout: l})
	}

	for _, alloc := range live {
		list.Free(alloc.addr, alloc.layout)
	}
	require.Equal(t, []holes.HoleInfo{{Addr: testBase, Size: 64 * 1024}}, holeSnapshot(t, list))
	require.NoError(t, list.Validate())
}

func TestHoleListStatistics(t *testing.T) {
	list, _ := newTestList(t, testBase, testSize)

	a, err := list.AllocateFirstFit(layout(64, 8))
	require.NoError(t, err)
	_, err = list.AllocateFirstFit(layout(128, 8))
	require.NoError(t, err)
	list.Free(a, layout(64, 8))

	var stats memutils.DetailedStatistics
	stats.Clear()
	list.AddDetailedStatistics(&stats)

	require.Equal(t, memutils.DetailedStatistics{
		Statistics: memutils.Statistics{
			RegionCount:     1,
			AllocationCount: 1,
			RegionBytes:     testSize,
			AllocationBytes: 128,
		},
		HoleCount:         2,
		AllocationSizeMin: math.MaxInt,
		AllocationSizeMax: 0,
		HoleSizeMin:       64,
		HoleSizeMax:       testSize - 192,
	}, stats)
}

func TestHoleListBlockJsonData(t *testing.T) {
	list, _ := newTestList(t, testBase, testSize)

	_, err := list.AllocateFirstFit(layout(64, 8))
	require.NoError(t, err)

	writer := jwriter.NewWriter()
	obj := writer.Object()
	list.BlockJsonData(&obj)
	obj.End()
	require.NoError(t, writer.Error())

	require.JSONEq(t, `{
		"BaseAddress": 1048576,
		"TotalBytes": 16384,
		"UnusedBytes": 16320,
		"Allocations": 1,
		"UnusedRanges": 1
	}`, string(writer.Bytes()))
}
