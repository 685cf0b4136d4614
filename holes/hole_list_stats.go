package holes

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/holeheap/memutils"
	"golang.org/x/exp/slog"
)

var _ memutils.Validatable = &HoleList{}

// AllocationCount returns the number of live allocations made from this list
func (l *HoleList) AllocationCount() int { return l.allocCount }

// SumFreeSize returns the number of free bytes in the region
func (l *HoleList) SumFreeSize() int { return l.freeBytes }

// IsEmpty returns true if there are no live allocations in the region
func (l *HoleList) IsEmpty() bool { return l.allocCount == 0 }

// FreeRegionsCount returns the number of holes currently in the list
func (l *HoleList) FreeRegionsCount() int {
	var count int
	_ = l.VisitHoles(func(HoleInfo) error {
		count++
		return nil
	})

	return count
}

// VisitHoles calls visit once for each hole, in ascending address order. If visit returns an
// error, iteration stops and the error is returned.
func (l *HoleList) VisitHoles(visit func(h HoleInfo) error) error {
	for addr := l.first; addr != noHole; addr = l.readHole(addr).next {
		err := visit(l.info(addr))
		if err != nil {
			return err
		}
	}

	return nil
}

// Validate performs internal consistency checks on the list. It walks every hole, so it's
// expensive on fragmented heaps.
func (l *HoleList) Validate() error {
	var freeBytes, count int
	maxHoles := len(l.arena) / MinSize
	previousEnd := noHole

	for addr := l.first; addr != noHole; {
		if count >= maxHoles {
			return errors.Errorf("the hole list holds more than the %d holes that fit in the region, it probably contains a cycle", maxHoles)
		}
		count++

		if !l.Contains(addr, MinSize) {
			return errors.Errorf("hole at %#x lies outside of the heap region %s", addr, HoleInfo{Addr: l.base, Size: len(l.arena)})
		}

		h := l.info(addr)
		if h.Size < MinSize {
			return errors.Errorf("hole %s is smaller than the minimum hole size %d", h, MinSize)
		}
		if !memutils.IsAligned(h.Addr, Align) {
			return errors.Errorf("hole %s is not aligned to %d bytes", h, Align)
		}
		if !l.Contains(h.Addr, h.Size) {
			return errors.Errorf("hole %s extends past the end of the heap region", h)
		}
		if previousEnd != noHole && h.Addr < previousEnd {
			return errors.Errorf("hole %s is out of order or overlaps the previous hole ending at %#x", h, previousEnd)
		}
		if previousEnd != noHole && h.Addr == previousEnd {
			return errors.Errorf("hole %s is adjacent to the previous hole but was not merged", h)
		}

		freeBytes += h.Size
		previousEnd = h.End()
		addr = l.readHole(addr).next
	}

	if freeBytes != l.freeBytes {
		return errors.Errorf("the free size of the list is %d, but the holes only added up to %d", l.freeBytes, freeBytes)
	}

	if l.allocCount < 0 {
		return errors.Errorf("the allocation count of the list is negative: %d", l.allocCount)
	}

	return nil
}

// AddStatistics sums this region's totals into stats
func (l *HoleList) AddStatistics(stats *memutils.Statistics) {
	stats.RegionCount++
	stats.RegionBytes += len(l.arena)
	stats.AllocationCount += l.allocCount
	stats.AllocationBytes += len(l.arena) - l.freeBytes
}

// AddDetailedStatistics sums this region's totals and hole sizes into stats. The list does not
// know the sizes of individual allocations, so the allocation size range is left alone.
func (l *HoleList) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	l.AddStatistics(&stats.Statistics)

	_ = l.VisitHoles(func(h HoleInfo) error {
		stats.AddHole(h.Size)
		return nil
	})
}

// BlockJsonData populates a json object with totals for this region
func (l *HoleList) BlockJsonData(json *jwriter.ObjectState) {
	json.Name("BaseAddress").Int(int(l.base))
	json.Name("TotalBytes").Int(len(l.arena))
	json.Name("UnusedBytes").Int(l.freeBytes)
	json.Name("Allocations").Int(l.allocCount)
	json.Name("UnusedRanges").Int(l.FreeRegionsCount())
}

// DebugLogAllHoles writes one debug line per hole to logger
func (l *HoleList) DebugLogAllHoles(logger *slog.Logger) {
	_ = l.VisitHoles(func(h HoleInfo) error {
		logger.LogAttrs(context.Background(), slog.LevelDebug, "hole",
			slog.Uint64("addr", uint64(h.Addr)),
			slog.Int("size", h.Size),
		)
		return nil
	})
}
