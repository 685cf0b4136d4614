package memutils

import "math"

// Statistics holds summed totals for one or more heap regions
type Statistics struct {
	// RegionCount is the number of mapped heap regions included in these totals
	RegionCount int
	// AllocationCount is the number of live allocations
	AllocationCount int
	// RegionBytes is the total size of all regions in bytes
	RegionBytes int
	// AllocationBytes is the number of bytes handed out to live allocations, including any
	// rounding to the minimum hole size
	AllocationBytes int
}

func (s *Statistics) Clear() {
	s.RegionCount = 0
	s.AllocationCount = 0
	s.RegionBytes = 0
	s.AllocationBytes = 0
}

// FreeBytes is the number of region bytes not handed out to allocations
func (s *Statistics) FreeBytes() int {
	return s.RegionBytes - s.AllocationBytes
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.RegionCount += other.RegionCount
	s.AllocationCount += other.AllocationCount
	s.RegionBytes += other.RegionBytes
	s.AllocationBytes += other.AllocationBytes
}

// DetailedStatistics extends Statistics with per-hole and per-allocation size ranges. Allocation
// size ranges are only populated when individual allocations are being tracked.
type DetailedStatistics struct {
	Statistics
	HoleCount         int
	AllocationSizeMin int
	AllocationSizeMax int
	HoleSizeMin       int
	HoleSizeMax       int
}

// Clear resets the statistics. It must be called before the first Add* call, since the min
// fields start at math.MaxInt.
func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.HoleCount = 0
	s.AllocationSizeMin = math.MaxInt
	s.AllocationSizeMax = 0
	s.HoleSizeMin = math.MaxInt
	s.HoleSizeMax = 0
}

func (s *DetailedStatistics) AddHole(size int) {
	s.HoleCount++

	if size < s.HoleSizeMin {
		s.HoleSizeMin = size
	}

	if size > s.HoleSizeMax {
		s.HoleSizeMax = size
	}
}

// AddAllocationSize folds a single allocation's size into the min/max range without touching
// the totals in Statistics
func (s *DetailedStatistics) AddAllocationSize(size int) {
	if size < s.AllocationSizeMin {
		s.AllocationSizeMin = size
	}

	if size > s.AllocationSizeMax {
		s.AllocationSizeMax = size
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.HoleCount += other.HoleCount

	if other.HoleSizeMin < s.HoleSizeMin {
		s.HoleSizeMin = other.HoleSizeMin
	}

	if other.HoleSizeMax > s.HoleSizeMax {
		s.HoleSizeMax = other.HoleSizeMax
	}

	if other.AllocationSizeMin < s.AllocationSizeMin {
		s.AllocationSizeMin = other.AllocationSizeMin
	}

	if other.AllocationSizeMax > s.AllocationSizeMax {
		s.AllocationSizeMax = other.AllocationSizeMax
	}
}
