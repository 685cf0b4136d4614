package memutils_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/holeheap/memutils"
)

func TestDetailedStatisticsAccumulate(t *testing.T) {
	var stats memutils.DetailedStatistics
	stats.Clear()

	require.Equal(t, math.MaxInt, stats.HoleSizeMin)
	require.Equal(t, math.MaxInt, stats.AllocationSizeMin)

	stats.AddHole(64)
	stats.AddHole(16)
	stats.AddAllocationSize(32)

	var other memutils.DetailedStatistics
	other.Clear()
	other.RegionCount = 1
	other.RegionBytes = 1024
	other.AllocationCount = 2
	other.AllocationBytes = 128
	other.AddHole(256)
	other.AddAllocationSize(96)

	stats.AddDetailedStatistics(&other)

	require.Equal(t, memutils.DetailedStatistics{
		Statistics: memutils.Statistics{
			RegionCount:     1,
			AllocationCount: 2,
			RegionBytes:     1024,
			AllocationBytes: 128,
		},
		HoleCount:         3,
		AllocationSizeMin: 32,
		AllocationSizeMax: 96,
		HoleSizeMin:       16,
		HoleSizeMax:       256,
	}, stats)
	require.Equal(t, 896, stats.FreeBytes())
}
