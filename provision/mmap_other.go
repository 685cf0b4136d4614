//go:build !unix

package provision

import "github.com/vkngwrapper/holeheap/heap"

// MmapProvisioner falls back to Go memory on platforms without mmap
type MmapProvisioner struct {
	SliceProvisioner
}

var _ heap.Provisioner = MmapProvisioner{}
