//go:build unix

package provision

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/holeheap/heap"
	"golang.org/x/sys/unix"
)

// MmapProvisioner backs heap regions with anonymous private memory mappings. Region sizes are
// rounded up to whole pages when mapped, but the region reports the size it was provisioned
// with. Mappings are never released.
type MmapProvisioner struct{}

var _ heap.Provisioner = MmapProvisioner{}

func (MmapProvisioner) ProvisionRegion(base uintptr, size int, writable, executable bool) (heap.Region, error) {
	return newRegion(base, size, writable, executable)
}

func (MmapProvisioner) MapRegion(r heap.Region) error {
	own, err := ownRegion(r)
	if err != nil {
		return err
	}

	prot := unix.PROT_READ
	if own.writable {
		prot |= unix.PROT_WRITE
	}
	if own.executable {
		prot |= unix.PROT_EXEC
	}

	pageSize := unix.Getpagesize()
	mappedSize := (own.size + pageSize - 1) / pageSize * pageSize

	data, err := unix.Mmap(-1, 0, mappedSize, prot, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return errors.Wrapf(err, "mmap of %d bytes failed", mappedSize)
	}

	own.data = data[:own.size:own.size]
	return nil
}
