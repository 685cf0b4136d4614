package provision

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/holeheap/heap"
)

// SliceProvisioner backs heap regions with ordinary Go memory. The memory is always readable
// and writable; executable regions are refused.
type SliceProvisioner struct{}

var _ heap.Provisioner = SliceProvisioner{}

func (SliceProvisioner) ProvisionRegion(base uintptr, size int, writable, executable bool) (heap.Region, error) {
	if executable {
		return nil, errors.Wrap(ErrInvalidRegion, "go memory cannot be made executable")
	}

	return newRegion(base, size, writable, executable)
}

func (SliceProvisioner) MapRegion(r heap.Region) error {
	own, err := ownRegion(r)
	if err != nil {
		return err
	}

	own.data = make([]byte, own.size)
	return nil
}
