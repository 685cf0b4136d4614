// Package provision supplies heap.Provisioner implementations for hosted processes: an
// anonymous memory mapping on unix systems, and plain Go memory everywhere else.
package provision

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/holeheap/heap"
)

var (
	// ErrInvalidRegion is returned when a region is provisioned with unusable parameters
	ErrInvalidRegion = errors.New("provision: invalid region")
	// ErrForeignRegion is returned when MapRegion receives a region this provisioner did not create
	ErrForeignRegion = errors.New("provision: region was not provisioned by this provisioner")
	// ErrAlreadyMapped is returned when MapRegion is called twice for the same region
	ErrAlreadyMapped = errors.New("provision: region is already mapped")
)

type region struct {
	base       uintptr
	size       int
	writable   bool
	executable bool
	data       []byte
}

var _ heap.Region = &region{}

func (r *region) Base() uintptr { return r.base }
func (r *region) Size() int     { return r.size }
func (r *region) Bytes() []byte { return r.data }

func newRegion(base uintptr, size int, writable, executable bool) (*region, error) {
	if base == 0 {
		return nil, errors.Wrap(ErrInvalidRegion, "a region cannot start at address 0")
	}
	if size <= 0 {
		return nil, errors.Wrapf(ErrInvalidRegion, "region size %d must be positive", size)
	}
	if base+uintptr(size) < base {
		return nil, errors.Wrapf(ErrInvalidRegion, "region of %d bytes at %#x wraps the address space", size, base)
	}

	return &region{
		base:       base,
		size:       size,
		writable:   writable,
		executable: executable,
	}, nil
}

func ownRegion(r heap.Region) (*region, error) {
	own, ok := r.(*region)
	if !ok || own == nil {
		return nil, ErrForeignRegion
	}
	if own.data != nil {
		return nil, errors.Wrapf(ErrAlreadyMapped, "region at %#x", own.base)
	}

	return own, nil
}
