package holes

import "github.com/cockroachdb/errors"

var (
	// ErrOutOfMemory is returned when no hole in the list can satisfy a layout. The list is
	// unchanged when it is returned.
	ErrOutOfMemory = errors.New("holes: no hole large enough for the requested layout")

	// ErrInvalidDeallocation is the panic value (wrapped) raised when a freed region overlaps
	// free memory or lies outside the heap, which usually means a double free.
	ErrInvalidDeallocation = errors.New("holes: invalid deallocation")
)
