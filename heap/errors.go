package heap

import "github.com/cockroachdb/errors"

// ErrNotInitialized is the panic value (wrapped) raised when an Allocator is used before Init
var ErrNotInitialized = errors.New("heap: allocator used before initialization")
