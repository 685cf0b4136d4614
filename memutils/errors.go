package memutils

import "github.com/pkg/errors"

// PowerOfTwoError is wrapped by CheckPow2 errors and by the panics raised from AlignUp and
// AlignDown when an alignment is not a power of two
var PowerOfTwoError error = errors.New("memutils: alignment must be a power of two")
