package memutils

import (
	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint | ~uintptr
}

// CheckPow2 returns an error if number is not a power of two. 0 passes.
func CheckPow2[T Number](number T, name string) error {
	if number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

func AlignDown[T Number](value T, alignment uint) T {
	mustPow2(alignment)

	if alignment == 0 {
		return value
	}

	// alignment   = 0b00001000
	// ^(align-1)  = 0b11111000
	return value & ^T(alignment-1)
}

// AlignUp panics if alignment is not a power of two. An alignment of 0 leaves value unchanged.
func AlignUp[T Number](value T, alignment uint) T {
	mustPow2(alignment)

	if alignment == 0 {
		return value
	}

	return AlignDown(value+T(alignment)-1, alignment)
}

func IsAligned[T Number](value T, alignment uint) bool {
	return AlignUp(value, alignment) == value
}

func mustPow2(alignment uint) {
	err := CheckPow2(alignment, "alignment")
	if err != nil {
		panic(err)
	}
}
