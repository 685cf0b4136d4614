//go:build debug_holeheap

package memutils

// DebugValidate panics with the error from validatable.Validate, if there is one
func DebugValidate(validatable Validatable) {
	err := validatable.Validate()
	if err != nil {
		panic(err)
	}
}

// DebugCheckPow2 panics unless value is zero or a power of two
func DebugCheckPow2[T Number](value T, name string) {
	err := CheckPow2[T](value, name)
	if err != nil {
		panic(err)
	}
}
