//go:build !debug_holeheap

package memutils

// DebugValidate is a no-op; build with -tags debug_holeheap to check lists on every mutation
func DebugValidate(validatable Validatable) {
}

func DebugCheckPow2[T Number](value T, name string) {
}
