package memutils

// Validatable is anything that can check its own bookkeeping. DebugValidate runs the check
// when the debug_holeheap build tag is present.
type Validatable interface {
	Validate() error
}
