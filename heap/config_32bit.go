//go:build 386 || arm || mips || mipsle

package heap

// DefaultHeapStart is the address the heap region is placed at when CreateOptions.HeapStart
// is not set
const DefaultHeapStart uintptr = 0x60000000
