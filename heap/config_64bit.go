//go:build amd64 || arm64 || loong64 || mips64 || mips64le || ppc64 || ppc64le || riscv64 || s390x || wasm

package heap

// DefaultHeapStart is the address the heap region is placed at when CreateOptions.HeapStart
// is not set
const DefaultHeapStart uintptr = 0x600000000
