package heap

//go:generate mockgen -source provisioner.go -destination ./mocks/provisioner.go

// Region is a range of host memory handed out by a Provisioner. Base is the address the heap
// uses for the first byte of the region; Bytes is the backing memory and is only valid once
// the region has been mapped.
type Region interface {
	Base() uintptr
	Size() int
	Bytes() []byte
}

// Provisioner is the host facility that supplies the heap's backing memory. The Allocator
// calls ProvisionRegion and then MapRegion exactly once, during Init, and never gives the
// memory back.
type Provisioner interface {
	// ProvisionRegion reserves size bytes of memory that will be addressed starting at base
	ProvisionRegion(base uintptr, size int, writable, executable bool) (Region, error)
	// MapRegion makes a region returned by ProvisionRegion accessible
	MapRegion(region Region) error
}
