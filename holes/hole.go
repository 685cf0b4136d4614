package holes

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

const (
	wordSize = int(unsafe.Sizeof(uintptr(0)))

	// MinSize is the smallest number of bytes that can hold a hole header: one word for the size
	// and one for the address of the next hole. No hole may be smaller, and no allocation is
	// handed out with an effective size below it.
	MinSize = 2 * wordSize
	// Align is the alignment of a hole header. Effective allocation sizes are rounded up to it so
	// that whatever is left over after a split can always hold a header of its own.
	Align = uint(wordSize)

	// noHole is the next address stored in the last hole of the list. Address 0 is never part of
	// a heap region.
	noHole uintptr = 0
)

// hole is the decoded form of the header written at the start of every free region. The
// header lives in the free bytes it describes; there is no other bookkeeping storage.
type hole struct {
	size int
	next uintptr
}

// HoleInfo describes a free region by address and size
type HoleInfo struct {
	Addr uintptr
	Size int
}

func (h HoleInfo) End() uintptr {
	return h.Addr + uintptr(h.Size)
}

func (h HoleInfo) String() string {
	return fmt.Sprintf("[%#x, %#x)", h.Addr, h.End())
}

// arenaOffset translates addr into an offset in the arena and verifies that length bytes
// starting there are inside it
func (l *HoleList) arenaOffset(addr uintptr, length int) int {
	if addr < l.base || addr-l.base > uintptr(len(l.arena)) || int(addr-l.base)+length > len(l.arena) {
		panic(fmt.Sprintf("hole header access at %#x is outside of the heap region [%#x, %#x)",
			addr, l.base, l.base+uintptr(len(l.arena))))
	}

	return int(addr - l.base)
}

// readHole decodes the hole header stored at addr
func (l *HoleList) readHole(addr uintptr) hole {
	offset := l.arenaOffset(addr, MinSize)
	data := l.arena[offset : offset+MinSize]

	return hole{
		size: int(getWord(data[:wordSize])),
		next: uintptr(getWord(data[wordSize:])),
	}
}

// writeHole encodes a hole header into the memory at addr
func (l *HoleList) writeHole(addr uintptr, h hole) {
	offset := l.arenaOffset(addr, MinSize)
	data := l.arena[offset : offset+MinSize]

	putWord(data[:wordSize], uint64(h.size))
	putWord(data[wordSize:], uint64(h.next))
}

func getWord(data []byte) uint64 {
	if wordSize == 8 {
		return binary.LittleEndian.Uint64(data)
	}

	return uint64(binary.LittleEndian.Uint32(data))
}

func putWord(data []byte, value uint64) {
	if wordSize == 8 {
		binary.LittleEndian.PutUint64(data, value)
		return
	}

	binary.LittleEndian.PutUint32(data, uint32(value))
}
