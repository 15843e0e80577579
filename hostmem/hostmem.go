// Package hostmem provides aligned host memory blocks for sharing with the
// compute driver. Allocations are plain Go slices over-allocated to carry the
// requested alignment, so no special free path is required beyond dropping the
// references.
package hostmem

import (
	"fmt"
	"unsafe"
)

// DefaultAlignment is the alignment of blocks handed to the compute driver.
const DefaultAlignment = 128

// Block is an aligned, zero-initialized host allocation.
type Block struct {
	raw  []byte
	data []byte
}

// Alloc returns a zeroed block of size bytes aligned to DefaultAlignment.
func Alloc(size int) *Block {
	return AllocAligned(size, DefaultAlignment)
}

// AllocAligned assumes the runtime already aligns allocations to 8 bytes, and
// that alignment is a multiple of 8.
func AllocAligned(size, alignment int) *Block {
	if alignment < 8 || alignment%8 != 0 {
		panic(fmt.Sprintf("hostmem: alignment must be a multiple of 8, got %d", alignment))
	}
	if size < 0 {
		panic(fmt.Sprintf("hostmem: negative allocation size %d", size))
	}
	raw := make([]byte, size+alignment)
	off := 0
	if rem := uintptr(unsafe.Pointer(&raw[0])) % uintptr(alignment); rem != 0 {
		off = alignment - int(rem)
	}
	return &Block{raw: raw, data: raw[off : off+size : off+size]}
}

// Bytes returns the aligned view of the block, nil after Free.
func (b *Block) Bytes() []byte {
	return b.data
}

// Size returns the usable size in bytes.
func (b *Block) Size() int {
	return len(b.data)
}

// Ptr returns the address of the aligned view, nil for empty or freed blocks.
func (b *Block) Ptr() unsafe.Pointer {
	if len(b.data) == 0 {
		return nil
	}
	return unsafe.Pointer(&b.data[0])
}

// Free releases the backing storage to the garbage collector. The block must
// not be used afterwards. Free is idempotent.
func (b *Block) Free() {
	b.raw = nil
	b.data = nil
}
