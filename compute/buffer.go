package compute

import (
	"runtime"
	"slices"
	"unsafe"

	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"

	"github.com/yuckify/gocl/cl"
	"github.com/yuckify/gocl/dtypes"
)

// BufferState describes the device side of a Buffer.
type BufferState int

const (
	// BufferUnallocated means no device buffer exists yet.
	BufferUnallocated BufferState = iota
	// BufferAllocated means the device buffer is at least as large as the
	// host mirror and transfers in both directions are valid.
	BufferAllocated
	// BufferStale means the host mirror grew past the device buffer. The
	// next CopyToDevice reallocates; CopyToHost is invalid until then.
	BufferStale
)

// String implements fmt.Stringer.
func (s BufferState) String() string {
	switch s {
	case BufferUnallocated:
		return "Unallocated"
	case BufferAllocated:
		return "Allocated"
	case BufferStale:
		return "Stale"
	}
	return "InvalidBufferState"
}

// memWrapper owns the device allocation, separate from the Buffer so a
// garbage-collected Buffer can still release it.
type memWrapper struct {
	device *Device
	mem    cl.Mem
}

func (w *memWrapper) release() error {
	if w == nil || w.mem == 0 {
		return nil
	}
	err := w.device.driver.ReleaseMemObject(w.mem)
	w.mem = 0
	buffersAlive.Add(-1)
	return err
}

// Buffer is a typed array mirrored between host and device. The host mirror
// is always present and is read and written directly through Data, At and
// Set; the device buffer is allocated lazily by the first CopyToDevice and
// reallocated only when the mirror has grown past it. Shrinking the mirror
// never shrinks the device buffer.
//
// Transfers are asynchronous: after CopyToDevice or CopyToHost the data is
// in flight until Device.Wait returns, and the host mirror must not be
// resized while a transfer is pending.
type Buffer[T dtypes.Supported] struct {
	device  *Device
	host    []T
	wrapper *memWrapper
}

// NewBuffer creates a buffer with a zero-initialized host mirror of n
// elements and no device allocation.
func NewBuffer[T dtypes.Supported](device *Device, n int) *Buffer[T] {
	if n < 0 {
		exceptions.Panicf("compute.NewBuffer: negative length %d", n)
	}
	b := &Buffer[T]{device: device, host: make([]T, n), wrapper: &memWrapper{device: device}}
	runtime.AddCleanup(b, func(w *memWrapper) {
		if err := w.release(); err != nil {
			klog.Errorf("compute.Buffer device release failed: %v", err)
		}
	}, b.wrapper)
	return b
}

// NewBufferFromSlice creates a buffer whose host mirror is a copy of values.
func NewBufferFromSlice[T dtypes.Supported](device *Device, values []T) *Buffer[T] {
	b := NewBuffer[T](device, 0)
	b.host = slices.Clone(values)
	return b
}

func (b *Buffer[T]) elemBytes() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// hostRaw views the host mirror as bytes.
func (b *Buffer[T]) hostRaw() []byte {
	if len(b.host) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&b.host[0])), len(b.host)*b.elemBytes())
}

// Len returns the number of elements of the host mirror.
func (b *Buffer[T]) Len() int { return len(b.host) }

// Cap returns the capacity of the host mirror in elements.
func (b *Buffer[T]) Cap() int { return cap(b.host) }

// SizeBytes returns the host mirror's size in bytes.
func (b *Buffer[T]) SizeBytes() int { return len(b.host) * b.elemBytes() }

// DType returns the element type of the buffer.
func (b *Buffer[T]) DType() dtypes.DType { return dtypes.FromGenericsType[T]() }

// Device returns the device the buffer belongs to.
func (b *Buffer[T]) Device() *Device { return b.device }

// Data returns the host mirror. The slice is the buffer's own storage:
// writing into it is how values get staged for CopyToDevice, but it is only
// valid until the next Resize or Append.
func (b *Buffer[T]) Data() []T { return b.host }

// At returns the host mirror element at index i.
func (b *Buffer[T]) At(i int) T { return b.host[i] }

// Set stores v into the host mirror at index i.
func (b *Buffer[T]) Set(i int, v T) { b.host[i] = v }

// Resize grows or shrinks the host mirror to n elements, preserving the
// leading values. Growth zero-fills; the device buffer is untouched either
// way, so growing leaves the buffer Stale until the next CopyToDevice.
func (b *Buffer[T]) Resize(n int) {
	if n < 0 {
		exceptions.Panicf("compute: Buffer.Resize to negative length %d", n)
	}
	if n <= len(b.host) {
		b.host = b.host[:n]
		return
	}
	b.host = append(b.host, make([]T, n-len(b.host))...)
}

// Append appends values to the host mirror.
func (b *Buffer[T]) Append(values ...T) {
	b.host = append(b.host, values...)
}

// SetAll replaces the host mirror with n copies of v. Like Resize, growing
// past the device buffer leaves the buffer Stale.
func (b *Buffer[T]) SetAll(n int, v T) {
	if n < 0 {
		exceptions.Panicf("compute: Buffer.SetAll to negative length %d", n)
	}
	if n > cap(b.host) {
		b.host = make([]T, n)
	} else {
		b.host = b.host[:n]
	}
	for i := range b.host {
		b.host[i] = v
	}
}

// State reports the device side of the buffer: BufferUnallocated before the
// first CopyToDevice, BufferStale when the mirror outgrew the device buffer,
// BufferAllocated otherwise.
func (b *Buffer[T]) State() BufferState {
	if b.wrapper.mem == 0 {
		return BufferUnallocated
	}
	if b.DeviceBufferBytes() < b.SizeBytes() {
		return BufferStale
	}
	return BufferAllocated
}

// DeviceBufferBytes returns the size of the device allocation as the driver
// reports it, 0 when none exists. It can exceed SizeBytes after a shrink.
func (b *Buffer[T]) DeviceBufferBytes() int {
	if b.wrapper.mem == 0 {
		return 0
	}
	size, err := b.device.driver.GetMemObjectSize(b.wrapper.mem)
	if err != nil {
		exceptions.Panicf("compute: failed to query device buffer size: %+v", err)
	}
	return size
}

// RefCount returns the driver's reference count of the device allocation, 0
// when none exists.
func (b *Buffer[T]) RefCount() uint32 {
	if b.wrapper.mem == 0 {
		return 0
	}
	refs, err := b.device.driver.GetMemObjectRefCount(b.wrapper.mem)
	if err != nil {
		exceptions.Panicf("compute: failed to query device buffer reference count: %+v", err)
	}
	return refs
}

// CopyToDevice enqueues a write of the full host mirror to the device
// buffer, allocating or growing the device buffer first if needed. The
// transfer completes at the next Device.Wait.
func (b *Buffer[T]) CopyToDevice() {
	hostBytes := b.SizeBytes()
	if hostBytes == 0 {
		exceptions.Panicf("compute: CopyToDevice on a buffer with an empty host mirror")
	}
	if b.wrapper.mem == 0 || b.DeviceBufferBytes() < hostBytes {
		if err := b.wrapper.release(); err != nil {
			klog.Errorf("compute: failed to release outgrown device buffer: %v", err)
		}
		mem, err := b.device.driver.CreateBuffer(b.device.ctx, hostBytes)
		if err != nil {
			exceptions.Panicf("compute: failed to allocate %d device bytes on %q: %+v",
				hostBytes, b.device.name, err)
		}
		b.wrapper.mem = mem
		buffersAlive.Add(1)
	}
	err := b.device.driver.EnqueueWriteBuffer(b.device.queue, b.wrapper.mem, false, 0, b.hostRaw())
	if err != nil {
		exceptions.Panicf("compute: failed to enqueue write of %d bytes: %+v", hostBytes, err)
	}
}

// CopyToHost enqueues a read of SizeBytes from the device buffer into the
// host mirror. The buffer must be Allocated: reading an Unallocated buffer,
// or one whose mirror grew past the device allocation, is fatal. The data
// arrives by the next Device.Wait.
func (b *Buffer[T]) CopyToHost() {
	switch b.State() {
	case BufferUnallocated:
		exceptions.Panicf("compute: CopyToHost on a buffer with no device allocation; call CopyToDevice first")
	case BufferStale:
		exceptions.Panicf("compute: CopyToHost with a stale device buffer: device holds %d bytes, host mirror needs %d; call CopyToDevice first",
			b.DeviceBufferBytes(), b.SizeBytes())
	}
	err := b.device.driver.EnqueueReadBuffer(b.device.queue, b.wrapper.mem, false, 0, b.hostRaw())
	if err != nil {
		exceptions.Panicf("compute: failed to enqueue read of %d bytes: %+v", b.SizeBytes(), err)
	}
}

// CopyToDeviceBuffer enqueues a device-to-device copy of count elements,
// reading this buffer at srcOffset and writing dst at dstOffset. Both
// device buffers must already be allocated and on the same device, and both
// element ranges must lie within the respective device allocations.
func (b *Buffer[T]) CopyToDeviceBuffer(dst *Buffer[T], dstOffset, srcOffset, count int) {
	if count <= 0 {
		exceptions.Panicf("compute: CopyToDeviceBuffer count must be positive, got %d", count)
	}
	if b.device != dst.device {
		exceptions.Panicf("compute: CopyToDeviceBuffer across devices (%q to %q)", b.device.name, dst.device.name)
	}
	if b.wrapper.mem == 0 {
		exceptions.Panicf("compute: CopyToDeviceBuffer source has no device allocation")
	}
	if dst.wrapper.mem == 0 {
		exceptions.Panicf("compute: CopyToDeviceBuffer destination has no device allocation")
	}
	es := b.elemBytes()
	srcCap := b.DeviceBufferBytes() / es
	dstCap := dst.DeviceBufferBytes() / es
	if srcOffset < 0 || srcOffset+count > srcCap {
		exceptions.Panicf("compute: CopyToDeviceBuffer source range [%d, %d) outside device buffer of %d elements",
			srcOffset, srcOffset+count, srcCap)
	}
	if dstOffset < 0 || dstOffset+count > dstCap {
		exceptions.Panicf("compute: CopyToDeviceBuffer destination range [%d, %d) outside device buffer of %d elements",
			dstOffset, dstOffset+count, dstCap)
	}
	err := b.device.driver.EnqueueCopyBuffer(b.device.queue, b.wrapper.mem, dst.wrapper.mem,
		srcOffset*es, dstOffset*es, count*es)
	if err != nil {
		exceptions.Panicf("compute: failed to enqueue device copy of %d elements: %+v", count, err)
	}
}

// FillDeviceBuffer enqueues a fill of count elements of the device buffer
// with value, starting at element offset. The device buffer must already be
// allocated and the range must lie within it; the host mirror is untouched.
func (b *Buffer[T]) FillDeviceBuffer(value T, count, offset int) {
	if count <= 0 {
		exceptions.Panicf("compute: FillDeviceBuffer count must be positive, got %d", count)
	}
	if b.wrapper.mem == 0 {
		exceptions.Panicf("compute: FillDeviceBuffer on a buffer with no device allocation")
	}
	es := b.elemBytes()
	capElems := b.DeviceBufferBytes() / es
	if offset < 0 || offset+count > capElems {
		exceptions.Panicf("compute: FillDeviceBuffer range [%d, %d) outside device buffer of %d elements",
			offset, offset+count, capElems)
	}
	pattern := unsafe.Slice((*byte)(unsafe.Pointer(&value)), es)
	err := b.device.driver.EnqueueFillBuffer(b.device.queue, b.wrapper.mem, pattern, offset*es, count*es)
	runtime.KeepAlive(&value)
	if err != nil {
		exceptions.Panicf("compute: failed to enqueue fill of %d elements: %+v", count, err)
	}
}

// Free releases the device allocation, if any. The host mirror stays usable
// and a later CopyToDevice allocates anew; Free is idempotent and also runs
// when a still-allocated Buffer is garbage collected.
func (b *Buffer[T]) Free() error {
	defer runtime.KeepAlive(b)
	return b.wrapper.release()
}

// Arg returns the buffer's device allocation as a kernel argument. The
// buffer must have been through CopyToDevice at least once.
func (b *Buffer[T]) Arg() KernelArg {
	if b.wrapper.mem == 0 {
		exceptions.Panicf("compute: buffer bound as kernel argument before CopyToDevice allocated it")
	}
	return memArg(b.wrapper.mem)
}
