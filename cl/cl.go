// Package cl defines the compute driver capability consumed by the compute
// layer: opaque handle types, the Driver interface with platform/device
// enumeration, context/queue lifecycle, buffer and kernel objects and the
// asynchronous enqueue primitives, plus a registry of available drivers.
//
// Implementations live in the subpackages: opencl binds a system OpenCL
// library at runtime, cpu is a software driver executing registered Go
// kernels. Handles are only meaningful to the driver that issued them.
package cl

// Handle types. All are opaque driver-issued values; the zero value is never
// a valid handle.
type (
	// PlatformID identifies a vendor's driver installation.
	PlatformID uintptr

	// DeviceID identifies one compute device of a platform.
	DeviceID uintptr

	// Context associates a device with the memory and program objects
	// created against it.
	Context uintptr

	// CommandQueue is an ordered asynchronous stream of operations issued
	// to one device.
	CommandQueue uintptr

	// Mem is a device memory object.
	Mem uintptr

	// Program is a compiled (or to-be-compiled) kernel module.
	Program uintptr

	// Kernel is a callable entry point of a built Program.
	Kernel uintptr
)

// DeviceType filters device enumeration.
type DeviceType uint64

const (
	DeviceTypeDefault     DeviceType = 1 << 0
	DeviceTypeCPU         DeviceType = 1 << 1
	DeviceTypeGPU         DeviceType = 1 << 2
	DeviceTypeAccelerator DeviceType = 1 << 3
	DeviceTypeAll         DeviceType = 0xFFFFFFFF
)

// PlatformInfo selects a platform info query parameter.
type PlatformInfo uint32

const (
	PlatformProfile PlatformInfo = 0x0900
	PlatformVersion PlatformInfo = 0x0901
	PlatformName    PlatformInfo = 0x0902
	PlatformVendor  PlatformInfo = 0x0903
)

// DeviceInfo selects a device info query parameter.
type DeviceInfo uint32

const (
	DeviceInfoMaxComputeUnits   DeviceInfo = 0x1002
	DeviceInfoMaxWorkItemSizes  DeviceInfo = 0x1005
	DeviceInfoMaxWorkGroupSize  DeviceInfo = 0x1004
	DeviceInfoMaxClockFrequency DeviceInfo = 0x100C
	DeviceInfoGlobalMemSize     DeviceInfo = 0x101F
	DeviceInfoLocalMemSize      DeviceInfo = 0x1023
	DeviceInfoName              DeviceInfo = 0x102B
	DeviceInfoVendor            DeviceInfo = 0x102C
	DeviceInfoDriverVersion     DeviceInfo = 0x102D
	DeviceInfoVersion           DeviceInfo = 0x102F
)

// Notify is invoked by the driver on asynchronous context-level errors. The
// driver routes each callback to the Notify registered with the context the
// error belongs to; implementations carry the correlation internally, so the
// function needs no further user data. Notify must not block and must not
// panic; it may be called from a driver-owned thread.
type Notify func(errInfo string, privateInfo []byte)

// GLInterop carries the windowing-system handles needed to create a compute
// context sharing objects with a GL context. Acquisition of the handles is the
// caller's concern. Drivers that cannot attach them fail context creation.
type GLInterop struct {
	// GLContext is the current GL rendering context handle.
	GLContext uintptr
	// Display is the GLX display (or equivalent) the context belongs to.
	Display uintptr
}

// Driver is the opaque compute capability. Every call either succeeds or
// returns an error carrying the driver status; no call panics. Enqueue
// operations are asynchronous unless stated otherwise and are ordered by
// issue order on their queue (in-order queues only). Completion of
// everything enqueued is observable via Flush followed by Finish.
type Driver interface {
	// Name returns the registry name of the driver, e.g. "opencl" or "cpu".
	Name() string

	GetPlatformIDs() ([]PlatformID, error)
	GetPlatformInfo(p PlatformID, param PlatformInfo) (string, error)

	// GetDeviceIDs returns the platform's devices matching typ. An empty
	// result is not an error.
	GetDeviceIDs(p PlatformID, typ DeviceType) ([]DeviceID, error)
	GetDeviceInfoString(d DeviceID, param DeviceInfo) (string, error)
	GetDeviceInfoUint(d DeviceID, param DeviceInfo) (uint32, error)
	GetDeviceInfoUlong(d DeviceID, param DeviceInfo) (uint64, error)
	GetDeviceInfoWorkItemSizes(d DeviceID) ([3]uint64, error)

	// CreateContext creates a context for the device with an error callback.
	// interop may be nil.
	CreateContext(p PlatformID, d DeviceID, notify Notify, interop *GLInterop) (Context, error)
	ReleaseContext(c Context) error

	// CreateCommandQueue creates an in-order queue for the device.
	CreateCommandQueue(c Context, d DeviceID) (CommandQueue, error)
	ReleaseCommandQueue(q CommandQueue) error

	CreateBuffer(c Context, size int) (Mem, error)
	ReleaseMemObject(m Mem) error
	GetMemObjectSize(m Mem) (int, error)
	GetMemObjectRefCount(m Mem) (uint32, error)

	// EnqueueReadBuffer reads len(dst) bytes at offset into dst. When
	// blocking is false dst must stay untouched (and alive) until the queue
	// finishes.
	EnqueueReadBuffer(q CommandQueue, m Mem, blocking bool, offset int, dst []byte) error
	// EnqueueWriteBuffer writes len(src) bytes from src at offset. When
	// blocking is false src must stay unmodified until the queue finishes.
	EnqueueWriteBuffer(q CommandQueue, m Mem, blocking bool, offset int, src []byte) error
	EnqueueCopyBuffer(q CommandQueue, src, dst Mem, srcOffset, dstOffset, size int) error
	// EnqueueFillBuffer fills size bytes at offset with the repeated
	// pattern; size must be a multiple of len(pattern).
	EnqueueFillBuffer(q CommandQueue, m Mem, pattern []byte, offset, size int) error

	CreateProgramWithSource(c Context, source string) (Program, error)
	// BuildProgram compiles the program for the device. On a compilation
	// failure the returned error wraps StatusBuildProgramFailure and the
	// full diagnostic text is available from GetProgramBuildLog.
	BuildProgram(p Program, d DeviceID, options string) error
	GetProgramBuildLog(p Program, d DeviceID) (string, error)
	ReleaseProgram(p Program) error

	CreateKernel(p Program, name string) (Kernel, error)
	ReleaseKernel(k Kernel) error
	// SetKernelArg binds argument slot index. A nil value binds a local
	// scratch slot of the given size; for a buffer argument value holds the
	// in-memory representation of the Mem handle and size is its width.
	SetKernelArg(k Kernel, index, size int, value []byte) error
	// EnqueueNDRangeKernel launches the kernel over the leading workDim
	// (1 to 3) extents of global, with work-groups shaped by local. Unused
	// trailing extents must be 1 in both arrays.
	EnqueueNDRangeKernel(q CommandQueue, k Kernel, workDim int, global, local [3]uint64) error

	// Flush submits all enqueued operations for execution without waiting.
	Flush(q CommandQueue) error
	// Finish blocks until every operation enqueued so far has completed.
	Finish(q CommandQueue) error
}
