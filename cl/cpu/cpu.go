// Package cpu implements the cl.Driver interface in software: mem objects are
// aligned host blocks, each command queue is a goroutine draining tasks in
// order, and kernels are Go functions registered by name and executed over the
// launch range on a worker pool.
//
// It exists so everything above the driver boundary can run, and be tested, on
// machines with no GPU at all. Kernel sources are still parsed for their
// __kernel entry points, so program build failures and unknown kernel names
// surface the same way they do on a real driver, but the executable body of a
// kernel is the registered Go function, not the OpenCL C text. Kernels that
// rely on work-group barriers are not supported; work-items of a group run
// sequentially.
package cpu

import (
	"regexp"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/yuckify/gocl/cl"
	"github.com/yuckify/gocl/hostmem"
)

// Vendor is the vendor string reported for the software platform and device.
const Vendor = "GOCL"

const (
	platformHandle = cl.PlatformID(1)
	deviceHandle   = cl.DeviceID(1)
)

// Driver is a software cl.Driver. The zero value is not usable; construct
// with New. A process-wide instance is registered with the cl registry at
// init time under the name "cpu".
type Driver struct {
	mu          sync.Mutex
	lastHandle  uintptr
	contexts    map[cl.Context]*contextObj
	queues      map[cl.CommandQueue]*queueObj
	mems        map[cl.Mem]*memObj
	programs    map[cl.Program]*programObj
	kernels     map[cl.Kernel]*kernelObj
	kernelFuncs map[string]KernelFunc
}

type contextObj struct {
	notify cl.Notify
}

type memObj struct {
	block *hostmem.Block
	size  int
	refs  uint32
}

type programObj struct {
	source      string
	built       bool
	buildLog    string
	kernelNames map[string]bool
}

type kernelObj struct {
	program *programObj
	name    string
	fn      KernelFunc
	args    map[int]Value
}

var defaultDriver = New()

func init() {
	cl.Register(defaultDriver, 10)
}

// New returns an empty software driver. Kernels must be registered on it
// before they can be created through CreateKernel.
func New() *Driver {
	return &Driver{
		contexts:    make(map[cl.Context]*contextObj),
		queues:      make(map[cl.CommandQueue]*queueObj),
		mems:        make(map[cl.Mem]*memObj),
		programs:    make(map[cl.Program]*programObj),
		kernels:     make(map[cl.Kernel]*kernelObj),
		kernelFuncs: make(map[string]KernelFunc),
	}
}

// Default returns the process-wide driver instance, the one registered with
// the cl registry.
func Default() *Driver {
	return defaultDriver
}

// RegisterKernel makes fn available as the implementation of the kernel named
// name. Registration replaces any previous implementation under that name.
func (d *Driver) RegisterKernel(name string, fn KernelFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.kernelFuncs[name] = fn
}

// RegisterKernel registers fn with the process-wide driver instance.
func RegisterKernel(name string, fn KernelFunc) {
	defaultDriver.RegisterKernel(name, fn)
}

// RaiseContextError delivers an asynchronous context error to the context's
// registered callback, as a GPU driver would on a device-side fault. It is a
// test hook.
func (d *Driver) RaiseContextError(c cl.Context, errInfo string) error {
	d.mu.Lock()
	ctx, ok := d.contexts[c]
	d.mu.Unlock()
	if !ok {
		return errors.Wrapf(cl.StatusInvalidContext, "RaiseContextError: unknown context %#x", uintptr(c))
	}
	if ctx.notify != nil {
		ctx.notify(errInfo, nil)
	}
	return nil
}

func (d *Driver) Name() string { return "cpu" }

func (d *Driver) newHandle() uintptr {
	d.lastHandle++
	return d.lastHandle
}

func (d *Driver) GetPlatformIDs() ([]cl.PlatformID, error) {
	return []cl.PlatformID{platformHandle}, nil
}

func (d *Driver) GetPlatformInfo(p cl.PlatformID, param cl.PlatformInfo) (string, error) {
	if p != platformHandle {
		return "", errors.Wrapf(cl.StatusInvalidPlatform, "GetPlatformInfo: unknown platform %#x", uintptr(p))
	}
	switch param {
	case cl.PlatformProfile:
		return "FULL_PROFILE", nil
	case cl.PlatformVersion:
		return "OpenCL 1.2 gocl software", nil
	case cl.PlatformName:
		return "GOCL Software Platform", nil
	case cl.PlatformVendor:
		return Vendor, nil
	}
	return "", errors.Wrapf(cl.StatusInvalidValue, "GetPlatformInfo: unsupported parameter %#x", uint32(param))
}

func (d *Driver) GetDeviceIDs(p cl.PlatformID, typ cl.DeviceType) ([]cl.DeviceID, error) {
	if p != platformHandle {
		return nil, errors.Wrapf(cl.StatusInvalidPlatform, "GetDeviceIDs: unknown platform %#x", uintptr(p))
	}
	// The software device enumerates as a GPU so that GPU-directed device
	// selection finds it.
	if typ&(cl.DeviceTypeGPU|cl.DeviceTypeDefault) != 0 || typ == cl.DeviceTypeAll {
		return []cl.DeviceID{deviceHandle}, nil
	}
	return nil, nil
}

func (d *Driver) checkDevice(id cl.DeviceID, op string) error {
	if id != deviceHandle {
		return errors.Wrapf(cl.StatusInvalidDevice, "%s: unknown device %#x", op, uintptr(id))
	}
	return nil
}

func (d *Driver) GetDeviceInfoString(id cl.DeviceID, param cl.DeviceInfo) (string, error) {
	if err := d.checkDevice(id, "GetDeviceInfoString"); err != nil {
		return "", err
	}
	switch param {
	case cl.DeviceInfoName:
		return "GOCL Software Device", nil
	case cl.DeviceInfoVendor:
		return Vendor, nil
	case cl.DeviceInfoVersion:
		return "OpenCL 1.2 gocl software", nil
	case cl.DeviceInfoDriverVersion:
		return "1.0", nil
	}
	return "", errors.Wrapf(cl.StatusInvalidValue, "GetDeviceInfoString: unsupported parameter %#x", uint32(param))
}

func (d *Driver) GetDeviceInfoUint(id cl.DeviceID, param cl.DeviceInfo) (uint32, error) {
	if err := d.checkDevice(id, "GetDeviceInfoUint"); err != nil {
		return 0, err
	}
	switch param {
	case cl.DeviceInfoMaxComputeUnits:
		return uint32(runtime.NumCPU()), nil
	case cl.DeviceInfoMaxClockFrequency:
		return 1000, nil
	}
	return 0, errors.Wrapf(cl.StatusInvalidValue, "GetDeviceInfoUint: unsupported parameter %#x", uint32(param))
}

func (d *Driver) GetDeviceInfoUlong(id cl.DeviceID, param cl.DeviceInfo) (uint64, error) {
	if err := d.checkDevice(id, "GetDeviceInfoUlong"); err != nil {
		return 0, err
	}
	switch param {
	case cl.DeviceInfoLocalMemSize:
		return 64 << 10, nil
	case cl.DeviceInfoGlobalMemSize:
		return 8 << 30, nil
	case cl.DeviceInfoMaxWorkGroupSize:
		return 1024, nil
	}
	return 0, errors.Wrapf(cl.StatusInvalidValue, "GetDeviceInfoUlong: unsupported parameter %#x", uint32(param))
}

func (d *Driver) GetDeviceInfoWorkItemSizes(id cl.DeviceID) ([3]uint64, error) {
	if err := d.checkDevice(id, "GetDeviceInfoWorkItemSizes"); err != nil {
		return [3]uint64{}, err
	}
	return [3]uint64{1024, 1024, 64}, nil
}

func (d *Driver) CreateContext(p cl.PlatformID, id cl.DeviceID, notify cl.Notify, interop *cl.GLInterop) (cl.Context, error) {
	if p != platformHandle {
		return 0, errors.Wrapf(cl.StatusInvalidPlatform, "CreateContext: unknown platform %#x", uintptr(p))
	}
	if err := d.checkDevice(id, "CreateContext"); err != nil {
		return 0, err
	}
	if interop != nil {
		return 0, errors.Wrapf(cl.StatusInvalidOperation, "CreateContext: GL interop is not supported by the cpu driver")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	h := cl.Context(d.newHandle())
	d.contexts[h] = &contextObj{notify: notify}
	return h, nil
}

func (d *Driver) ReleaseContext(c cl.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.contexts[c]; !ok {
		return errors.Wrapf(cl.StatusInvalidContext, "ReleaseContext: unknown context %#x", uintptr(c))
	}
	delete(d.contexts, c)
	return nil
}

func (d *Driver) CreateCommandQueue(c cl.Context, id cl.DeviceID) (cl.CommandQueue, error) {
	if err := d.checkDevice(id, "CreateCommandQueue"); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.contexts[c]; !ok {
		return 0, errors.Wrapf(cl.StatusInvalidContext, "CreateCommandQueue: unknown context %#x", uintptr(c))
	}
	h := cl.CommandQueue(d.newHandle())
	d.queues[h] = newQueue()
	return h, nil
}

func (d *Driver) ReleaseCommandQueue(q cl.CommandQueue) error {
	d.mu.Lock()
	queue, ok := d.queues[q]
	delete(d.queues, q)
	d.mu.Unlock()
	if !ok {
		return errors.Wrapf(cl.StatusInvalidCommandQueue, "ReleaseCommandQueue: unknown queue %#x", uintptr(q))
	}
	queue.shutdown()
	return nil
}

func (d *Driver) queue(q cl.CommandQueue, op string) (*queueObj, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	queue, ok := d.queues[q]
	if !ok {
		return nil, errors.Wrapf(cl.StatusInvalidCommandQueue, "%s: unknown queue %#x", op, uintptr(q))
	}
	return queue, nil
}

func (d *Driver) mem(m cl.Mem, op string) (*memObj, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	mem, ok := d.mems[m]
	if !ok {
		return nil, errors.Wrapf(cl.StatusInvalidMemObject, "%s: unknown mem object %#x", op, uintptr(m))
	}
	return mem, nil
}

func (d *Driver) CreateBuffer(c cl.Context, size int) (cl.Mem, error) {
	if size <= 0 {
		return 0, errors.Wrapf(cl.StatusInvalidBufferSize, "CreateBuffer: invalid size %d", size)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.contexts[c]; !ok {
		return 0, errors.Wrapf(cl.StatusInvalidContext, "CreateBuffer: unknown context %#x", uintptr(c))
	}
	h := cl.Mem(d.newHandle())
	d.mems[h] = &memObj{block: hostmem.Alloc(size), size: size, refs: 1}
	return h, nil
}

func (d *Driver) ReleaseMemObject(m cl.Mem) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	mem, ok := d.mems[m]
	if !ok {
		return errors.Wrapf(cl.StatusInvalidMemObject, "ReleaseMemObject: unknown mem object %#x", uintptr(m))
	}
	mem.refs--
	if mem.refs == 0 {
		mem.block.Free()
		delete(d.mems, m)
	}
	return nil
}

func (d *Driver) GetMemObjectSize(m cl.Mem) (int, error) {
	mem, err := d.mem(m, "GetMemObjectSize")
	if err != nil {
		return 0, err
	}
	return mem.size, nil
}

func (d *Driver) GetMemObjectRefCount(m cl.Mem) (uint32, error) {
	mem, err := d.mem(m, "GetMemObjectRefCount")
	if err != nil {
		return 0, err
	}
	return mem.refs, nil
}

func (d *Driver) EnqueueReadBuffer(q cl.CommandQueue, m cl.Mem, blocking bool, offset int, dst []byte) error {
	queue, err := d.queue(q, "EnqueueReadBuffer")
	if err != nil {
		return err
	}
	mem, err := d.mem(m, "EnqueueReadBuffer")
	if err != nil {
		return err
	}
	if offset < 0 || offset+len(dst) > mem.size {
		return errors.Wrapf(cl.StatusInvalidValue,
			"EnqueueReadBuffer: range [%d, %d) outside buffer of %d bytes", offset, offset+len(dst), mem.size)
	}
	task := func() {
		copy(dst, mem.block.Bytes()[offset:offset+len(dst)])
	}
	if blocking {
		queue.submitAndWait(task)
	} else {
		queue.submit(task)
	}
	return nil
}

func (d *Driver) EnqueueWriteBuffer(q cl.CommandQueue, m cl.Mem, blocking bool, offset int, src []byte) error {
	queue, err := d.queue(q, "EnqueueWriteBuffer")
	if err != nil {
		return err
	}
	mem, err := d.mem(m, "EnqueueWriteBuffer")
	if err != nil {
		return err
	}
	if offset < 0 || offset+len(src) > mem.size {
		return errors.Wrapf(cl.StatusInvalidValue,
			"EnqueueWriteBuffer: range [%d, %d) outside buffer of %d bytes", offset, offset+len(src), mem.size)
	}
	task := func() {
		copy(mem.block.Bytes()[offset:offset+len(src)], src)
	}
	if blocking {
		queue.submitAndWait(task)
	} else {
		queue.submit(task)
	}
	return nil
}

func (d *Driver) EnqueueCopyBuffer(q cl.CommandQueue, src, dst cl.Mem, srcOffset, dstOffset, size int) error {
	queue, err := d.queue(q, "EnqueueCopyBuffer")
	if err != nil {
		return err
	}
	srcMem, err := d.mem(src, "EnqueueCopyBuffer")
	if err != nil {
		return err
	}
	dstMem, err := d.mem(dst, "EnqueueCopyBuffer")
	if err != nil {
		return err
	}
	if size <= 0 || srcOffset < 0 || dstOffset < 0 ||
		srcOffset+size > srcMem.size || dstOffset+size > dstMem.size {
		return errors.Wrapf(cl.StatusInvalidValue,
			"EnqueueCopyBuffer: copy of %d bytes at src+%d/dst+%d outside buffers of %d/%d bytes",
			size, srcOffset, dstOffset, srcMem.size, dstMem.size)
	}
	queue.submit(func() {
		copy(dstMem.block.Bytes()[dstOffset:dstOffset+size], srcMem.block.Bytes()[srcOffset:srcOffset+size])
	})
	return nil
}

func (d *Driver) EnqueueFillBuffer(q cl.CommandQueue, m cl.Mem, pattern []byte, offset, size int) error {
	queue, err := d.queue(q, "EnqueueFillBuffer")
	if err != nil {
		return err
	}
	mem, err := d.mem(m, "EnqueueFillBuffer")
	if err != nil {
		return err
	}
	if len(pattern) == 0 || size <= 0 || size%len(pattern) != 0 || offset < 0 || offset+size > mem.size {
		return errors.Wrapf(cl.StatusInvalidValue,
			"EnqueueFillBuffer: fill of %d bytes at +%d with %d-byte pattern outside buffer of %d bytes",
			size, offset, len(pattern), mem.size)
	}
	// The pattern may be reused by the caller right after enqueue.
	pat := append([]byte(nil), pattern...)
	queue.submit(func() {
		out := mem.block.Bytes()[offset : offset+size]
		for i := 0; i < size; i += len(pat) {
			copy(out[i:i+len(pat)], pat)
		}
	})
	return nil
}

var kernelNameRe = regexp.MustCompile(`__kernel\s+void\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

func (d *Driver) CreateProgramWithSource(c cl.Context, source string) (cl.Program, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.contexts[c]; !ok {
		return 0, errors.Wrapf(cl.StatusInvalidContext, "CreateProgramWithSource: unknown context %#x", uintptr(c))
	}
	if source == "" {
		return 0, errors.Wrapf(cl.StatusInvalidValue, "CreateProgramWithSource: empty source")
	}
	h := cl.Program(d.newHandle())
	d.programs[h] = &programObj{source: source}
	return h, nil
}

func (d *Driver) BuildProgram(p cl.Program, id cl.DeviceID, options string) error {
	if err := d.checkDevice(id, "BuildProgram"); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	prog, ok := d.programs[p]
	if !ok {
		return errors.Wrapf(cl.StatusInvalidProgram, "BuildProgram: unknown program %#x", uintptr(p))
	}
	if options != "" {
		klog.V(1).Infof("cpu driver: ignoring build options %q", options)
	}
	matches := kernelNameRe.FindAllStringSubmatch(prog.source, -1)
	if len(matches) == 0 {
		prog.built = false
		prog.buildLog = "error: no __kernel void entry points found in source\n"
		return errors.Wrapf(cl.StatusBuildProgramFailure, "BuildProgram: source defines no kernels")
	}
	prog.kernelNames = make(map[string]bool, len(matches))
	for _, m := range matches {
		prog.kernelNames[m[1]] = true
	}
	prog.built = true
	prog.buildLog = ""
	return nil
}

func (d *Driver) GetProgramBuildLog(p cl.Program, id cl.DeviceID) (string, error) {
	if err := d.checkDevice(id, "GetProgramBuildLog"); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	prog, ok := d.programs[p]
	if !ok {
		return "", errors.Wrapf(cl.StatusInvalidProgram, "GetProgramBuildLog: unknown program %#x", uintptr(p))
	}
	return prog.buildLog, nil
}

func (d *Driver) ReleaseProgram(p cl.Program) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.programs[p]; !ok {
		return errors.Wrapf(cl.StatusInvalidProgram, "ReleaseProgram: unknown program %#x", uintptr(p))
	}
	delete(d.programs, p)
	return nil
}

func (d *Driver) CreateKernel(p cl.Program, name string) (cl.Kernel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prog, ok := d.programs[p]
	if !ok {
		return 0, errors.Wrapf(cl.StatusInvalidProgram, "CreateKernel: unknown program %#x", uintptr(p))
	}
	if !prog.built {
		return 0, errors.Wrapf(cl.StatusInvalidProgramExec, "CreateKernel: program is not built")
	}
	if !prog.kernelNames[name] {
		return 0, errors.Wrapf(cl.StatusInvalidKernelName, "CreateKernel: source defines no kernel %q", name)
	}
	fn, ok := d.kernelFuncs[name]
	if !ok {
		return 0, errors.Wrapf(cl.StatusInvalidKernelDefinition,
			"CreateKernel: no Go implementation registered for kernel %q; call cpu.RegisterKernel", name)
	}
	h := cl.Kernel(d.newHandle())
	d.kernels[h] = &kernelObj{program: prog, name: name, fn: fn, args: make(map[int]Value)}
	return h, nil
}

func (d *Driver) ReleaseKernel(k cl.Kernel) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.kernels[k]; !ok {
		return errors.Wrapf(cl.StatusInvalidKernel, "ReleaseKernel: unknown kernel %#x", uintptr(k))
	}
	delete(d.kernels, k)
	return nil
}

func (d *Driver) Flush(q cl.CommandQueue) error {
	// Tasks are handed to the queue goroutine at enqueue time; there is no
	// deferred submission to push.
	_, err := d.queue(q, "Flush")
	return err
}

func (d *Driver) Finish(q cl.CommandQueue) error {
	queue, err := d.queue(q, "Finish")
	if err != nil {
		return err
	}
	queue.finish()
	return nil
}
