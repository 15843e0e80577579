package compute

// fakeDriver is a scriptable in-memory cl.Driver. It lets the tests shape the
// platform/device topology, observe which driver calls the compute layer
// issues, and trigger asynchronous context errors on demand.

import (
	"sync"

	"github.com/yuckify/gocl/cl"
)

type fakeDevice struct {
	name   string
	vendor string
	units  uint32
	mhz    uint32
}

type fakePlatform struct {
	vendor  string
	devices []fakeDevice
}

type fakeArg struct {
	size  int
	value []byte // nil for a local scratch slot
}

type fakeLaunch struct {
	workDim int
	global  [3]uint64
	local   [3]uint64
}

type fakeDriver struct {
	platforms []fakePlatform

	mu       sync.Mutex
	next     uintptr
	contexts map[cl.Context]cl.Notify
	queues   map[cl.CommandQueue]bool
	mems     map[cl.Mem][]byte
	programs map[cl.Program]string
	kernels  map[cl.Kernel]string
	args     map[cl.Kernel]map[int]fakeArg

	enumCalls         int
	createBufferCalls int
	releaseMemCalls   int
	writeCalls        int
	readCalls         int
	copyCalls         int
	fillCalls         int
	flushCalls        int
	finishCalls       int

	lastWriteBytes   int
	lastBuildOptions string
	failBuildLog     string // non-empty makes BuildProgram fail with this log
	launches         []fakeLaunch
}

var _ cl.Driver = (*fakeDriver)(nil)

func newFakeDriver(platforms ...fakePlatform) *fakeDriver {
	return &fakeDriver{
		platforms: platforms,
		next:      1,
		contexts:  make(map[cl.Context]cl.Notify),
		queues:    make(map[cl.CommandQueue]bool),
		mems:      make(map[cl.Mem][]byte),
		programs:  make(map[cl.Program]string),
		kernels:   make(map[cl.Kernel]string),
		args:      make(map[cl.Kernel]map[int]fakeArg),
	}
}

func (f *fakeDriver) handle() uintptr {
	h := f.next
	f.next++
	return h
}

// Platform i gets handle (i+1)*1000, device j of platform i gets
// (i+1)*1000+(j+1), so a device handle alone identifies both.
func (f *fakeDriver) device(d cl.DeviceID) (*fakeDevice, error) {
	pi := int(d)/1000 - 1
	di := int(d)%1000 - 1
	if pi < 0 || pi >= len(f.platforms) || di < 0 || di >= len(f.platforms[pi].devices) {
		return nil, cl.StatusInvalidDevice
	}
	return &f.platforms[pi].devices[di], nil
}

// raiseContextError invokes the notify callback registered with ctx, as a
// driver would on an asynchronous failure.
func (f *fakeDriver) raiseContextError(ctx cl.Context, errInfo string) error {
	f.mu.Lock()
	notify, ok := f.contexts[ctx]
	f.mu.Unlock()
	if !ok {
		return cl.StatusInvalidContext
	}
	if notify != nil {
		notify(errInfo, nil)
	}
	return nil
}

func (f *fakeDriver) Name() string { return "fake" }

func (f *fakeDriver) GetPlatformIDs() ([]cl.PlatformID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enumCalls++
	ids := make([]cl.PlatformID, len(f.platforms))
	for i := range f.platforms {
		ids[i] = cl.PlatformID((i + 1) * 1000)
	}
	return ids, nil
}

func (f *fakeDriver) GetPlatformInfo(p cl.PlatformID, param cl.PlatformInfo) (string, error) {
	pi := int(p)/1000 - 1
	if pi < 0 || pi >= len(f.platforms) {
		return "", cl.StatusInvalidPlatform
	}
	switch param {
	case cl.PlatformName:
		return "Fake Platform", nil
	case cl.PlatformVendor:
		return f.platforms[pi].vendor, nil
	case cl.PlatformVersion:
		return "OpenCL 1.2 fake", nil
	default:
		return "fake", nil
	}
}

func (f *fakeDriver) GetDeviceIDs(p cl.PlatformID, typ cl.DeviceType) ([]cl.DeviceID, error) {
	pi := int(p)/1000 - 1
	if pi < 0 || pi >= len(f.platforms) {
		return nil, cl.StatusInvalidPlatform
	}
	if typ&(cl.DeviceTypeGPU|cl.DeviceTypeDefault|cl.DeviceTypeAll) == 0 {
		return nil, nil
	}
	ids := make([]cl.DeviceID, len(f.platforms[pi].devices))
	for j := range ids {
		ids[j] = cl.DeviceID(int(p) + j + 1)
	}
	return ids, nil
}

func (f *fakeDriver) GetDeviceInfoString(d cl.DeviceID, param cl.DeviceInfo) (string, error) {
	dev, err := f.device(d)
	if err != nil {
		return "", err
	}
	switch param {
	case cl.DeviceInfoName:
		return dev.name, nil
	case cl.DeviceInfoVendor:
		return dev.vendor, nil
	default:
		return "fake", nil
	}
}

func (f *fakeDriver) GetDeviceInfoUint(d cl.DeviceID, param cl.DeviceInfo) (uint32, error) {
	dev, err := f.device(d)
	if err != nil {
		return 0, err
	}
	switch param {
	case cl.DeviceInfoMaxComputeUnits:
		return dev.units, nil
	case cl.DeviceInfoMaxClockFrequency:
		return dev.mhz, nil
	default:
		return 0, nil
	}
}

func (f *fakeDriver) GetDeviceInfoUlong(d cl.DeviceID, param cl.DeviceInfo) (uint64, error) {
	if _, err := f.device(d); err != nil {
		return 0, err
	}
	switch param {
	case cl.DeviceInfoLocalMemSize:
		return 32 << 10, nil
	case cl.DeviceInfoGlobalMemSize:
		return 1 << 30, nil
	case cl.DeviceInfoMaxWorkGroupSize:
		return 256, nil
	default:
		return 0, nil
	}
}

func (f *fakeDriver) GetDeviceInfoWorkItemSizes(d cl.DeviceID) ([3]uint64, error) {
	if _, err := f.device(d); err != nil {
		return [3]uint64{}, err
	}
	return [3]uint64{256, 256, 64}, nil
}

func (f *fakeDriver) CreateContext(p cl.PlatformID, d cl.DeviceID, notify cl.Notify, interop *cl.GLInterop) (cl.Context, error) {
	if _, err := f.device(d); err != nil {
		return 0, err
	}
	if interop != nil {
		return 0, cl.StatusInvalidOperation
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ctx := cl.Context(f.handle())
	f.contexts[ctx] = notify
	return ctx, nil
}

func (f *fakeDriver) ReleaseContext(c cl.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.contexts[c]; !ok {
		return cl.StatusInvalidContext
	}
	delete(f.contexts, c)
	return nil
}

func (f *fakeDriver) CreateCommandQueue(c cl.Context, d cl.DeviceID) (cl.CommandQueue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.contexts[c]; !ok {
		return 0, cl.StatusInvalidContext
	}
	q := cl.CommandQueue(f.handle())
	f.queues[q] = true
	return q, nil
}

func (f *fakeDriver) ReleaseCommandQueue(q cl.CommandQueue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.queues[q] {
		return cl.StatusInvalidCommandQueue
	}
	delete(f.queues, q)
	return nil
}

func (f *fakeDriver) CreateBuffer(c cl.Context, size int) (cl.Mem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.contexts[c]; !ok {
		return 0, cl.StatusInvalidContext
	}
	if size <= 0 {
		return 0, cl.StatusInvalidBufferSize
	}
	f.createBufferCalls++
	m := cl.Mem(f.handle())
	f.mems[m] = make([]byte, size)
	return m, nil
}

func (f *fakeDriver) ReleaseMemObject(m cl.Mem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.mems[m]; !ok {
		return cl.StatusInvalidMemObject
	}
	f.releaseMemCalls++
	delete(f.mems, m)
	return nil
}

func (f *fakeDriver) GetMemObjectSize(m cl.Mem) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.mems[m]
	if !ok {
		return 0, cl.StatusInvalidMemObject
	}
	return len(data), nil
}

func (f *fakeDriver) GetMemObjectRefCount(m cl.Mem) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.mems[m]; !ok {
		return 0, cl.StatusInvalidMemObject
	}
	return 1, nil
}

func (f *fakeDriver) EnqueueReadBuffer(q cl.CommandQueue, m cl.Mem, blocking bool, offset int, dst []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.mems[m]
	if !ok {
		return cl.StatusInvalidMemObject
	}
	if offset < 0 || offset+len(dst) > len(data) {
		return cl.StatusInvalidValue
	}
	f.readCalls++
	copy(dst, data[offset:])
	return nil
}

func (f *fakeDriver) EnqueueWriteBuffer(q cl.CommandQueue, m cl.Mem, blocking bool, offset int, src []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.mems[m]
	if !ok {
		return cl.StatusInvalidMemObject
	}
	if offset < 0 || offset+len(src) > len(data) {
		return cl.StatusInvalidValue
	}
	f.writeCalls++
	f.lastWriteBytes = len(src)
	copy(data[offset:], src)
	return nil
}

func (f *fakeDriver) EnqueueCopyBuffer(q cl.CommandQueue, src, dst cl.Mem, srcOffset, dstOffset, size int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	srcData, ok := f.mems[src]
	if !ok {
		return cl.StatusInvalidMemObject
	}
	dstData, ok := f.mems[dst]
	if !ok {
		return cl.StatusInvalidMemObject
	}
	if srcOffset < 0 || srcOffset+size > len(srcData) || dstOffset < 0 || dstOffset+size > len(dstData) {
		return cl.StatusInvalidValue
	}
	f.copyCalls++
	copy(dstData[dstOffset:dstOffset+size], srcData[srcOffset:])
	return nil
}

func (f *fakeDriver) EnqueueFillBuffer(q cl.CommandQueue, m cl.Mem, pattern []byte, offset, size int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.mems[m]
	if !ok {
		return cl.StatusInvalidMemObject
	}
	if len(pattern) == 0 || size%len(pattern) != 0 || offset < 0 || offset+size > len(data) {
		return cl.StatusInvalidValue
	}
	f.fillCalls++
	for i := 0; i < size; i++ {
		data[offset+i] = pattern[i%len(pattern)]
	}
	return nil
}

func (f *fakeDriver) CreateProgramWithSource(c cl.Context, source string) (cl.Program, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.contexts[c]; !ok {
		return 0, cl.StatusInvalidContext
	}
	p := cl.Program(f.handle())
	f.programs[p] = source
	return p, nil
}

func (f *fakeDriver) BuildProgram(p cl.Program, d cl.DeviceID, options string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.programs[p]; !ok {
		return cl.StatusInvalidProgram
	}
	f.lastBuildOptions = options
	if f.failBuildLog != "" {
		return cl.StatusBuildProgramFailure
	}
	return nil
}

func (f *fakeDriver) GetProgramBuildLog(p cl.Program, d cl.DeviceID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.programs[p]; !ok {
		return "", cl.StatusInvalidProgram
	}
	return f.failBuildLog, nil
}

func (f *fakeDriver) ReleaseProgram(p cl.Program) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.programs[p]; !ok {
		return cl.StatusInvalidProgram
	}
	delete(f.programs, p)
	return nil
}

func (f *fakeDriver) CreateKernel(p cl.Program, name string) (cl.Kernel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.programs[p]; !ok {
		return 0, cl.StatusInvalidProgram
	}
	k := cl.Kernel(f.handle())
	f.kernels[k] = name
	f.args[k] = make(map[int]fakeArg)
	return k, nil
}

func (f *fakeDriver) ReleaseKernel(k cl.Kernel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.kernels[k]; !ok {
		return cl.StatusInvalidKernel
	}
	delete(f.kernels, k)
	delete(f.args, k)
	return nil
}

func (f *fakeDriver) SetKernelArg(k cl.Kernel, index, size int, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.kernels[k]; !ok {
		return cl.StatusInvalidKernel
	}
	if index < 0 || size <= 0 {
		return cl.StatusInvalidArgValue
	}
	arg := fakeArg{size: size}
	if value != nil {
		arg.value = append([]byte(nil), value...)
	}
	f.args[k][index] = arg
	return nil
}

func (f *fakeDriver) EnqueueNDRangeKernel(q cl.CommandQueue, k cl.Kernel, workDim int, global, local [3]uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.kernels[k]; !ok {
		return cl.StatusInvalidKernel
	}
	if workDim < 1 || workDim > 3 {
		return cl.StatusInvalidWorkDimension
	}
	f.launches = append(f.launches, fakeLaunch{workDim: workDim, global: global, local: local})
	return nil
}

func (f *fakeDriver) Flush(q cl.CommandQueue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCalls++
	return nil
}

func (f *fakeDriver) Finish(q cl.CommandQueue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishCalls++
	return nil
}
