//go:build linux || darwin

package opencl

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/yuckify/gocl/cl"
)

// OpenCL enums used internally and not part of the cl package surface.
const (
	clContextPlatform             = 0x1084
	clGLContextKHR                = 0x2008
	clGLXDisplayKHR               = 0x200A
	clMemReadWrite                = 1 << 0
	clMemSize                     = 0x1102
	clMemReferenceCount           = 0x1105
	clProgramBuildLog             = 0x1183
	clDeviceMaxWorkItemDimensions = 0x1003
)

// Driver is the OpenCL-backed cl.Driver. The entry points must have been
// bound with Load before any method is called; the instance registered at
// package init time satisfies that.
type Driver struct {
	mu            sync.Mutex
	contextTokens map[cl.Context]uintptr
}

var _ cl.Driver = (*Driver)(nil)

func (dd *Driver) Name() string { return "opencl" }

func clBool(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func cString(s string) *byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return &b[0]
}

func trimNull(buf []byte) string {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}

// getInfoString runs the usual two-call string query: first for the size,
// then for the bytes.
func getInfoString(op string, query func(size uintptr, value unsafe.Pointer, sizeRet *uintptr) cl.Status) (string, error) {
	var size uintptr
	if st := query(0, nil, &size); st != cl.StatusSuccess {
		return "", errors.Wrapf(st, "%s(size) failed", op)
	}
	if size == 0 {
		return "", nil
	}
	buf := make([]byte, size)
	if st := query(size, unsafe.Pointer(&buf[0]), nil); st != cl.StatusSuccess {
		return "", errors.Wrapf(st, "%s(value) failed", op)
	}
	return trimNull(buf), nil
}

func (dd *Driver) GetPlatformIDs() ([]cl.PlatformID, error) {
	var count uint32
	if st := clGetPlatformIDs(0, nil, &count); st != cl.StatusSuccess {
		return nil, errors.Wrapf(st, "clGetPlatformIDs(count) failed")
	}
	if count == 0 {
		return nil, nil
	}
	platforms := make([]cl.PlatformID, count)
	if st := clGetPlatformIDs(count, &platforms[0], nil); st != cl.StatusSuccess {
		return nil, errors.Wrapf(st, "clGetPlatformIDs(list) failed")
	}
	return platforms, nil
}

func (dd *Driver) GetPlatformInfo(p cl.PlatformID, param cl.PlatformInfo) (string, error) {
	return getInfoString("clGetPlatformInfo", func(size uintptr, value unsafe.Pointer, sizeRet *uintptr) cl.Status {
		return clGetPlatformInfo(p, uint32(param), size, value, sizeRet)
	})
}

func (dd *Driver) GetDeviceIDs(p cl.PlatformID, typ cl.DeviceType) ([]cl.DeviceID, error) {
	var count uint32
	st := clGetDeviceIDs(p, uint64(typ), 0, nil, &count)
	if st == cl.StatusDeviceNotFound {
		return nil, nil
	}
	if st != cl.StatusSuccess {
		return nil, errors.Wrapf(st, "clGetDeviceIDs(count) failed")
	}
	if count == 0 {
		return nil, nil
	}
	devices := make([]cl.DeviceID, count)
	if st := clGetDeviceIDs(p, uint64(typ), count, &devices[0], nil); st != cl.StatusSuccess {
		return nil, errors.Wrapf(st, "clGetDeviceIDs(list) failed")
	}
	return devices, nil
}

func (dd *Driver) GetDeviceInfoString(d cl.DeviceID, param cl.DeviceInfo) (string, error) {
	return getInfoString("clGetDeviceInfo", func(size uintptr, value unsafe.Pointer, sizeRet *uintptr) cl.Status {
		return clGetDeviceInfo(d, uint32(param), size, value, sizeRet)
	})
}

func (dd *Driver) GetDeviceInfoUint(d cl.DeviceID, param cl.DeviceInfo) (uint32, error) {
	var value uint32
	if st := clGetDeviceInfo(d, uint32(param), unsafe.Sizeof(value), unsafe.Pointer(&value), nil); st != cl.StatusSuccess {
		return 0, errors.Wrapf(st, "clGetDeviceInfo(%#x) failed", uint32(param))
	}
	return value, nil
}

func (dd *Driver) GetDeviceInfoUlong(d cl.DeviceID, param cl.DeviceInfo) (uint64, error) {
	var value uint64
	if st := clGetDeviceInfo(d, uint32(param), unsafe.Sizeof(value), unsafe.Pointer(&value), nil); st != cl.StatusSuccess {
		return 0, errors.Wrapf(st, "clGetDeviceInfo(%#x) failed", uint32(param))
	}
	return value, nil
}

func (dd *Driver) GetDeviceInfoWorkItemSizes(d cl.DeviceID) ([3]uint64, error) {
	sizes := [3]uint64{1, 1, 1}
	dims, err := dd.GetDeviceInfoUint(d, clDeviceMaxWorkItemDimensions)
	if err != nil {
		return sizes, err
	}
	if dims == 0 {
		return sizes, nil
	}
	buf := make([]uintptr, dims)
	st := clGetDeviceInfo(d, uint32(cl.DeviceInfoMaxWorkItemSizes),
		uintptr(dims)*unsafe.Sizeof(uintptr(0)), unsafe.Pointer(&buf[0]), nil)
	if st != cl.StatusSuccess {
		return sizes, errors.Wrapf(st, "clGetDeviceInfo(CL_DEVICE_MAX_WORK_ITEM_SIZES) failed")
	}
	for i := 0; i < 3 && i < int(dims); i++ {
		sizes[i] = uint64(buf[i])
	}
	return sizes, nil
}

func (dd *Driver) CreateContext(p cl.PlatformID, d cl.DeviceID, notify cl.Notify, interop *cl.GLInterop) (cl.Context, error) {
	props := []uintptr{clContextPlatform, uintptr(p)}
	if interop != nil {
		props = append(props, clGLContextKHR, interop.GLContext, clGLXDisplayKHR, interop.Display)
	}
	props = append(props, 0)

	var notifyPtr, token uintptr
	if notify != nil {
		token = registerNotify(notify)
		notifyPtr = notifyTrampoline
	}
	var errRet int32
	ctx := clCreateContext(&props[0], 1, &d, notifyPtr, token, &errRet)
	if st := cl.Status(errRet); st != cl.StatusSuccess {
		dropNotify(token)
		return 0, errors.Wrapf(st, "clCreateContext failed")
	}
	dd.mu.Lock()
	if dd.contextTokens == nil {
		dd.contextTokens = make(map[cl.Context]uintptr)
	}
	dd.contextTokens[ctx] = token
	dd.mu.Unlock()
	return ctx, nil
}

func (dd *Driver) ReleaseContext(c cl.Context) error {
	dd.mu.Lock()
	token := dd.contextTokens[c]
	delete(dd.contextTokens, c)
	dd.mu.Unlock()
	st := clReleaseContext(c)
	dropNotify(token)
	if st != cl.StatusSuccess {
		return errors.Wrapf(st, "clReleaseContext failed")
	}
	return nil
}

func (dd *Driver) CreateCommandQueue(c cl.Context, d cl.DeviceID) (cl.CommandQueue, error) {
	var errRet int32
	queue := clCreateCommandQueue(c, d, 0, &errRet)
	if st := cl.Status(errRet); st != cl.StatusSuccess {
		return 0, errors.Wrapf(st, "clCreateCommandQueue failed")
	}
	return queue, nil
}

func (dd *Driver) ReleaseCommandQueue(q cl.CommandQueue) error {
	if st := clReleaseCommandQueue(q); st != cl.StatusSuccess {
		return errors.Wrapf(st, "clReleaseCommandQueue failed")
	}
	return nil
}

func (dd *Driver) CreateBuffer(c cl.Context, size int) (cl.Mem, error) {
	if size <= 0 {
		return 0, errors.Wrapf(cl.StatusInvalidBufferSize, "clCreateBuffer: invalid size %d", size)
	}
	var errRet int32
	mem := clCreateBuffer(c, clMemReadWrite, uintptr(size), nil, &errRet)
	if st := cl.Status(errRet); st != cl.StatusSuccess {
		return 0, errors.Wrapf(st, "clCreateBuffer(%d bytes) failed", size)
	}
	return mem, nil
}

func (dd *Driver) ReleaseMemObject(m cl.Mem) error {
	if st := clReleaseMemObject(m); st != cl.StatusSuccess {
		return errors.Wrapf(st, "clReleaseMemObject failed")
	}
	return nil
}

func (dd *Driver) GetMemObjectSize(m cl.Mem) (int, error) {
	var size uintptr
	if st := clGetMemObjectInfo(m, clMemSize, unsafe.Sizeof(size), unsafe.Pointer(&size), nil); st != cl.StatusSuccess {
		return 0, errors.Wrapf(st, "clGetMemObjectInfo(CL_MEM_SIZE) failed")
	}
	return int(size), nil
}

func (dd *Driver) GetMemObjectRefCount(m cl.Mem) (uint32, error) {
	var refs uint32
	if st := clGetMemObjectInfo(m, clMemReferenceCount, unsafe.Sizeof(refs), unsafe.Pointer(&refs), nil); st != cl.StatusSuccess {
		return 0, errors.Wrapf(st, "clGetMemObjectInfo(CL_MEM_REFERENCE_COUNT) failed")
	}
	return refs, nil
}

func (dd *Driver) EnqueueReadBuffer(q cl.CommandQueue, m cl.Mem, blocking bool, offset int, dst []byte) error {
	if len(dst) == 0 {
		return nil
	}
	st := clEnqueueReadBuffer(q, m, clBool(blocking), uintptr(offset), uintptr(len(dst)),
		unsafe.Pointer(&dst[0]), 0, nil, nil)
	if st != cl.StatusSuccess {
		return errors.Wrapf(st, "clEnqueueReadBuffer(%d bytes at +%d) failed", len(dst), offset)
	}
	return nil
}

func (dd *Driver) EnqueueWriteBuffer(q cl.CommandQueue, m cl.Mem, blocking bool, offset int, src []byte) error {
	if len(src) == 0 {
		return nil
	}
	st := clEnqueueWriteBuffer(q, m, clBool(blocking), uintptr(offset), uintptr(len(src)),
		unsafe.Pointer(&src[0]), 0, nil, nil)
	if st != cl.StatusSuccess {
		return errors.Wrapf(st, "clEnqueueWriteBuffer(%d bytes at +%d) failed", len(src), offset)
	}
	return nil
}

func (dd *Driver) EnqueueCopyBuffer(q cl.CommandQueue, src, dst cl.Mem, srcOffset, dstOffset, size int) error {
	st := clEnqueueCopyBuffer(q, src, dst, uintptr(srcOffset), uintptr(dstOffset), uintptr(size), 0, nil, nil)
	if st != cl.StatusSuccess {
		return errors.Wrapf(st, "clEnqueueCopyBuffer(%d bytes) failed", size)
	}
	return nil
}

func (dd *Driver) EnqueueFillBuffer(q cl.CommandQueue, m cl.Mem, pattern []byte, offset, size int) error {
	if len(pattern) == 0 {
		return errors.Wrapf(cl.StatusInvalidValue, "clEnqueueFillBuffer: empty pattern")
	}
	st := clEnqueueFillBuffer(q, m, unsafe.Pointer(&pattern[0]), uintptr(len(pattern)),
		uintptr(offset), uintptr(size), 0, nil, nil)
	runtime.KeepAlive(pattern)
	if st != cl.StatusSuccess {
		return errors.Wrapf(st, "clEnqueueFillBuffer(%d bytes at +%d) failed", size, offset)
	}
	return nil
}

func (dd *Driver) CreateProgramWithSource(c cl.Context, source string) (cl.Program, error) {
	if source == "" {
		return 0, errors.Wrapf(cl.StatusInvalidValue, "clCreateProgramWithSource: empty source")
	}
	src := []byte(source)
	srcPtr := &src[0]
	length := uintptr(len(src))
	var errRet int32
	prog := clCreateProgramWithSource(c, 1, &srcPtr, &length, &errRet)
	runtime.KeepAlive(src)
	if st := cl.Status(errRet); st != cl.StatusSuccess {
		return 0, errors.Wrapf(st, "clCreateProgramWithSource failed")
	}
	return prog, nil
}

func (dd *Driver) BuildProgram(p cl.Program, d cl.DeviceID, options string) error {
	var optPtr *byte
	if options != "" {
		optPtr = cString(options)
	}
	if st := clBuildProgram(p, 1, &d, optPtr, 0, 0); st != cl.StatusSuccess {
		return errors.Wrapf(st, "clBuildProgram failed")
	}
	return nil
}

func (dd *Driver) GetProgramBuildLog(p cl.Program, d cl.DeviceID) (string, error) {
	return getInfoString("clGetProgramBuildInfo", func(size uintptr, value unsafe.Pointer, sizeRet *uintptr) cl.Status {
		return clGetProgramBuildInfo(p, d, clProgramBuildLog, size, value, sizeRet)
	})
}

func (dd *Driver) ReleaseProgram(p cl.Program) error {
	if st := clReleaseProgram(p); st != cl.StatusSuccess {
		return errors.Wrapf(st, "clReleaseProgram failed")
	}
	return nil
}

func (dd *Driver) CreateKernel(p cl.Program, name string) (cl.Kernel, error) {
	var errRet int32
	kernel := clCreateKernel(p, cString(name), &errRet)
	if st := cl.Status(errRet); st != cl.StatusSuccess {
		return 0, errors.Wrapf(st, "clCreateKernel(%q) failed", name)
	}
	return kernel, nil
}

func (dd *Driver) ReleaseKernel(k cl.Kernel) error {
	if st := clReleaseKernel(k); st != cl.StatusSuccess {
		return errors.Wrapf(st, "clReleaseKernel failed")
	}
	return nil
}

func (dd *Driver) SetKernelArg(k cl.Kernel, index, size int, value []byte) error {
	var ptr unsafe.Pointer
	if len(value) > 0 {
		ptr = unsafe.Pointer(&value[0])
	}
	st := clSetKernelArg(k, uint32(index), uintptr(size), ptr)
	runtime.KeepAlive(value)
	if st != cl.StatusSuccess {
		return errors.Wrapf(st, "clSetKernelArg(%d) failed", index)
	}
	return nil
}

func (dd *Driver) EnqueueNDRangeKernel(q cl.CommandQueue, k cl.Kernel, workDim int, global, local [3]uint64) error {
	var g, l [3]uintptr
	for i := 0; i < 3; i++ {
		g[i] = uintptr(global[i])
		l[i] = uintptr(local[i])
	}
	st := clEnqueueNDRangeKernel(q, k, uint32(workDim), nil, &g[0], &l[0], 0, nil, nil)
	if st != cl.StatusSuccess {
		return errors.Wrapf(st, "clEnqueueNDRangeKernel(global=%v local=%v) failed", global, local)
	}
	return nil
}

func (dd *Driver) Flush(q cl.CommandQueue) error {
	if st := clFlush(q); st != cl.StatusSuccess {
		return errors.Wrapf(st, "clFlush failed")
	}
	return nil
}

func (dd *Driver) Finish(q cl.CommandQueue) error {
	if st := clFinish(q); st != cl.StatusSuccess {
		return errors.Wrapf(st, "clFinish failed")
	}
	return nil
}
