//go:build linux || darwin

package opencl

import (
	"os"
	"path"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/yuckify/gocl/cl"
)

// LibraryPathEnv names extra directories, colon separated, searched for the
// OpenCL library before the system locations.
const LibraryPathEnv = "GOCL_LIBRARY_PATH"

var (
	loadOnce sync.Once
	loadErr  error
)

func candidatePaths() []string {
	baseNames := []string{"libOpenCL.so.1", "libOpenCL.so"}
	system := baseNames
	if runtime.GOOS == "darwin" {
		baseNames = []string{"libOpenCL.dylib", "OpenCL"}
		system = []string{"/System/Library/Frameworks/OpenCL.framework/OpenCL"}
	}
	var candidates []string
	for _, dir := range strings.Split(os.Getenv(LibraryPathEnv), ":") {
		if dir == "" {
			continue
		}
		for _, name := range baseNames {
			candidates = append(candidates, path.Join(dir, name))
		}
	}
	return append(candidates, system...)
}

// Load makes sure the OpenCL library is loaded and its entry points bound.
// It is safe to call from multiple goroutines; the first call does the work.
func Load() error {
	loadOnce.Do(func() {
		candidates := candidatePaths()
		var lib uintptr
		for _, name := range candidates {
			lib, loadErr = purego.Dlopen(name, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
			if loadErr == nil {
				klog.V(1).Infof("opencl driver: loaded %s", name)
				break
			}
		}
		if loadErr != nil {
			loadErr = errors.WithMessagef(loadErr, "failed to load an OpenCL library, tried %v (set %s to add search directories)",
				candidates, LibraryPathEnv)
			return
		}
		registerFuncs(lib)
	})
	return loadErr
}

func init() {
	if err := Load(); err != nil {
		klog.V(1).Infof("opencl driver unavailable: %v", err)
		return
	}
	cl.Register(&Driver{}, 100)
}

// The raw OpenCL entry points, bound by registerFuncs. Signatures follow the
// C prototypes with handles and size_t values as uintptr.
var (
	clGetPlatformIDs    func(numEntries uint32, platforms *cl.PlatformID, numPlatforms *uint32) cl.Status
	clGetPlatformInfo   func(platform cl.PlatformID, param uint32, size uintptr, value unsafe.Pointer, sizeRet *uintptr) cl.Status
	clGetDeviceIDs      func(platform cl.PlatformID, deviceType uint64, numEntries uint32, devices *cl.DeviceID, numDevices *uint32) cl.Status
	clGetDeviceInfo     func(device cl.DeviceID, param uint32, size uintptr, value unsafe.Pointer, sizeRet *uintptr) cl.Status
	clCreateContext     func(properties *uintptr, numDevices uint32, devices *cl.DeviceID, notify uintptr, userData uintptr, errRet *int32) cl.Context
	clReleaseContext    func(ctx cl.Context) cl.Status

	clCreateCommandQueue  func(ctx cl.Context, device cl.DeviceID, properties uint64, errRet *int32) cl.CommandQueue
	clReleaseCommandQueue func(queue cl.CommandQueue) cl.Status

	clCreateBuffer     func(ctx cl.Context, flags uint64, size uintptr, hostPtr unsafe.Pointer, errRet *int32) cl.Mem
	clReleaseMemObject func(mem cl.Mem) cl.Status
	clGetMemObjectInfo func(mem cl.Mem, param uint32, size uintptr, value unsafe.Pointer, sizeRet *uintptr) cl.Status

	clEnqueueReadBuffer  func(queue cl.CommandQueue, mem cl.Mem, blocking uint32, offset, size uintptr, ptr unsafe.Pointer, numEvents uint32, waitList *uintptr, event *uintptr) cl.Status
	clEnqueueWriteBuffer func(queue cl.CommandQueue, mem cl.Mem, blocking uint32, offset, size uintptr, ptr unsafe.Pointer, numEvents uint32, waitList *uintptr, event *uintptr) cl.Status
	clEnqueueCopyBuffer  func(queue cl.CommandQueue, src, dst cl.Mem, srcOffset, dstOffset, size uintptr, numEvents uint32, waitList *uintptr, event *uintptr) cl.Status
	clEnqueueFillBuffer  func(queue cl.CommandQueue, mem cl.Mem, pattern unsafe.Pointer, patternSize, offset, size uintptr, numEvents uint32, waitList *uintptr, event *uintptr) cl.Status

	clCreateProgramWithSource func(ctx cl.Context, count uint32, strings **byte, lengths *uintptr, errRet *int32) cl.Program
	clBuildProgram            func(prog cl.Program, numDevices uint32, devices *cl.DeviceID, options *byte, notify uintptr, userData uintptr) cl.Status
	clGetProgramBuildInfo     func(prog cl.Program, device cl.DeviceID, param uint32, size uintptr, value unsafe.Pointer, sizeRet *uintptr) cl.Status
	clReleaseProgram          func(prog cl.Program) cl.Status

	clCreateKernel         func(prog cl.Program, name *byte, errRet *int32) cl.Kernel
	clReleaseKernel        func(kernel cl.Kernel) cl.Status
	clSetKernelArg         func(kernel cl.Kernel, index uint32, size uintptr, value unsafe.Pointer) cl.Status
	clEnqueueNDRangeKernel func(queue cl.CommandQueue, kernel cl.Kernel, workDim uint32, globalOffset, globalSize, localSize *uintptr, numEvents uint32, waitList *uintptr, event *uintptr) cl.Status

	clFlush  func(queue cl.CommandQueue) cl.Status
	clFinish func(queue cl.CommandQueue) cl.Status
)

func registerFuncs(lib uintptr) {
	purego.RegisterLibFunc(&clGetPlatformIDs, lib, "clGetPlatformIDs")
	purego.RegisterLibFunc(&clGetPlatformInfo, lib, "clGetPlatformInfo")
	purego.RegisterLibFunc(&clGetDeviceIDs, lib, "clGetDeviceIDs")
	purego.RegisterLibFunc(&clGetDeviceInfo, lib, "clGetDeviceInfo")
	purego.RegisterLibFunc(&clCreateContext, lib, "clCreateContext")
	purego.RegisterLibFunc(&clReleaseContext, lib, "clReleaseContext")
	purego.RegisterLibFunc(&clCreateCommandQueue, lib, "clCreateCommandQueue")
	purego.RegisterLibFunc(&clReleaseCommandQueue, lib, "clReleaseCommandQueue")
	purego.RegisterLibFunc(&clCreateBuffer, lib, "clCreateBuffer")
	purego.RegisterLibFunc(&clReleaseMemObject, lib, "clReleaseMemObject")
	purego.RegisterLibFunc(&clGetMemObjectInfo, lib, "clGetMemObjectInfo")
	purego.RegisterLibFunc(&clEnqueueReadBuffer, lib, "clEnqueueReadBuffer")
	purego.RegisterLibFunc(&clEnqueueWriteBuffer, lib, "clEnqueueWriteBuffer")
	purego.RegisterLibFunc(&clEnqueueCopyBuffer, lib, "clEnqueueCopyBuffer")
	purego.RegisterLibFunc(&clEnqueueFillBuffer, lib, "clEnqueueFillBuffer")
	purego.RegisterLibFunc(&clCreateProgramWithSource, lib, "clCreateProgramWithSource")
	purego.RegisterLibFunc(&clBuildProgram, lib, "clBuildProgram")
	purego.RegisterLibFunc(&clGetProgramBuildInfo, lib, "clGetProgramBuildInfo")
	purego.RegisterLibFunc(&clReleaseProgram, lib, "clReleaseProgram")
	purego.RegisterLibFunc(&clCreateKernel, lib, "clCreateKernel")
	purego.RegisterLibFunc(&clReleaseKernel, lib, "clReleaseKernel")
	purego.RegisterLibFunc(&clSetKernelArg, lib, "clSetKernelArg")
	purego.RegisterLibFunc(&clEnqueueNDRangeKernel, lib, "clEnqueueNDRangeKernel")
	purego.RegisterLibFunc(&clFlush, lib, "clFlush")
	purego.RegisterLibFunc(&clFinish, lib, "clFinish")
}
