package compute

import (
	"runtime"
	"unsafe"

	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"

	"github.com/yuckify/gocl/cl"
	"github.com/yuckify/gocl/dtypes"
)

// KernelArg is one bound kernel argument: a device buffer handle, a scalar
// value, or a local scratch size. Buffers convert with Buffer.Arg, scalars
// with ScalarArg, scratch with Local or LocalBytes. Kernel.Launch also
// accepts *Buffer values and the plain scalar types directly.
type KernelArg struct {
	size  int
	value []byte // nil for local scratch
}

func memArg(mem cl.Mem) KernelArg {
	h := uintptr(mem)
	value := make([]byte, unsafe.Sizeof(h))
	*(*uintptr)(unsafe.Pointer(&value[0])) = h
	return KernelArg{size: len(value), value: value}
}

// ScalarArg builds a kernel argument from a scalar value. The kernel
// parameter must have the exact matching OpenCL C type: int for int32, uint
// for uint32, long for int64, ulong for uint64, float and double for
// float32 and float64.
func ScalarArg[T dtypes.Scalar](v T) KernelArg {
	size := int(unsafe.Sizeof(v))
	value := make([]byte, size)
	*(*T)(unsafe.Pointer(&value[0])) = v
	return KernelArg{size: size, value: value}
}

// Local builds a local scratch argument of count elements of type T. The
// scratch is allocated per work-group and is only visible within it.
func Local[T dtypes.Supported](count int) KernelArg {
	if count <= 0 {
		exceptions.Panicf("compute.Local: count must be positive, got %d", count)
	}
	var zero T
	return KernelArg{size: count * int(unsafe.Sizeof(zero))}
}

// LocalBytes builds a local scratch argument of n bytes per work-group.
func LocalBytes(n int) KernelArg {
	if n <= 0 {
		exceptions.Panicf("compute.LocalBytes: size must be positive, got %d", n)
	}
	return KernelArg{size: n}
}

// bufferArg is satisfied by *Buffer of every element type.
type bufferArg interface {
	Arg() KernelArg
}

func toKernelArg(a any) KernelArg {
	switch v := a.(type) {
	case KernelArg:
		return v
	case bufferArg:
		return v.Arg()
	case int32:
		return ScalarArg(v)
	case uint32:
		return ScalarArg(v)
	case int64:
		return ScalarArg(v)
	case uint64:
		return ScalarArg(v)
	case float32:
		return ScalarArg(v)
	case float64:
		return ScalarArg(v)
	}
	exceptions.Panicf("compute: unsupported kernel argument type %T; pass a *Buffer, a KernelArg (ScalarArg, Local, LocalBytes) or one of int32, uint32, int64, uint64, float32, float64", a)
	return KernelArg{}
}

// Kernel is a callable entry point of a built Program.
type Kernel struct {
	device  *Device
	name    string
	wrapper *kernelWrapper
}

type kernelWrapper struct {
	device *Device
	kernel cl.Kernel
}

func (w *kernelWrapper) release() error {
	if w == nil || w.kernel == 0 {
		return nil
	}
	err := w.device.driver.ReleaseKernel(w.kernel)
	w.kernel = 0
	return err
}

func cleanupKernel(w *kernelWrapper) {
	if err := w.release(); err != nil {
		klog.Errorf("compute.Kernel release failed: %v", err)
	}
}

// Kernel looks up the named entry point of the program. An unknown name is
// fatal.
func (p *Program) Kernel(name string) *Kernel {
	handle, err := p.device.driver.CreateKernel(p.wrapper.prog, name)
	if err != nil {
		exceptions.Panicf("compute: failed to create kernel %q on %q: %+v", name, p.device.name, err)
	}
	k := &Kernel{device: p.device, name: name, wrapper: &kernelWrapper{device: p.device, kernel: handle}}
	runtime.AddCleanup(k, cleanupKernel, k.wrapper)
	return k
}

// Name returns the kernel's entry point name.
func (k *Kernel) Name() string { return k.name }

// Launch binds args to argument slots 0 through len(args)-1 and enqueues the
// kernel over global work-items in work-groups shaped by local. local and
// global must have the same dimensionality and each local extent must divide
// the corresponding global extent. The launch is asynchronous; Device.Wait
// observes completion.
func (k *Kernel) Launch(local, global Dim, args ...any) {
	if local.Dimensions() != global.Dimensions() {
		exceptions.Panicf("compute: kernel %q launched with mismatched dimensionality: local %s is %dD, global %s is %dD",
			k.name, local, local.Dimensions(), global, global.Dimensions())
	}
	for i, a := range args {
		arg := toKernelArg(a)
		if err := k.device.driver.SetKernelArg(k.wrapper.kernel, i, arg.size, arg.value); err != nil {
			exceptions.Panicf("compute: failed to bind argument %d of kernel %q: %+v", i, k.name, err)
		}
	}
	workDim := max(global.span(), local.span())
	err := k.device.driver.EnqueueNDRangeKernel(k.device.queue, k.wrapper.kernel, workDim, global.Array(), local.Array())
	if err != nil {
		exceptions.Panicf("compute: failed to launch kernel %q (global %s, local %s): %+v", k.name, global, local, err)
	}
}

// Free releases the kernel object. Free is idempotent and also runs when
// the Kernel is garbage collected.
func (k *Kernel) Free() error {
	defer runtime.KeepAlive(k)
	return k.wrapper.release()
}
