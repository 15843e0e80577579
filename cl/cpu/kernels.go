package cpu

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/yuckify/gocl/cl"
	"github.com/yuckify/gocl/dtypes"
	"github.com/yuckify/gocl/hostmem"
)

var _ cl.Driver = (*Driver)(nil)

// Item identifies one work-item within a launch. The fields mirror the OpenCL
// work-item built-ins: Global is get_global_id, Local is get_local_id, Group
// is get_group_id and GlobalSize is get_global_size, each per axis.
type Item struct {
	Global     [3]uint64
	Local      [3]uint64
	Group      [3]uint64
	GlobalSize [3]uint64
}

// KernelFunc is the Go implementation of a kernel. It is called once per
// work-item with that item's coordinates and the launch's arguments. Items of
// the same work-group run sequentially on one goroutine, so a KernelFunc may
// use local scratch arguments without synchronization; distinct work-groups
// run concurrently.
type KernelFunc func(item Item, args []Value)

type valueKind int

const (
	valueUnset valueKind = iota
	valueData
	valueLocal
)

// Value is one kernel argument as seen by a KernelFunc. Interpret it with
// ValueAs for scalars and Slice for buffer or local scratch arguments; the
// function's own signature determines which applies, like the parameter list
// of an OpenCL C kernel does.
type Value struct {
	kind      valueKind
	raw       []byte // bytes passed to SetKernelArg
	data      []byte // buffer contents or per-group local scratch
	localSize int
}

// ValueAs decodes v as a scalar argument of type T. It panics if the argument
// was not set with a value of T's size.
func ValueAs[T dtypes.Scalar](v Value) T {
	var zero T
	if v.kind != valueData || len(v.raw) != int(unsafe.Sizeof(zero)) {
		panic(fmt.Sprintf("cpu: kernel argument is not a %d-byte scalar", unsafe.Sizeof(zero)))
	}
	return *(*T)(unsafe.Pointer(&v.raw[0]))
}

// Slice views v, a buffer or local scratch argument, as a slice of T. The
// view aliases the underlying memory: writes through it are writes to the
// buffer. It panics if v holds a plain scalar.
func Slice[T dtypes.Supported](v Value) []T {
	switch v.kind {
	case valueData:
		if v.data == nil {
			panic("cpu: kernel argument is not a buffer")
		}
	case valueLocal:
		// data was attached when the work-group started.
	default:
		panic("cpu: kernel argument was never set")
	}
	var zero T
	n := len(v.data) / int(unsafe.Sizeof(zero))
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&v.data[0])), n)
}

func (d *Driver) SetKernelArg(k cl.Kernel, index int, size int, value []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	kern, ok := d.kernels[k]
	if !ok {
		return errors.Wrapf(cl.StatusInvalidKernel, "SetKernelArg: unknown kernel %#x", uintptr(k))
	}
	if index < 0 {
		return errors.Wrapf(cl.StatusInvalidArgIndex, "SetKernelArg: negative index %d", index)
	}
	if value == nil {
		if size <= 0 {
			return errors.Wrapf(cl.StatusInvalidArgSize, "SetKernelArg: local argument %d has size %d", index, size)
		}
		kern.args[index] = Value{kind: valueLocal, localSize: size}
		return nil
	}
	if size != len(value) {
		return errors.Wrapf(cl.StatusInvalidArgSize, "SetKernelArg: argument %d declares %d bytes but carries %d", index, size, len(value))
	}
	kern.args[index] = Value{kind: valueData, raw: append([]byte(nil), value...)}
	return nil
}

func (d *Driver) EnqueueNDRangeKernel(q cl.CommandQueue, k cl.Kernel, workDim int, global, local [3]uint64) error {
	queue, err := d.queue(q, "EnqueueNDRangeKernel")
	if err != nil {
		return err
	}
	if workDim < 1 || workDim > 3 {
		return errors.Wrapf(cl.StatusInvalidWorkDimension, "EnqueueNDRangeKernel: work dimension %d", workDim)
	}
	var groups [3]uint64
	for i := 0; i < 3; i++ {
		if global[i] == 0 {
			return errors.Wrapf(cl.StatusInvalidGlobalWorkSize, "EnqueueNDRangeKernel: global size %v has a zero extent", global)
		}
		if local[i] == 0 || global[i]%local[i] != 0 {
			return errors.Wrapf(cl.StatusInvalidWorkGroupSize,
				"EnqueueNDRangeKernel: local size %v does not divide global size %v", local, global)
		}
		groups[i] = global[i] / local[i]
	}

	d.mu.Lock()
	kern, ok := d.kernels[k]
	if !ok {
		d.mu.Unlock()
		return errors.Wrapf(cl.StatusInvalidKernel, "EnqueueNDRangeKernel: unknown kernel %#x", uintptr(k))
	}
	args, err := d.snapshotArgsLocked(kern)
	fn := kern.fn
	d.mu.Unlock()
	if err != nil {
		return err
	}

	queue.submit(func() {
		runLaunch(fn, args, global, local, groups)
	})
	return nil
}

// snapshotArgsLocked captures the kernel's current arguments so later
// SetKernelArg calls do not affect an already enqueued launch. Arguments
// whose bytes name a live mem object get the buffer contents attached for
// Slice access. d.mu must be held.
func (d *Driver) snapshotArgsLocked(kern *kernelObj) ([]Value, error) {
	n := 0
	for index := range kern.args {
		if index+1 > n {
			n = index + 1
		}
	}
	args := make([]Value, n)
	for index, v := range kern.args {
		args[index] = v
	}
	for index := range args {
		if args[index].kind == valueUnset {
			return nil, errors.Wrapf(cl.StatusInvalidKernelArgs,
				"EnqueueNDRangeKernel: kernel %q argument %d was never set", kern.name, index)
		}
		if args[index].kind == valueData && len(args[index].raw) == int(unsafe.Sizeof(uintptr(0))) {
			handle := cl.Mem(*(*uintptr)(unsafe.Pointer(&args[index].raw[0])))
			if mem, ok := d.mems[handle]; ok {
				args[index].data = mem.block.Bytes()[:mem.size]
			}
		}
	}
	return args, nil
}

// runLaunch executes one NDRange: work-groups are spread over a pool of
// goroutines, work-items within a group run sequentially.
func runLaunch(fn KernelFunc, args []Value, global, local, groups [3]uint64) {
	total := groups[0] * groups[1] * groups[2]
	workers := uint64(runtime.NumCPU())
	if workers > total {
		workers = total
	}
	perWorker := (total + workers - 1) / workers
	var wg sync.WaitGroup
	for w := uint64(0); w < workers; w++ {
		start := w * perWorker
		end := min(start+perWorker, total)
		if start >= end {
			break
		}
		wg.Add(1)
		go func(start, end uint64) {
			defer wg.Done()
			for g := start; g < end; g++ {
				group := [3]uint64{
					g % groups[0],
					(g / groups[0]) % groups[1],
					g / (groups[0] * groups[1]),
				}
				runGroup(fn, args, group, global, local)
			}
		}(start, end)
	}
	wg.Wait()
}

func runGroup(fn KernelFunc, base []Value, group, global, local [3]uint64) {
	args := base
	var scratch []*hostmem.Block
	for i := range base {
		if base[i].kind != valueLocal {
			continue
		}
		if scratch == nil {
			args = append([]Value(nil), base...)
		}
		block := hostmem.Alloc(base[i].localSize)
		scratch = append(scratch, block)
		args[i].data = block.Bytes()
	}
	item := Item{Group: group, GlobalSize: global}
	for lz := uint64(0); lz < local[2]; lz++ {
		for ly := uint64(0); ly < local[1]; ly++ {
			for lx := uint64(0); lx < local[0]; lx++ {
				item.Local = [3]uint64{lx, ly, lz}
				item.Global = [3]uint64{
					group[0]*local[0] + lx,
					group[1]*local[1] + ly,
					group[2]*local[2] + lz,
				}
				fn(item, args)
			}
		}
	}
	for _, block := range scratch {
		block.Free()
	}
}
