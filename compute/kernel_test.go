package compute

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/yuckify/gocl/cl/cpu"
)

const scaleSource = `
__kernel void scale(__global float *data, const float factor, const int n) {
    int i = get_global_id(0);
    if (i < n) {
        data[i] *= factor;
    }
}
`

const iota2DSource = `
__kernel void iota2d(__global int *out, const int width) {
    int x = get_global_id(0);
    int y = get_global_id(1);
    out[y * width + x] = y * width + x;
}
`

const groupSumSource = `
__kernel void group_sum(__global const int *in, __global int *out, __local int *scratch) {
    int l = get_local_id(0);
    scratch[l] = in[get_global_id(0)];
    barrier(CLK_LOCAL_MEM_FENCE);
    if (l == get_local_size(0) - 1) {
        int sum = 0;
        for (int i = 0; i < get_local_size(0); i++) {
            sum += scratch[i];
        }
        out[get_group_id(0)] = sum;
    }
}
`

// Software implementations of the test kernels above, for runs on the cpu
// driver.
func init() {
	cpu.RegisterKernel("noop", func(item cpu.Item, args []cpu.Value) {})
	cpu.RegisterKernel("scale", func(item cpu.Item, args []cpu.Value) {
		data := cpu.Slice[float32](args[0])
		factor := cpu.ValueAs[float32](args[1])
		n := cpu.ValueAs[int32](args[2])
		if i := item.Global[0]; i < uint64(n) {
			data[i] *= factor
		}
	})
	cpu.RegisterKernel("iota2d", func(item cpu.Item, args []cpu.Value) {
		out := cpu.Slice[int32](args[0])
		width := uint64(cpu.ValueAs[int32](args[1]))
		x, y := item.Global[0], item.Global[1]
		out[y*width+x] = int32(y*width + x)
	})
	cpu.RegisterKernel("group_sum", func(item cpu.Item, args []cpu.Value) {
		in := cpu.Slice[int32](args[0])
		out := cpu.Slice[int32](args[1])
		scratch := cpu.Slice[int32](args[2])
		l := item.Local[0]
		scratch[l] = in[item.Global[0]]
		// Work-items of a group run sequentially, so by the time the last
		// one executes the scratch is fully populated.
		if l == uint64(len(scratch))-1 {
			var sum int32
			for _, v := range scratch {
				sum += v
			}
			out[item.Group[0]] = sum
		}
	})
}

// panicMessage runs fn, which must panic, and returns the panic message.
func panicMessage(t *testing.T, fn func()) string {
	t.Helper()
	var msg string
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, "expected a panic")
			msg = fmt.Sprint(r)
		}()
		fn()
	}()
	return msg
}

func TestKernelScale(t *testing.T) {
	d := getTestDevice(t)
	const n = 64
	in := make([]float32, n)
	for i := range in {
		in[i] = float32(i)
	}
	b := NewBufferFromSlice(d, in)
	b.CopyToDevice()

	p := d.NewProgram(scaleSource)
	k := p.Kernel("scale")
	k.Launch(NewDim(16), NewDim(n), b, float32(0.5), int32(n))
	b.CopyToHost()
	d.Wait()

	for i, got := range b.Data() {
		require.Equal(t, float32(i)*0.5, got)
	}
	require.NoError(t, b.Free())
	require.NoError(t, k.Free())
	require.NoError(t, p.Free())
}

func TestKernelLaunch2D(t *testing.T) {
	d := getTestDevice(t)
	const width, height = 8, 4
	out := NewBuffer[int32](d, width*height)
	out.CopyToDevice()

	p := d.NewProgram(iota2DSource)
	k := p.Kernel("iota2d")
	k.Launch(NewDim(4, 2), NewDim(width, height), out, int32(width))
	out.CopyToHost()
	d.Wait()

	for i, got := range out.Data() {
		require.Equal(t, int32(i), got)
	}
	require.NoError(t, out.Free())
	require.NoError(t, k.Free())
	require.NoError(t, p.Free())
}

func TestKernelLocalScratch(t *testing.T) {
	d := getTestDevice(t)
	const groups, local = 4, 16
	in := make([]int32, groups*local)
	for i := range in {
		in[i] = int32(i + 1)
	}
	src := NewBufferFromSlice(d, in)
	sums := NewBuffer[int32](d, groups)
	src.CopyToDevice()
	sums.CopyToDevice()

	p := d.NewProgram(groupSumSource)
	k := p.Kernel("group_sum")
	k.Launch(NewDim(local), NewDim(groups*local), src, sums, Local[int32](local))
	sums.CopyToHost()
	d.Wait()

	for g := 0; g < groups; g++ {
		var want int32
		for i := 0; i < local; i++ {
			want += int32(g*local + i + 1)
		}
		require.Equal(t, want, sums.At(g))
	}
	require.NoError(t, src.Free())
	require.NoError(t, sums.Free())
	require.NoError(t, k.Free())
	require.NoError(t, p.Free())
}

func TestKernelArgBinding(t *testing.T) {
	driver := newFakeGPU()
	d := NewDevice(WithDriver(driver))
	defer func() { require.NoError(t, d.Close()) }()

	b := NewBuffer[float32](d, 4)
	b.CopyToDevice()
	p := d.NewProgram(noopSource)
	k := p.Kernel("noop")

	k.Launch(NewDim(2), NewDim(4),
		b,
		int32(-5), uint32(6), int64(-7), uint64(8), float32(1.5), float64(2.5),
		ScalarArg(int64(9)),
		Local[float32](128),
		LocalBytes(64),
	)

	bound := driver.args[k.wrapper.kernel]
	require.Len(t, bound, 10)
	require.Equal(t, int(unsafe.Sizeof(uintptr(0))), bound[0].size)
	require.NotNil(t, bound[0].value)
	require.Equal(t, 4, bound[1].size)
	require.Equal(t, 4, bound[2].size)
	require.Equal(t, 8, bound[3].size)
	require.Equal(t, 8, bound[4].size)
	require.Equal(t, 4, bound[5].size)
	require.Equal(t, 8, bound[6].size)
	require.Equal(t, 8, bound[7].size)

	// Local scratch binds a size with no bytes.
	require.Equal(t, 512, bound[8].size)
	require.Nil(t, bound[8].value)
	require.Equal(t, 64, bound[9].size)
	require.Nil(t, bound[9].value)

	// Scalar bytes hold the value itself.
	require.Equal(t, int32(-5), *(*int32)(unsafe.Pointer(&bound[1].value[0])))

	require.Len(t, driver.launches, 1)
	launch := driver.launches[0]
	require.Equal(t, 1, launch.workDim)
	require.Equal(t, [3]uint64{4, 1, 1}, launch.global)
	require.Equal(t, [3]uint64{2, 1, 1}, launch.local)

	// A single work-item launch still has one dimension.
	k.Launch(NewDim(1), NewDim(1), b)
	require.Equal(t, 1, driver.launches[1].workDim)

	// Two dimensions when the global range has two.
	k.Launch(NewDim(2, 2), NewDim(4, 4), b)
	require.Equal(t, 2, driver.launches[2].workDim)

	require.NoError(t, b.Free())
	require.NoError(t, k.Free())
	require.NoError(t, p.Free())
}

func TestKernelLaunchPanics(t *testing.T) {
	driver := newFakeGPU()
	d := NewDevice(WithDriver(driver))
	defer func() { require.NoError(t, d.Close()) }()

	p := d.NewProgram(noopSource)
	k := p.Kernel("noop")

	msg := panicMessage(t, func() { k.Launch(NewDim(16), NewDim(8, 8)) })
	require.Contains(t, msg, "mismatched dimensionality")
	require.Empty(t, driver.launches)

	msg = panicMessage(t, func() { k.Launch(NewDim(4), NewDim(16), "nope") })
	require.Contains(t, msg, "unsupported kernel argument type string")

	require.Panics(t, func() { Local[float32](0) })
	require.Panics(t, func() { LocalBytes(-1) })

	require.NoError(t, k.Free())
	require.NoError(t, p.Free())
}
