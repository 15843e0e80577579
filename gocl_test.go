package gocl_test

import (
	"flag"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yuckify/gocl/cl"
	"github.com/yuckify/gocl/cl/cpu"
	"github.com/yuckify/gocl/compute"
	"k8s.io/klog/v2"

	_ "github.com/yuckify/gocl/cl/opencl"
)

var (
	flagDriver = flag.String("driver", "cpu", "compute driver name to run the test on")
)

func init() {
	klog.InitFlags(nil)
}

const squarePlusOneSource = `
__kernel void square_plus_one(__global float *data, const int n) {
    int i = get_global_id(0);
    if (i < n) {
        float x = data[i];
        data[i] = x * x + 1.0f;
    }
}
`

func init() {
	// Same kernel as registered Go code, so the test also runs on the
	// software driver.
	cpu.RegisterKernel("square_plus_one", func(item cpu.Item, args []cpu.Value) {
		data := cpu.Slice[float32](args[0])
		n := cpu.ValueAs[int32](args[1])
		if i := item.Global[0]; i < uint64(n) {
			x := data[i]
			data[i] = x*x + 1
		}
	})
}

// TestEndToEnd builds and runs a minimal computation f(x) = x^2+1 on the best
// device of the selected driver, exercising the whole stack: driver registry,
// device selection, program build, kernel launch and buffer transfers.
func TestEndToEnd(t *testing.T) {
	driver, err := cl.Get(*flagDriver)
	require.NoErrorf(t, err, "Failed to get driver %q (available: %v)", *flagDriver, cl.Available())
	fmt.Printf("Loaded driver %q\n", driver.Name())

	registry := compute.NewRegistry(driver)
	numDevices, err := registry.NumDevices()
	require.NoError(t, err, "Failed to enumerate devices")
	fmt.Printf("\t- %d device(s) tied for best\n", numDevices)

	device := compute.NewDevice(compute.WithRegistry(registry))
	defer func() { require.NoError(t, device.Close()) }()
	fmt.Printf("Selected %s\n", device)
	fmt.Printf("\t- computeUnits=%d, clock=%dMHz, globalMem=%d bytes\n",
		device.MaxComputeUnits(), device.MaxClockFrequency(), device.GlobalMemorySize())

	program := device.NewProgram(squarePlusOneSource)
	kernel := program.Kernel("square_plus_one")

	inputs := []float32{0.1, 1, 3, 4, 5, 6}
	wants := []float32{1.01, 2, 10, 17, 26, 37}
	buf := compute.NewBufferFromSlice(device, inputs)
	buf.CopyToDevice()
	kernel.Launch(compute.NewDim(2), compute.NewDim(len(inputs)), buf, int32(len(inputs)))
	buf.CopyToHost()
	device.Wait()

	fmt.Printf("f(x) = x^2 + 1:\n")
	for ii, input := range inputs {
		fmt.Printf("\tf(x=%g) = %g\n", input, buf.At(ii))
		require.InDelta(t, wants[ii], buf.At(ii), 0.001)
	}

	require.NoError(t, buf.Free())
	require.NoError(t, kernel.Free())
	require.NoError(t, program.Free())
}
