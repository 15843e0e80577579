package compute

// Common initialization and testing tools for all test files.

import (
	"flag"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"

	"github.com/yuckify/gocl/cl"
	_ "github.com/yuckify/gocl/cl/opencl"
)

var flagDriver = flag.String("driver", "cpu", "compute driver to run tests on")

func init() {
	klog.InitFlags(nil)
}

// getTestDevice opens a device on the driver selected with -driver.
// It exits the test if the driver is not available.
func getTestDevice(t *testing.T) *Device {
	driver, err := cl.Get(*flagDriver)
	require.NoErrorf(t, err, "Driver %q not available", *flagDriver)
	device := NewDevice(WithDriver(driver))
	fmt.Printf("Testing on %s\n", device)
	t.Cleanup(func() { require.NoError(t, device.Close()) })
	return device
}

// requireCPUDriver skips tests that rely on the software driver's hooks when
// running against real hardware.
func requireCPUDriver(t *testing.T) {
	if *flagDriver != "cpu" {
		t.Skipf("test requires the cpu driver, running with -driver=%s", *flagDriver)
	}
}
