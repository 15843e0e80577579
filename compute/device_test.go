package compute

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yuckify/gocl/cl"
	"github.com/yuckify/gocl/cl/cpu"
)

func newFakeGPU() *fakeDriver {
	return newFakeDriver(fakePlatform{vendor: "GOCL", devices: []fakeDevice{
		{name: "FakeGPU", vendor: "GOCL", units: 16, mhz: 1200},
	}})
}

func TestNewDeviceLifecycle(t *testing.T) {
	driver := newFakeGPU()
	before := DevicesAlive()
	d := NewDevice(WithDriver(driver))
	require.Equal(t, before+1, DevicesAlive())
	require.Equal(t, "FakeGPU", d.Name())
	require.Equal(t, "GOCL", d.Vendor())
	require.Contains(t, d.String(), "FakeGPU")
	require.Len(t, driver.contexts, 1)
	require.Len(t, driver.queues, 1)

	require.NoError(t, d.Close())
	require.Equal(t, before, DevicesAlive())
	require.Empty(t, driver.contexts)
	require.Empty(t, driver.queues)
	require.Equal(t, "Device[closed]", d.String())

	// Close is idempotent.
	require.NoError(t, d.Close())
	require.Equal(t, before, DevicesAlive())
}

func TestNewDevicePicksBestDevice(t *testing.T) {
	driver := newFakeDriver(fakePlatform{vendor: "GOCL", devices: []fakeDevice{
		{name: "slow", vendor: "GOCL", units: 2, mhz: 100},
		{name: "fast", vendor: "GOCL", units: 32, mhz: 1500},
	}})
	d := NewDevice(WithDriver(driver))
	defer func() { require.NoError(t, d.Close()) }()
	require.Equal(t, "fast", d.Name())
}

func TestNewDeviceSharedRegistryRoundRobin(t *testing.T) {
	driver := newFakeDriver(fakePlatform{vendor: "GOCL", devices: []fakeDevice{
		{name: "a", vendor: "GOCL", units: 16, mhz: 1200},
		{name: "b", vendor: "GOCL", units: 24, mhz: 800},
	}})
	r := NewRegistry(driver)
	d1 := NewDevice(WithRegistry(r))
	d2 := NewDevice(WithRegistry(r))
	defer func() {
		require.NoError(t, d1.Close())
		require.NoError(t, d2.Close())
	}()
	require.Equal(t, "a", d1.Name())
	require.Equal(t, "b", d2.Name())
}

func TestNewDevicePanicsWithoutDevices(t *testing.T) {
	require.Panics(t, func() { NewDevice(WithDriver(newFakeDriver())) })
}

func TestNewDeviceGLInteropRejected(t *testing.T) {
	// The fake driver cannot attach GL handles, so creation fails hard.
	driver := newFakeGPU()
	require.Panics(t, func() {
		NewDevice(WithDriver(driver), WithGLInterop(&cl.GLInterop{GLContext: 1, Display: 2}))
	})
}

func TestDeviceInfoQueries(t *testing.T) {
	driver := newFakeGPU()
	d := NewDevice(WithDriver(driver))
	defer func() { require.NoError(t, d.Close()) }()
	require.Equal(t, uint32(16), d.MaxComputeUnits())
	require.Equal(t, uint32(1200), d.MaxClockFrequency())
	require.Equal(t, uint64(1<<30), d.GlobalMemorySize())
	require.Equal(t, uint64(32<<10), d.LocalMemorySize())
	require.Equal(t, uint64(256), d.MaxWorkGroupSize())
	require.Equal(t, Dim{X: 256, Y: 256, Z: 64}, d.MaxLocalWorkItems())
}

func TestDeviceWait(t *testing.T) {
	driver := newFakeGPU()
	d := NewDevice(WithDriver(driver))
	defer func() { require.NoError(t, d.Close()) }()
	d.Wait()
	require.Equal(t, 1, driver.flushCalls)
	require.Equal(t, 1, driver.finishCalls)
}

func TestDeviceErrorCallback(t *testing.T) {
	driver := newFakeGPU()
	d := NewDevice(WithDriver(driver))
	defer func() { require.NoError(t, d.Close()) }()

	// Without a callback errors only go to the log.
	require.NoError(t, driver.raiseContextError(d.ctx, "dropped on the log"))

	var got []string
	d.SetErrorCallback(func(errInfo string) { got = append(got, errInfo) })
	require.NoError(t, driver.raiseContextError(d.ctx, "first"))
	require.NoError(t, driver.raiseContextError(d.ctx, "second"))
	require.Equal(t, []string{"first", "second"}, got)

	// nil restores the default.
	d.SetErrorCallback(nil)
	require.NoError(t, driver.raiseContextError(d.ctx, "third"))
	require.Equal(t, []string{"first", "second"}, got)
}

func TestDeviceErrorCallbackOnSoftwareDriver(t *testing.T) {
	requireCPUDriver(t)
	d := getTestDevice(t)
	var got string
	d.SetErrorCallback(func(errInfo string) { got = errInfo })
	require.NoError(t, cpu.Default().RaiseContextError(d.ctx, "fault at address 0xdead"))
	require.Equal(t, "fault at address 0xdead", got)
}

func TestDeviceInfoOnDriver(t *testing.T) {
	d := getTestDevice(t)
	require.NotZero(t, d.MaxComputeUnits())
	require.NotZero(t, d.MaxWorkGroupSize())
	require.NotZero(t, d.GlobalMemorySize())
	require.GreaterOrEqual(t, d.MaxLocalWorkItems().Total(), uint64(1))
	d.Wait()
}
