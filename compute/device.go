package compute

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"

	"github.com/yuckify/gocl/cl"
)

// Device owns a context and an in-order command queue on one GPU. Buffers,
// programs and kernels created from it live on that queue. Device is safe
// to share across goroutines for queries, but enqueueing work from several
// goroutines needs external ordering if the order matters.
type Device struct {
	driver   cl.Driver
	platform cl.PlatformID
	id       cl.DeviceID
	ctx      cl.Context
	queue    cl.CommandQueue

	name, vendor string

	errorCallback atomic.Pointer[func(string)]
}

// DeviceOption configures NewDevice.
type DeviceOption func(*deviceConfig)

type deviceConfig struct {
	registry *Registry
	driver   cl.Driver
	interop  *cl.GLInterop
}

// WithRegistry selects the device through the given Registry instead of
// DefaultRegistry.
func WithRegistry(r *Registry) DeviceOption {
	return func(c *deviceConfig) {
		c.registry = r
	}
}

// WithDriver selects the device through a one-off Registry over the given
// driver with the default vendor allow-list.
func WithDriver(d cl.Driver) DeviceOption {
	return func(c *deviceConfig) {
		c.driver = d
	}
}

// WithGLInterop requests a context sharing objects with the given GL
// context. Creation fails hard when the driver cannot attach it.
func WithGLInterop(interop *cl.GLInterop) DeviceOption {
	return func(c *deviceConfig) {
		c.interop = interop
	}
}

// NewDevice picks the best available GPU and opens a context and an in-order
// command queue on it. It panics when no device is available or the driver
// refuses; Close releases the device again.
func NewDevice(opts ...DeviceOption) *Device {
	var config deviceConfig
	for _, opt := range opts {
		opt(&config)
	}
	registry := config.registry
	if registry == nil && config.driver != nil {
		registry = NewRegistry(config.driver)
	}
	if registry == nil {
		var err error
		registry, err = DefaultRegistry()
		if err != nil {
			exceptions.Panicf("compute.NewDevice: %+v", err)
		}
	}

	platform, id, err := registry.Select()
	if err != nil {
		exceptions.Panicf("compute.NewDevice: %+v", err)
	}
	d := &Device{driver: registry.Driver(), platform: platform, id: id}

	// Names are informational: failure to fetch them does not fail the device.
	d.name, err = d.driver.GetDeviceInfoString(id, cl.DeviceInfoName)
	if err != nil {
		klog.Errorf("Failed to retrieve device name: %v", err)
	}
	d.vendor, err = d.driver.GetDeviceInfoString(id, cl.DeviceInfoVendor)
	if err != nil {
		klog.Errorf("Failed to retrieve device vendor: %v", err)
	}

	d.ctx, err = d.driver.CreateContext(platform, id, d.dispatchError, config.interop)
	if err != nil {
		exceptions.Panicf("compute.NewDevice: failed to create context on %q: %+v", d.name, err)
	}
	d.queue, err = d.driver.CreateCommandQueue(d.ctx, id)
	if err != nil {
		releaseErr := d.driver.ReleaseContext(d.ctx)
		if releaseErr != nil {
			klog.Errorf("Failed to release context after queue creation failed: %v", releaseErr)
		}
		exceptions.Panicf("compute.NewDevice: failed to create command queue on %q: %+v", d.name, err)
	}

	devicesAlive.Add(1)
	runtime.SetFinalizer(d, finalizeDevice)
	return d
}

func finalizeDevice(d *Device) {
	if err := d.Close(); err != nil {
		klog.Errorf("compute.Device.Close failed: %v", err)
	}
}

// dispatchError routes asynchronous context errors to the registered
// callback, or to the log when none is set.
func (d *Device) dispatchError(errInfo string, _ []byte) {
	if fn := d.errorCallback.Load(); fn != nil && *fn != nil {
		(*fn)(errInfo)
		return
	}
	klog.Errorf("compute: context error on device %q: %s", d.name, errInfo)
}

// SetErrorCallback installs fn to receive asynchronous context errors from
// the driver. A nil fn restores the default, which logs them. The callback
// may be invoked from a driver-owned thread and must not block.
func (d *Device) SetErrorCallback(fn func(errInfo string)) {
	if fn == nil {
		d.errorCallback.Store(nil)
		return
	}
	d.errorCallback.Store(&fn)
}

// Name returns the device name as reported by the driver.
func (d *Device) Name() string { return d.name }

// Vendor returns the device vendor string as reported by the driver.
func (d *Device) Vendor() string { return d.vendor }

// String implements fmt.Stringer.
func (d *Device) String() string {
	if d.ctx == 0 {
		return "Device[closed]"
	}
	return fmt.Sprintf("Device[%q, vendor=%q, driver=%q]", d.name, d.vendor, d.driver.Name())
}

func (d *Device) infoUint(param cl.DeviceInfo, what string) uint32 {
	v, err := d.driver.GetDeviceInfoUint(d.id, param)
	if err != nil {
		exceptions.Panicf("compute: failed to query %s of device %q: %+v", what, d.name, err)
	}
	return v
}

func (d *Device) infoUlong(param cl.DeviceInfo, what string) uint64 {
	v, err := d.driver.GetDeviceInfoUlong(d.id, param)
	if err != nil {
		exceptions.Panicf("compute: failed to query %s of device %q: %+v", what, d.name, err)
	}
	return v
}

// MaxComputeUnits returns the number of parallel compute units.
func (d *Device) MaxComputeUnits() uint32 {
	return d.infoUint(cl.DeviceInfoMaxComputeUnits, "compute units")
}

// MaxClockFrequency returns the maximum clock frequency in MHz.
func (d *Device) MaxClockFrequency() uint32 {
	return d.infoUint(cl.DeviceInfoMaxClockFrequency, "clock frequency")
}

// GlobalMemorySize returns the size of the device's global memory in bytes.
func (d *Device) GlobalMemorySize() uint64 {
	return d.infoUlong(cl.DeviceInfoGlobalMemSize, "global memory size")
}

// LocalMemorySize returns the size of one work-group's local memory in bytes.
func (d *Device) LocalMemorySize() uint64 {
	return d.infoUlong(cl.DeviceInfoLocalMemSize, "local memory size")
}

// MaxWorkGroupSize returns the maximum number of work-items of one
// work-group.
func (d *Device) MaxWorkGroupSize() uint64 {
	return d.infoUlong(cl.DeviceInfoMaxWorkGroupSize, "work-group size")
}

// MaxLocalWorkItems returns the per-axis work-group limits as a Dim.
func (d *Device) MaxLocalWorkItems() Dim {
	sizes, err := d.driver.GetDeviceInfoWorkItemSizes(d.id)
	if err != nil {
		exceptions.Panicf("compute: failed to query work-item sizes of device %q: %+v", d.name, err)
	}
	return Dim{X: sizes[0], Y: sizes[1], Z: sizes[2]}
}

// Wait blocks until everything enqueued on the device's queue so far has
// completed: pending transfers have landed and kernel launches have run.
func (d *Device) Wait() {
	if err := d.driver.Flush(d.queue); err != nil {
		exceptions.Panicf("compute: flush failed on device %q: %+v", d.name, err)
	}
	if err := d.driver.Finish(d.queue); err != nil {
		exceptions.Panicf("compute: finish failed on device %q: %+v", d.name, err)
	}
}

// Close releases the queue and context. It is idempotent and is also invoked
// by the garbage collector if the Device becomes unreachable while open.
// Buffers, programs and kernels created from the device must not be used
// afterwards.
func (d *Device) Close() error {
	if d.ctx == 0 {
		return nil
	}
	defer runtime.KeepAlive(d)
	var firstErr error
	if err := d.driver.ReleaseCommandQueue(d.queue); err != nil {
		klog.Errorf("compute: failed to release command queue of %q: %v", d.name, err)
		firstErr = err
	}
	if err := d.driver.ReleaseContext(d.ctx); err != nil {
		klog.Errorf("compute: failed to release context of %q: %v", d.name, err)
		if firstErr == nil {
			firstErr = err
		}
	}
	d.queue = 0
	d.ctx = 0
	devicesAlive.Add(-1)
	return firstErr
}
