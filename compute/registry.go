package compute

import (
	"slices"
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/yuckify/gocl/cl"
)

// DefaultVendors is the vendor allow-list used when a Registry is built
// without WithVendors. Platforms reporting any other vendor string are
// skipped during discovery. "GOCL" is the software driver's vendor.
var DefaultVendors = []string{
	"NVIDIA Corporation",
	"Advanced Micro Devices, Inc.",
	"Intel(R) Corporation",
	"Apple",
	"GOCL",
}

// Registry selects the platform and GPU devices of a driver and hands them
// out. Discovery picks the first platform whose vendor is in the allow-list
// and scores that platform's GPU devices by the product of compute units and
// clock frequency. All devices tied for the highest score are kept; Select
// returns them round-robin so that several workers spread over equally
// capable GPUs. Discovery runs once, on the first Select.
type Registry struct {
	driver  cl.Driver
	vendors []string

	mu        sync.Mutex
	populated bool
	platform  cl.PlatformID
	best      []cl.DeviceID
	cursor    int
}

// RegistryOption configures NewRegistry.
type RegistryOption func(*Registry)

// WithVendors replaces the vendor allow-list. Matching is by exact vendor
// string as the platform reports it.
func WithVendors(vendors ...string) RegistryOption {
	return func(r *Registry) {
		r.vendors = vendors
	}
}

// NewRegistry builds a Registry over the given driver.
func NewRegistry(driver cl.Driver, opts ...RegistryOption) *Registry {
	r := &Registry{driver: driver, vendors: DefaultVendors}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
	defaultRegistryErr  error
)

// DefaultRegistry returns the process-wide Registry over the highest
// priority registered driver. It fails when no driver package was imported.
func DefaultRegistry() (*Registry, error) {
	defaultRegistryOnce.Do(func() {
		driver, err := cl.Default()
		if err != nil {
			defaultRegistryErr = err
			return
		}
		defaultRegistry = NewRegistry(driver)
	})
	return defaultRegistry, defaultRegistryErr
}

// Driver returns the driver the Registry discovers devices on.
func (r *Registry) Driver() cl.Driver {
	return r.driver
}

// Select returns the platform and device the next user should run on,
// cycling through the devices tied for the highest score. The first call
// performs discovery.
func (r *Registry) Select() (cl.PlatformID, cl.DeviceID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.populated {
		if err := r.populateLocked(); err != nil {
			return 0, 0, err
		}
	}
	if len(r.best) == 0 {
		return 0, 0, errors.Errorf("no usable GPU device on platform %#x of driver %q",
			uintptr(r.platform), r.driver.Name())
	}
	device := r.best[r.cursor]
	r.cursor = (r.cursor + 1) % len(r.best)
	return r.platform, device, nil
}

// NumDevices returns how many devices are tied for best and being cycled
// through. The first call performs discovery.
func (r *Registry) NumDevices() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.populated {
		if err := r.populateLocked(); err != nil {
			return 0, err
		}
	}
	return len(r.best), nil
}

func (r *Registry) populateLocked() error {
	platforms, err := r.driver.GetPlatformIDs()
	if err != nil {
		return errors.WithMessagef(err, "failed to enumerate platforms on driver %q", r.driver.Name())
	}
	var platform cl.PlatformID
	found := false
	for _, p := range platforms {
		vendor, err := r.driver.GetPlatformInfo(p, cl.PlatformVendor)
		if err != nil {
			return errors.WithMessagef(err, "failed to query vendor of platform %#x", uintptr(p))
		}
		if slices.Contains(r.vendors, vendor) {
			klog.V(1).Infof("compute: selected platform %#x, vendor %q", uintptr(p), vendor)
			platform = p
			found = true
			break
		}
		klog.V(1).Infof("compute: skipping platform %#x, vendor %q not in allow-list", uintptr(p), vendor)
	}
	if !found {
		return errors.Errorf("no platform of driver %q matches the vendor allow-list %v",
			r.driver.Name(), r.vendors)
	}
	devices, err := r.driver.GetDeviceIDs(platform, cl.DeviceTypeGPU)
	if err != nil {
		return errors.WithMessagef(err, "failed to enumerate GPU devices of platform %#x", uintptr(platform))
	}
	var best []cl.DeviceID
	var bestScore uint64
	for _, device := range devices {
		units, err := r.driver.GetDeviceInfoUint(device, cl.DeviceInfoMaxComputeUnits)
		if err != nil {
			return errors.WithMessagef(err, "failed to query compute units of device %#x", uintptr(device))
		}
		mhz, err := r.driver.GetDeviceInfoUint(device, cl.DeviceInfoMaxClockFrequency)
		if err != nil {
			return errors.WithMessagef(err, "failed to query clock frequency of device %#x", uintptr(device))
		}
		score := uint64(units) * uint64(mhz)
		klog.V(1).Infof("compute: device %#x units=%d clock=%dMHz score=%d",
			uintptr(device), units, mhz, score)
		switch {
		case score > bestScore:
			bestScore = score
			best = append(best[:0], device)
		case score == bestScore && bestScore > 0:
			best = append(best, device)
		}
	}
	r.platform = platform
	r.best = best
	r.populated = true
	return nil
}
