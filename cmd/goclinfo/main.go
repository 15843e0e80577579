// goclinfo lists the platforms and devices visible to the registered compute
// drivers, similar to the clinfo tool, and shows which device the compute
// layer would pick on each driver.
package main

import (
	"flag"
	"fmt"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/yuckify/gocl/cl"
	_ "github.com/yuckify/gocl/cl/cpu"
	_ "github.com/yuckify/gocl/cl/opencl"
	"github.com/yuckify/gocl/compute"
)

var flagDriver = flag.String("driver", "",
	"Restrict the listing to one driver, e.g. \"opencl\" or \"cpu\". Empty lists every registered driver.")

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	names := cl.Available()
	if *flagDriver != "" {
		names = []string{*flagDriver}
	}
	if len(names) == 0 {
		klog.Fatal("No compute drivers registered. The opencl driver needs a loadable OpenCL library.")
	}
	for _, name := range names {
		driver, err := cl.Get(name)
		if err != nil {
			klog.Fatal(err)
		}
		if err := listDriver(driver); err != nil {
			klog.Fatal(err)
		}
	}
}

func listDriver(driver cl.Driver) error {
	fmt.Printf("Driver %q:\n", driver.Name())
	platforms, err := driver.GetPlatformIDs()
	if err != nil {
		return errors.WithMessagef(err, "failed to enumerate platforms of driver %q", driver.Name())
	}
	if len(platforms) == 0 {
		fmt.Printf("  No platforms.\n")
		return nil
	}
	for pi, platform := range platforms {
		fmt.Printf("  Platform #%d: %s, %s (%s)\n", pi,
			platformInfo(driver, platform, cl.PlatformName),
			platformInfo(driver, platform, cl.PlatformVendor),
			platformInfo(driver, platform, cl.PlatformVersion))
		devices, err := driver.GetDeviceIDs(platform, cl.DeviceTypeAll)
		if err != nil {
			return errors.WithMessagef(err, "failed to enumerate devices of platform #%d", pi)
		}
		if len(devices) == 0 {
			fmt.Printf("    No devices.\n")
			continue
		}
		for di, device := range devices {
			printDevice(driver, di, device)
		}
	}
	printSelection(driver)
	return nil
}

// platformInfo returns the query result or a placeholder, so one unsupported
// query does not abort the listing.
func platformInfo(driver cl.Driver, p cl.PlatformID, param cl.PlatformInfo) string {
	s, err := driver.GetPlatformInfo(p, param)
	if err != nil {
		klog.V(1).Infof("platform info query %#x failed: %v", uint32(param), err)
		return "n/a"
	}
	return s
}

func deviceInfo(driver cl.Driver, d cl.DeviceID, param cl.DeviceInfo) string {
	s, err := driver.GetDeviceInfoString(d, param)
	if err != nil {
		klog.V(1).Infof("device info query %#x failed: %v", uint32(param), err)
		return "n/a"
	}
	return s
}

func printDevice(driver cl.Driver, di int, device cl.DeviceID) {
	fmt.Printf("    Device #%d: %s\n", di, deviceInfo(driver, device, cl.DeviceInfoName))
	fmt.Printf("      Vendor:          %s\n", deviceInfo(driver, device, cl.DeviceInfoVendor))
	fmt.Printf("      Version:         %s\n", deviceInfo(driver, device, cl.DeviceInfoVersion))
	fmt.Printf("      Driver version:  %s\n", deviceInfo(driver, device, cl.DeviceInfoDriverVersion))
	if units, err := driver.GetDeviceInfoUint(device, cl.DeviceInfoMaxComputeUnits); err == nil {
		fmt.Printf("      Compute units:   %d\n", units)
	}
	if mhz, err := driver.GetDeviceInfoUint(device, cl.DeviceInfoMaxClockFrequency); err == nil {
		fmt.Printf("      Clock frequency: %d MHz\n", mhz)
	}
	if size, err := driver.GetDeviceInfoUlong(device, cl.DeviceInfoGlobalMemSize); err == nil {
		fmt.Printf("      Global memory:   %s\n", formatBytes(size))
	}
	if size, err := driver.GetDeviceInfoUlong(device, cl.DeviceInfoLocalMemSize); err == nil {
		fmt.Printf("      Local memory:    %s\n", formatBytes(size))
	}
	if size, err := driver.GetDeviceInfoUlong(device, cl.DeviceInfoMaxWorkGroupSize); err == nil {
		if sizes, err := driver.GetDeviceInfoWorkItemSizes(device); err == nil {
			fmt.Printf("      Work-group size: %d (max per axis %dx%dx%d)\n", size, sizes[0], sizes[1], sizes[2])
		} else {
			fmt.Printf("      Work-group size: %d\n", size)
		}
	}
}

// printSelection shows the device the compute layer's registry would hand
// out on this driver.
func printSelection(driver cl.Driver) {
	registry := compute.NewRegistry(driver)
	_, device, err := registry.Select()
	if err != nil {
		fmt.Printf("  Selection: %v\n", err)
		return
	}
	n, err := registry.NumDevices()
	if err != nil {
		fmt.Printf("  Selection: %v\n", err)
		return
	}
	fmt.Printf("  Selection: %s (%d device(s) tied for best)\n",
		deviceInfo(driver, device, cl.DeviceInfoName), n)
}

func formatBytes(n uint64) string {
	switch {
	case n >= 1<<30 && n%(1<<30) == 0:
		return fmt.Sprintf("%d GiB", n>>30)
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MiB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%d KiB", n>>10)
	}
	return fmt.Sprintf("%d bytes", n)
}
