// Package gocl provides Go bindings and a resource management layer for
// OpenCL compute devices.
//
// It is organized in two layers:
//
//   - cl is the driver layer: the Driver interface mirrors the OpenCL host
//     API, with an implementation that loads the vendor OpenCL library at
//     runtime (cl/opencl) and a software implementation that runs kernels
//     as registered Go functions (cl/cpu).
//   - compute is the resource management layer: Device, Buffer, Program and
//     Kernel own the underlying driver handles and release them when freed
//     or garbage collected.
//
// Most programs only use compute, and blank-import cl/opencl so the
// hardware driver registers itself:
//
//	import (
//		"github.com/yuckify/gocl/compute"
//
//		_ "github.com/yuckify/gocl/cl/opencl"
//	)
//
//	device := compute.NewDevice()
//	defer device.Close()
//
// See the compute package documentation for the full workflow.
package gocl
