// Package compute manages GPU compute resources on top of a cl.Driver:
// device selection, contexts and queues, typed buffers mirrored between host
// and device, program compilation and kernel launches.
//
// Resource acquisition is fatal on failure: constructors and operations panic
// (with an error value carrying a stack trace) instead of returning errors,
// since a missing device, a kernel that does not compile or an out-of-bounds
// transfer leaves nothing for the caller to recover. The lower-level cl
// package is the place to handle driver errors as values.
//
// A typical session:
//
//	device := compute.NewDevice()
//	defer device.Close()
//	program := device.NewProgram(source)
//	kernel := program.Kernel("scale")
//	buf := compute.NewBufferFromSlice(device, values)
//	buf.CopyToDevice()
//	kernel.Launch(compute.NewDim(64), compute.NewDim(1024), buf, float32(2))
//	buf.CopyToHost()
//	device.Wait()
package compute

import (
	"sync/atomic"
)

var (
	devicesAlive atomic.Int64
	buffersAlive atomic.Int64
)

// DevicesAlive returns the number of open Devices currently tracked.
func DevicesAlive() int64 {
	return devicesAlive.Load()
}

// BuffersAlive returns the number of buffers currently holding a device
// allocation.
func BuffersAlive() int64 {
	return buffersAlive.Load()
}
