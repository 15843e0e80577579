package compute

import (
	"runtime"
	"strings"

	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"

	"github.com/yuckify/gocl/cl"
)

// Program is a kernel module built from OpenCL C source for one device.
type Program struct {
	device  *Device
	wrapper *programWrapper
}

type programWrapper struct {
	device *Device
	prog   cl.Program
}

func (w *programWrapper) release() error {
	if w == nil || w.prog == 0 {
		return nil
	}
	err := w.device.driver.ReleaseProgram(w.prog)
	w.prog = 0
	return err
}

func cleanupProgram(w *programWrapper) {
	if err := w.release(); err != nil {
		klog.Errorf("compute.Program release failed: %v", err)
	}
}

// NewProgram compiles source for the device. A compilation failure prints
// the driver's full build log and is fatal; there is no partial success.
func (d *Device) NewProgram(source string) *Program {
	prog, err := d.driver.CreateProgramWithSource(d.ctx, source)
	if err != nil {
		exceptions.Panicf("compute: failed to create program on %q: %+v", d.name, err)
	}
	p := &Program{device: d, wrapper: &programWrapper{device: d, prog: prog}}
	runtime.AddCleanup(p, cleanupProgram, p.wrapper)

	if err := d.driver.BuildProgram(prog, d.id, ""); err != nil {
		if cl.StatusOf(err) == cl.StatusBuildProgramFailure {
			log, logErr := d.driver.GetProgramBuildLog(prog, d.id)
			if logErr != nil {
				klog.Errorf("compute: failed to fetch build log: %v", logErr)
			} else {
				klog.Errorf("%s", strings.Repeat("*", 40))
				klog.Errorf("BUILD LOG:\n%s", log)
			}
		}
		exceptions.Panicf("compute: failed to build program on %q: %+v", d.name, err)
	}
	return p
}

// Device returns the device the program was built for.
func (p *Program) Device() *Device { return p.device }

// Free releases the program object. Kernels already created from it stay
// valid; Free is idempotent and also runs when the Program is garbage
// collected.
func (p *Program) Free() error {
	defer runtime.KeepAlive(p)
	return p.wrapper.release()
}
