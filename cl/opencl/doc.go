// Package opencl implements the cl.Driver interface on top of a system OpenCL
// library, loaded at runtime with dlopen; no cgo is involved. Importing the
// package registers the driver with the cl registry when a library can be
// loaded, so typical use is a blank import:
//
//	import _ "github.com/yuckify/gocl/cl/opencl"
//
// The library is searched under the platform's usual names and locations,
// with directories named in the GOCL_LIBRARY_PATH environment variable
// (colon separated) tried first. On platforms without dlopen the package
// compiles to nothing and registers no driver.
package opencl
