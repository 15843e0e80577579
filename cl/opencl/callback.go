//go:build linux || darwin

package opencl

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/yuckify/gocl/cl"
)

// Context error callbacks cross the C boundary carrying a small integer token
// as user data, never a Go pointer. A single process-wide trampoline resolves
// the token back to the Notify registered for the context.
var (
	notifySeq   atomic.Uintptr
	notifyFuncs sync.Map // token uintptr -> cl.Notify
)

var notifyTrampoline = purego.NewCallback(func(errInfo, privateInfo, cb, userData uintptr) uintptr {
	fn, ok := notifyFuncs.Load(userData)
	if !ok {
		return 0
	}
	var private []byte
	if privateInfo != 0 && cb > 0 {
		private = append([]byte(nil), unsafe.Slice((*byte)(unsafe.Pointer(privateInfo)), int(cb))...)
	}
	fn.(cl.Notify)(goString(errInfo), private)
	return 0
})

func registerNotify(fn cl.Notify) uintptr {
	token := notifySeq.Add(1)
	notifyFuncs.Store(token, fn)
	return token
}

func dropNotify(token uintptr) {
	if token != 0 {
		notifyFuncs.Delete(token)
	}
}

// goString copies a NUL-terminated C string.
func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Pointer(p + uintptr(n))) != 0 {
		n++
	}
	if n == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}
