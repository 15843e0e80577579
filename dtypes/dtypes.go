// Package dtypes enumerates the fixed-width element types device buffers can
// hold and kernel arguments can carry, with the mapping back and forth to the
// corresponding Go types.
//
// The set is closed: only arithmetic POD types with a well-defined device wire
// width are included, since scalar kernel-argument binding must know each
// type's exact byte size. There is no 8-bit element type.
package dtypes

import (
	"reflect"
	"strings"

	"github.com/x448/float16"
)

//go:generate go tool enumer -type=DType dtypes.go

// DType identifies one of the supported fixed-width element types.
type DType int32

const (
	// InvalidDType represents an invalid (or not set) element type.
	InvalidDType DType = iota

	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64

	// Float16 is represented in Go by float16.Float16 (IEEE 754 half).
	Float16
	Float32
	Float64
)

// Supported are the Go types a device buffer may be instantiated with.
//
// The tilde terms admit named types with the same underlying representation;
// in particular float16.Float16 (underlying uint16) is a valid element type
// and maps to Float16.
type Supported interface {
	~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// Scalar are the Go types that can bind directly as kernel scalar arguments.
//
// It is deliberately narrower than Supported: 16-bit types are valid buffer
// elements but have no scalar binding, following the device ABI for kernel
// value arguments.
type Scalar interface {
	~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// Size returns the element width in bytes, or 0 for InvalidDType.
func (dt DType) Size() int {
	switch dt {
	case Int16, Uint16, Float16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	}
	return 0
}

// Memory returns the element width as a uintptr, for pointer arithmetic.
func (dt DType) Memory() uintptr {
	return uintptr(dt.Size())
}

// CLName returns the OpenCL C spelling of the type, used in kernel sources
// and diagnostics.
func (dt DType) CLName() string {
	switch dt {
	case Int16:
		return "short"
	case Uint16:
		return "ushort"
	case Int32:
		return "int"
	case Uint32:
		return "uint"
	case Int64:
		return "long"
	case Uint64:
		return "ulong"
	case Float16:
		return "half"
	case Float32:
		return "float"
	case Float64:
		return "double"
	}
	return "invalid"
}

// FromGoType returns the DType for the given Go type, or InvalidDType when
// there is no corresponding element type.
//
// float16.Float16 maps to Float16; any other type with underlying uint16 maps
// to Uint16.
func FromGoType(t reflect.Type) DType {
	if t == float16Type {
		return Float16
	}
	switch t.Kind() {
	case reflect.Int16:
		return Int16
	case reflect.Uint16:
		return Uint16
	case reflect.Int32:
		return Int32
	case reflect.Uint32:
		return Uint32
	case reflect.Int64:
		return Int64
	case reflect.Uint64:
		return Uint64
	case reflect.Float32:
		return Float32
	case reflect.Float64:
		return Float64
	}
	return InvalidDType
}

// FromGenericsType returns the DType for the type parameter T.
func FromGenericsType[T Supported]() DType {
	var v T
	return FromGoType(reflect.TypeOf(v))
}

var float16Type = reflect.TypeOf(float16.Float16(0))

// MapOfNames maps type names to their DType: the Go spelling ("Float32"), the
// OpenCL C spelling ("float") and the usual short forms ("f32"), all also in
// lower case.
var MapOfNames = map[string]DType{
	"i16": Int16, "u16": Uint16,
	"i32": Int32, "u32": Uint32,
	"i64": Int64, "u64": Uint64,
	"f16": Float16, "f32": Float32, "f64": Float64,
	"half": Float16, "float": Float32, "double": Float64,
	"short": Int16, "ushort": Uint16,
	"int": Int32, "uint": Uint32,
	"long": Int64, "ulong": Uint64,
}

func init() {
	for _, dt := range DTypeValues() {
		if dt == InvalidDType {
			continue
		}
		MapOfNames[dt.String()] = dt
		MapOfNames[strings.ToLower(dt.String())] = dt
	}
}
