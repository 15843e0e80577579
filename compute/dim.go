package compute

import (
	"fmt"

	"github.com/gomlx/exceptions"
)

// Dim is a 1 to 3 dimensional extent, used both for global work sizes and for
// work-group shapes. The zero value of an axis counts as an extent of one.
type Dim struct {
	X, Y, Z uint64
}

// NewDim builds a Dim from 1 to 3 extents, filling unspecified axes with 1.
// It panics when given no extents, more than three, or a non-positive extent.
func NewDim(extents ...int) Dim {
	if len(extents) == 0 || len(extents) > 3 {
		exceptions.Panicf("compute.NewDim takes 1 to 3 extents, got %d", len(extents))
	}
	for i, e := range extents {
		if e <= 0 {
			exceptions.Panicf("compute.NewDim: extent #%d of %v must be positive", i, extents)
		}
	}
	d := Dim{X: uint64(extents[0]), Y: 1, Z: 1}
	if len(extents) > 1 {
		d.Y = uint64(extents[1])
	}
	if len(extents) > 2 {
		d.Z = uint64(extents[2])
	}
	return d
}

// Dimensions returns the number of axes with an extent greater than one.
// NewDim(64) and NewDim(64, 1, 1) both report 1, NewDim(1) reports 0.
func (d Dim) Dimensions() int {
	n := 0
	if d.X > 1 {
		n++
	}
	if d.Y > 1 {
		n++
	}
	if d.Z > 1 {
		n++
	}
	return n
}

// span returns how many leading axes a launch has to pass to the driver to
// cover every extent greater than one, at least 1. Unlike Dimensions it
// counts an interior unit axis: Dim{8, 1, 4} spans 3 axes.
func (d Dim) span() int {
	switch {
	case d.Z > 1:
		return 3
	case d.Y > 1:
		return 2
	default:
		return 1
	}
}

// Min returns the axis-wise minimum of d and o.
func (d Dim) Min(o Dim) Dim {
	return Dim{X: min(d.X, o.X), Y: min(d.Y, o.Y), Z: min(d.Z, o.Z)}
}

// Max returns the axis-wise maximum of d and o.
func (d Dim) Max(o Dim) Dim {
	return Dim{X: max(d.X, o.X), Y: max(d.Y, o.Y), Z: max(d.Z, o.Z)}
}

// Total returns the number of work-items the Dim spans.
func (d Dim) Total() uint64 {
	a := d.Array()
	return a[0] * a[1] * a[2]
}

// Array returns the extents in the fixed-size form drivers take, with zero
// axes normalized to 1.
func (d Dim) Array() [3]uint64 {
	a := [3]uint64{d.X, d.Y, d.Z}
	for i := range a {
		if a[i] == 0 {
			a[i] = 1
		}
	}
	return a
}

// String implements fmt.Stringer.
func (d Dim) String() string {
	a := d.Array()
	return fmt.Sprintf("Dim(%d, %d, %d)", a[0], a[1], a[2])
}
