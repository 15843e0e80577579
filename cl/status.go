package cl

//go:generate go run ../internal/cmd/clstatus_codegen

import (
	stderrors "errors"
	"fmt"
)

// Status is a driver status code. The values mirror the OpenCL runtime's
// status codes; drivers written in Go return the same codes for the
// equivalent conditions. Status implements error so a non-success code can be
// wrapped and carried through an error chain.
//
// The constants and the name table live in gen_status.go, generated from the
// Khronos OpenCL headers.
type Status int32

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int32(s))
}

// Error implements error, so a failing status can be wrapped directly.
func (s Status) Error() string {
	return fmt.Sprintf("%s (code=%d)", s.String(), int32(s))
}

// Err returns nil for StatusSuccess and the status itself otherwise.
func (s Status) Err() error {
	if s == StatusSuccess {
		return nil
	}
	return s
}

// StatusOf extracts the driver status from an error chain. It returns
// StatusSuccess when err is nil or carries no driver status.
func StatusOf(err error) Status {
	var s Status
	if stderrors.As(err, &s) {
		return s
	}
	return StatusSuccess
}
