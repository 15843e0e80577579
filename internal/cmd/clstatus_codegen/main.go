// clstatus_codegen parses the error codes of the Khronos OpenCL headers and
// generates gen_status.go of the cl package. It reads CL/cl.h and CL/cl_gl.h
// from the directory set in OPENCL_HEADERS (a clone of
// github.com/KhronosGroup/OpenCL-Headers) and must be executed under the cl/
// directory -- suggested as a go:generate, see status.go.
package main

import (
	"bytes"
	"fmt"
	"go/format"
	"log"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/janpfeifer/must"
)

const (
	headersEnvVar = "OPENCL_HEADERS"
	outputName    = "gen_status.go"
)

// reErrorCode matches the error code defines, the only CL_ defines with a
// plain zero or negative decimal value.
var reErrorCode = regexp.MustCompile(`(?m)^#define\s+(CL_[A-Z0-9_]+)\s+(0|-\d+)\s*$`)

// renames overrides the mechanical CamelCase conversion where the Go name
// deviates from the C name.
var renames = map[string]string{
	"CL_MEM_OBJECT_ALLOCATION_FAILURE":             "MemObjectAllocFailure",
	"CL_PROFILING_INFO_NOT_AVAILABLE":              "ProfilingInfoUnavailable",
	"CL_MISALIGNED_SUB_BUFFER_OFFSET":              "MisalignedSubBufferOff",
	"CL_EXEC_STATUS_ERROR_FOR_EVENTS_IN_WAIT_LIST": "ExecStatusErrorInList",
	"CL_KERNEL_ARG_INFO_NOT_AVAILABLE":             "KernelArgInfoUnavailable",
	"CL_INVALID_IMAGE_FORMAT_DESCRIPTOR":           "InvalidImageDescriptor",
	"CL_INVALID_PROGRAM_EXECUTABLE":                "InvalidProgramExec",
	"CL_INVALID_GL_SHAREGROUP_REFERENCE_KHR":       "InvalidGLShareGroup",
}

type statusCode struct {
	cName  string
	goName string
	value  int
}

func main() {
	headers := os.Getenv(headersEnvVar)
	if headers == "" {
		log.Fatalf("Please set %s to the directory containing a clone of github.com/KhronosGroup/OpenCL-Headers.\n", headersEnvVar)
	}

	var codes []statusCode
	// The error codes are the first define block of cl.h; later zero-valued
	// defines like CL_FALSE are dropped by the first-wins dedup.
	seen := make(map[int]bool)
	for _, name := range []string{"cl.h", "cl_gl.h"} {
		contents := string(must.M1(os.ReadFile(path.Join(headers, "CL", name))))
		for _, m := range reErrorCode.FindAllStringSubmatch(contents, -1) {
			value := must.M1(strconv.Atoi(m[2]))
			if seen[value] {
				continue
			}
			seen[value] = true
			codes = append(codes, statusCode{cName: m[1], goName: goName(m[1]), value: value})
		}
	}
	if len(codes) == 0 {
		log.Fatalf("No error codes found under %s.\n", headers)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].value > codes[j].value })

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by %q from CL/cl.h and CL/cl_gl.h; DO NOT EDIT.\n\n", "clstatus_codegen")
	buf.WriteString("package cl\n\nconst (\n")
	for i, c := range codes {
		// A gap in the numbering starts a new block, like in the header.
		if i > 0 && codes[i-1].value-c.value > 1 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "\tStatus%s Status = %d\n", c.goName, c.value)
	}
	buf.WriteString(")\n\n")
	buf.WriteString("// statusNames maps each Status to the C constant it mirrors.\n")
	buf.WriteString("var statusNames = map[Status]string{\n")
	for _, c := range codes {
		fmt.Fprintf(&buf, "\tStatus%s: %q,\n", c.goName, c.cName)
	}
	buf.WriteString("}\n")

	formatted := must.M1(format.Source(buf.Bytes()))
	must.M(os.WriteFile(outputName, formatted, 0644))
	fmt.Printf("Generated %s with %d status codes.\n", outputName, len(codes))
}

// goName converts CL_INVALID_MEM_OBJECT to InvalidMemObject, keeping GL
// uppercase and applying the renames table.
func goName(cName string) string {
	if name, ok := renames[cName]; ok {
		return name
	}
	parts := strings.Split(strings.TrimPrefix(cName, "CL_"), "_")
	for i, p := range parts {
		if p == "GL" {
			continue
		}
		parts[i] = p[:1] + strings.ToLower(p[1:])
	}
	return strings.Join(parts, "")
}
