//go:build linux

package native

import (
	"unsafe"
)

// goStringFromPtr converts a NUL-terminated C string into a Go string.
func goStringFromPtr(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	p := unsafe.Pointer(ptr)
	var length int
	for *(*byte)(unsafe.Add(p, length)) != 0 {
		length++
		if length > 1024 {
			break
		}
	}
	return string(unsafe.Slice((*byte)(p), length))
}
