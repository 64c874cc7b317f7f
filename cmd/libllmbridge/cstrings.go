package main

/*
#include <stdlib.h>
*/
import "C"

// cChar names the C character type on the Go side of the ABI.
type cChar = C.char

// goString copies a caller-owned C string into Go memory. NULL yields "".
func goString(p *cChar) string {
	if p == nil {
		return ""
	}
	return C.GoString(p)
}

// cString returns a malloc'd copy of s. Ownership passes to the caller,
// who releases it with llmbridge_free_string.
func cString(s string) *C.char { return C.CString(s) }

// newStatus allocates a status slot for callers on the Go side of the ABI.
func newStatus() *C.int { return new(C.int) }

func statusValue(p *C.int) int { return int(*p) }

// setOut stores a caller-owned copy of msg in *out when out is non-NULL.
func setOut(out **cChar, msg string) {
	if out != nil {
		*out = cString(msg)
	}
}
