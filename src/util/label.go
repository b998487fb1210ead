// label.go provides thread-safe backend-name mangling: every local or global IR name handed to the
// code generator is produced by appending a monotonically increasing counter to the source name, so that
// two declarations that share a surface name never collide at the IR level.

package util

import (
	"fmt"
	"sync"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// serialiser hands out unique backend names for the lifetime of the process.
type serialiser struct {
	mx  sync.Mutex
	ctr uint64
}

// -------------------
// ----- globals -----
// -------------------

// ser is the process-wide backend-name counter.
var ser serialiser

// ---------------------
// ----- functions -----
// ---------------------

// Serialise appends a unique, monotonically increasing suffix to name and returns the result.
// The counter is unique for the lifetime of the process.
func Serialise(name string) string {
	ser.mx.Lock()
	n := ser.ctr
	ser.ctr++
	ser.mx.Unlock()
	return fmt.Sprintf("%s.%d", name, n)
}
