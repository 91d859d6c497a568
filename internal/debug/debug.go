// Package debug provides a cheap opt-in trace writer for hot paths.
// Call sites stay compiled in; a disabled writer costs one atomic load.
package debug

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

var (
	enabled atomic.Bool

	mu  sync.Mutex
	out io.Writer
)

// Enable turns on debug writes to w.
func Enable(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
	enabled.Store(true)
}

// Disable turns off debug writes.
func Disable() {
	enabled.Store(false)
}

// Enabled reports whether debug writes are active.
func Enabled() bool {
	return enabled.Load()
}

// Writef writes a formatted debug line tagged with its source. It is a
// no-op unless Enable has been called.
func Writef(source, format string, args ...any) {
	if !enabled.Load() {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if out == nil {
		return
	}
	fmt.Fprintf(out, "%s: %s\n", source, fmt.Sprintf(format, args...))
}
