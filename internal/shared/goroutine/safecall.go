// Package goroutine provides utilities for guarding background work with panic recovery.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/warden-sh/warden/internal/shared/logger"
)

// SafeCall invokes fn on the current goroutine with panic recovery. If fn
// panics, the panic is caught and logged with stack trace instead of crashing
// the process. Scheduler tasks run under it so a panicking sweep takes down
// one run, not the service.
func SafeCall(log logger.Interface, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("background task panicked",
				"task", name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
