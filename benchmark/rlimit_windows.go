//go:build windows

package benchmark

import (
	"runtime/debug"

	"go.uber.org/zap"
)

// SetMaxResources only adjusts the Go runtime thread limit; Windows has no open file rlimit.
func SetMaxResources(sugar *zap.SugaredLogger) error {
	const maxThreads = 8000
	debug.SetMaxThreads(maxThreads)

	sugar.Debugw("Adjusted system resources", "maxThreads", maxThreads)
	return nil
}
