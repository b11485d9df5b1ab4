//go:build linux

package benchmark

import (
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// SetMaxResources raises the open file limit so that every virtual user can hold its own
// connections, and lifts the Go runtime thread limit towards the kernel's.
func SetMaxResources(sugar *zap.SugaredLogger) error {
	const threadLimit = 10000
	rLimit := unix.Rlimit{}

	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		return fmt.Errorf("get open file limit: %w", err)
	}

	previous := rLimit.Cur
	rLimit.Cur = rLimit.Max
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		return fmt.Errorf("set open file limit to %v: %w", rLimit.Max, err)
	}

	threads, err := readLinuxMaxThreads()
	if err != nil {
		return fmt.Errorf("read max threads: %w", err)
	}

	// 90% of the system wide limit, never below the runtime default
	maxThreads := (int(threads) * 90) / 100
	if maxThreads > threadLimit {
		debug.SetMaxThreads(maxThreads)
	}

	sugar.Debugw("Adjusted system resources",
		"openFilesBefore", previous,
		"openFiles", rLimit.Cur,
		"maxThreads", max(maxThreads, threadLimit),
	)
	return nil
}

func readLinuxMaxThreads() (uint32, error) {
	data, err := os.ReadFile("/proc/sys/kernel/threads-max")
	if err != nil {
		return 0, err
	}
	threads, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse threads-max: %w", err)
	}
	return uint32(threads), nil
}
