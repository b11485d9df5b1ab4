//go:build !linux && !windows

package benchmark

import "go.uber.org/zap"

func SetMaxResources(sugar *zap.SugaredLogger) error {
	sugar.Debugw("Leaving system resources unchanged on this platform")
	return nil
}
