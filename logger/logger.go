package logger

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the sugared logger used by every phase of a run. The returned cleanup function flushes
// buffered entries and must be called before the process exits.
func New(production bool) (*zap.SugaredLogger, func(), error) {
	var (
		rawLogger *zap.Logger
		err       error
	)

	if production {
		productionConfig := zap.NewProductionConfig()
		productionConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		rawLogger, err = productionConfig.Build()
	} else {
		develConfig := zap.NewDevelopmentConfig()
		develConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		develConfig.DisableStacktrace = true
		rawLogger, err = develConfig.Build()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	return rawLogger.Sugar(), cleanup(rawLogger), nil
}

func cleanup(rawLogger *zap.Logger) func() {
	return func() {
		err := rawLogger.Sync()
		if err == nil || isUnsyncableTerminal(err) {
			return
		}

		rawLogger.Warn("logger sync failed", zap.Error(err))
		fmt.Printf("logger sync failed: %v\n", err)
	}
}

// isUnsyncableTerminal reports the EINVAL that some terminals return when stdout/stderr are synced.
// See https://github.com/uber-go/zap/issues/370.
func isUnsyncableTerminal(err error) bool {
	var pathError *os.PathError
	if !errors.As(err, &pathError) {
		return false
	}
	return errors.Is(pathError.Err, syscall.EINVAL) &&
		(pathError.Path == "/dev/stderr" || pathError.Path == "/dev/stdout")
}
