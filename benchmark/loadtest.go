package benchmark

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"objbench/metrics"
)

// LoadTest wires the three phases of a run together.
type LoadTest struct {
	Objects *ObjectSet
	Client  *ObjectClient
	Checks  *Checks
	Metrics *metrics.Metrics
	Payload []byte
	Params  BenchmarkParams
	Log     *zap.SugaredLogger
}

// Summary is what a finished run reports.
type Summary struct {
	RunID         string
	Objects       int
	PayloadBytes  int
	SetupTime     time.Duration
	Run           RunSummary
	TeardownTime  time.Duration
	Checks        []CheckResult
	SetupFailed   bool
	TeardownError bool
}

// Run provisions the objects, runs the virtual users and deletes the objects again. Teardown
// happens even if setup failed or ctx was cancelled during the load phase.
func (t *LoadTest) Run(ctx context.Context) (Summary, error) {
	summary := Summary{
		RunID:        t.Objects.RunID(),
		Objects:      t.Objects.Len(),
		PayloadBytes: len(t.Payload),
	}
	var merr error

	start := time.Now()
	setupErr := Setup(ctx, t.Objects, t.Client, t.Payload, t.Params, t.Log)
	summary.SetupTime = time.Since(start)

	if setupErr != nil {
		summary.SetupFailed = true
		merr = multierr.Append(merr, fmt.Errorf("setup: %w", setupErr))
		t.Log.Errorw("Setup failed, skipping load phase", "err", setupErr)
	} else {
		runSummary, err := RunLoad(ctx, t.Objects, t.Client, t.Checks, t.Metrics, t.Params, int64(len(t.Payload)), t.Log)
		summary.Run = runSummary
		if err != nil {
			merr = multierr.Append(merr, fmt.Errorf("load: %w", err))
		}
	}

	start = time.Now()
	if err := Teardown(context.WithoutCancel(ctx), t.Objects, t.Client, t.Params, t.Log); err != nil {
		summary.TeardownError = true
		merr = multierr.Append(merr, fmt.Errorf("teardown: %w", err))
	}
	summary.TeardownTime = time.Since(start)
	summary.Checks = t.Checks.Results()

	return summary, merr
}

// LoadPayload reads the upload payload from path. An empty path yields size random bytes instead.
func LoadPayload(path string, size int64) ([]byte, error) {
	if path != "" {
		payload, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read payload file: %w", err)
		}
		return payload, nil
	}

	if size <= 0 {
		return nil, fmt.Errorf("payload size %v must be > 0", size)
	}
	payload := make([]byte, size)
	if _, err := rand.Read(payload); err != nil {
		return nil, fmt.Errorf("generate payload: %w", err)
	}
	return payload, nil
}
