package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"objbench/benchmark"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func TestDisplayResults(t *testing.T) {
	var out bytes.Buffer
	DisplayResults(&out, benchmark.Summary{
		RunID:        "run-1",
		Objects:      64,
		PayloadBytes: 1024 * 1024,
		SetupTime:    1500 * time.Millisecond,
		Run: benchmark.RunSummary{
			VUs:        66,
			AbortedVUs: 2,
			Iterations: 128,
			BytesRead:  128 * 1024 * 1024,
			Elapsed:    2 * time.Second,
			AvgLatency: 1500 * time.Microsecond,
		},
		TeardownTime: 250 * time.Millisecond,
		Checks: []benchmark.CheckResult{
			{Name: benchmark.CheckStatusOK, Passes: 127, Fails: 1},
			{Name: benchmark.CheckPayloadSize, Passes: 127},
		},
	})

	text := out.String()
	assert.Contains(t, text, "Run run-1 (64 objects, 1048576 bytes each)")
	assert.Contains(t, text, "Setup Duration: 1.5s")
	assert.Contains(t, text, "Aborted Virtual Users: 2")
	assert.Contains(t, text, "Total Reads: 128")
	assert.Contains(t, text, "Average Read Latency: 1.5ms")
	assert.Contains(t, text, "Data Throughput: 64.00 MiB/s")
	assert.Contains(t, text, "Object Throughput: 64.00 objects/s")
	assert.Contains(t, text, "✗ is status 200: 127/128 passed (99.22%)")
	assert.Contains(t, text, "✓ payload size matches: 127/127 passed (100.00%)")
	assert.Contains(t, text, "Teardown Duration: 250ms")
	assert.NotContains(t, text, "Teardown left objects behind")
}

func TestDisplayResultsFailedSetup(t *testing.T) {
	var out bytes.Buffer
	DisplayResults(&out, benchmark.Summary{
		RunID:         "run-2",
		Objects:       4,
		SetupFailed:   true,
		TeardownError: true,
	})

	text := out.String()
	assert.Contains(t, text, "Setup failed, no reads were issued")
	assert.NotContains(t, text, "READ Results")
	assert.NotContains(t, text, "Checks:")
	assert.Contains(t, text, "Teardown left objects behind")
}
