package report

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"objbench/benchmark"
)

var (
	passMark = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed, color.Bold).SprintFunc()
)

// DisplayResults shows the summary of a load test run
func DisplayResults(w io.Writer, s benchmark.Summary) {
	fmt.Fprintf(w, "\nRun %s (%d objects, %d bytes each)\n", s.RunID, s.Objects, s.PayloadBytes)
	fmt.Fprintf(w, "Setup Duration: %s\n", s.SetupTime.Round(time.Millisecond))

	if !s.SetupFailed {
		elapsed := s.Run.Elapsed
		fmt.Fprintf(w, "\nREAD Results:\n")
		fmt.Fprintf(w, "Duration: %s\n", elapsed.Round(time.Millisecond))
		fmt.Fprintf(w, "Virtual Users: %d\n", s.Run.VUs)
		if s.Run.AbortedVUs > 0 {
			fmt.Fprintf(w, "Aborted Virtual Users: %s\n", failMark(s.Run.AbortedVUs))
		}
		fmt.Fprintf(w, "Total Reads: %d\n", s.Run.Iterations)
		if s.Run.AvgLatency > 0 {
			fmt.Fprintf(w, "Average Read Latency: %s\n", s.Run.AvgLatency.Round(time.Microsecond))
		}
		fmt.Fprintf(w, "Total Data Downloaded: %.2f MiB\n", float64(s.Run.BytesRead)/(1024*1024))
		if seconds := elapsed.Seconds(); seconds > 0 {
			fmt.Fprintf(w, "Data Throughput: %.2f MiB/s\n", float64(s.Run.BytesRead)/seconds/(1024*1024))
			fmt.Fprintf(w, "Object Throughput: %.2f objects/s\n", float64(s.Run.Iterations)/seconds)
		}
	} else {
		fmt.Fprintf(w, "%s\n", failMark("Setup failed, no reads were issued"))
	}

	if len(s.Checks) > 0 {
		fmt.Fprintf(w, "\nChecks:\n")
		for _, c := range s.Checks {
			mark := passMark("✓")
			if c.Fails > 0 {
				mark = failMark("✗")
			}
			total := c.Passes + c.Fails
			fmt.Fprintf(w, "  %s %s: %d/%d passed (%.2f%%)\n", mark, c.Name, c.Passes, total, percent(c.Passes, total))
		}
	}

	fmt.Fprintf(w, "\nTeardown Duration: %s\n", s.TeardownTime.Round(time.Millisecond))
	if s.TeardownError {
		fmt.Fprintf(w, "%s\n", failMark("Teardown left objects behind, see the log for details"))
	}
	fmt.Fprintln(w)
}

func percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}
