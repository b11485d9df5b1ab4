package benchmark

import "time"

// BenchmarkParams holds the load shape shared by all phases
type BenchmarkParams struct {
	VUs              int           // Number of concurrent virtual users
	Iterations       int           // Reads per virtual user, 0 means until Duration elapses
	Duration         time.Duration // Optional duration of the load phase
	RateLimit        int           // Max reads per second across all virtual users, 0 means no limit
	SetupConcurrency int           // Parallel requests during setup and teardown
	Quiet            bool          // Suppress progress bars
}
