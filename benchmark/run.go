package benchmark

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"objbench/metrics"
	"objbench/progress"
)

// RunSummary describes the load phase.
type RunSummary struct {
	VUs        int
	AbortedVUs int
	Iterations int64
	BytesRead  int64
	Elapsed    time.Duration
	// AvgLatency is the mean latency of the reads that received a response.
	AvgLatency time.Duration
}

// RunLoad starts params.VUs virtual users. Virtual user n reads object n-1 over and over until it
// has done params.Iterations reads or ctx is done. A virtual user without an object stops right
// away without sending a request; RunLoad then reports ErrVUWithoutObject after the others finish.
// expectedBytes is the payload length every read should return, or a negative value if unknown.
func RunLoad(ctx context.Context, objects *ObjectSet, client *ObjectClient, checks *Checks, m *metrics.Metrics,
	params BenchmarkParams, expectedBytes int64, sugar *zap.SugaredLogger) (RunSummary, error) {

	startTime := time.Now()

	// Global context handling: If duration is set, use it; otherwise run until every VU is done
	var runCtx context.Context
	var cancel context.CancelFunc
	if params.Duration > 0 {
		runCtx, cancel = context.WithTimeout(ctx, params.Duration)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	var rateLimiter *rate.Limiter
	if params.RateLimit > 0 {
		rateLimiter = rate.NewLimiter(rate.Limit(params.RateLimit), 1)
		sugar.Infow("Rate limiting reads", "perSecond", params.RateLimit)
	}

	var total int64
	if params.Iterations > 0 {
		total = int64(params.Iterations) * int64(min(params.VUs, objects.Len()))
	}
	pb := progress.NewProgressBar("Reading", total, params.Quiet)

	var (
		wg         sync.WaitGroup
		iterations atomic.Int64
		bytesRead  atomic.Int64
		aborted    atomic.Int64
		answered   atomic.Int64
		latency    atomic.Int64
	)

	sugar.Infow("Starting virtual users",
		"vus", params.VUs,
		"iterations", params.Iterations,
		"duration", params.Duration,
	)

	for vu := 1; vu <= params.VUs; vu++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			obj, err := objects.ForVU(vu)
			if err != nil {
				aborted.Add(1)
				sugar.Errorw("Aborting virtual user", "vu", vu, "err", err)
				return
			}

			m.VUStarted()
			defer m.VUStopped()

			for i := 0; params.Iterations == 0 || i < params.Iterations; i++ {
				if runCtx.Err() != nil {
					return
				}

				if rateLimiter != nil {
					if err := rateLimiter.Wait(runCtx); err != nil {
						// the next token lies beyond the deadline, the run still lasts until then
						<-runCtx.Done()
						return
					}
				}

				res, err := client.Get(runCtx, obj.URL)
				if err != nil && runCtx.Err() != nil {
					// the run ended while the request was in flight
					return
				}

				iterations.Add(1)
				pb.Increment()

				if err != nil {
					sugar.Debugw("Read failed", "vu", vu, "url", obj.URL, "err", err)
				} else {
					answered.Add(1)
					latency.Add(int64(res.Latency))
				}
				bytesRead.Add(res.Bytes)

				if checks.Record(CheckStatusOK, err == nil && res.Status == http.StatusOK) && expectedBytes >= 0 {
					checks.Record(CheckPayloadSize, res.Bytes == expectedBytes)
				}
			}
		}()
	}

	wg.Wait()
	pb.Finish()

	summary := RunSummary{
		VUs:        params.VUs,
		AbortedVUs: int(aborted.Load()),
		Iterations: iterations.Load(),
		BytesRead:  bytesRead.Load(),
		Elapsed:    time.Since(startTime),
	}
	if n := answered.Load(); n > 0 {
		summary.AvgLatency = time.Duration(latency.Load() / n)
	}

	if summary.AbortedVUs > 0 {
		return summary, fmt.Errorf("%v of %v virtual users aborted, only %v objects are provisioned: %w",
			summary.AbortedVUs, summary.VUs, objects.Len(), ErrVUWithoutObject)
	}
	return summary, nil
}
