package benchmark

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"objbench/progress"
)

// Setup deletes and re-creates every object of the set so that the load phase starts from a known
// state. Failures of individual objects are collected and returned together.
func Setup(ctx context.Context, objects *ObjectSet, client *ObjectClient, payload []byte, params BenchmarkParams, sugar *zap.SugaredLogger) error {
	sugar.Infow("Provisioning objects",
		"runID", objects.RunID(),
		"objects", objects.Len(),
		"payloadBytes", len(payload),
		"concurrency", params.SetupConcurrency,
	)

	return forEachObject(ctx, objects, params, "Provisioning", func(ctx context.Context, obj Object) error {
		if err := client.Delete(ctx, obj.URL); err != nil {
			return fmt.Errorf("delete leftover object %v: %w", obj.Index, err)
		}
		if err := client.Put(ctx, obj.URL, payload); err != nil {
			return fmt.Errorf("create object %v: %w", obj.Index, err)
		}
		return nil
	})
}

// forEachObject runs fn for every object with at most params.SetupConcurrency calls in flight.
// Unlike a plain errgroup it keeps going after a failure and returns every error. Once ctx is done
// no further objects are started and the skipped ones are reported as a single error.
func forEachObject(ctx context.Context, objects *ObjectSet, params BenchmarkParams, caption string, fn func(context.Context, Object) error) error {
	pb := progress.NewProgressBar(caption, int64(objects.Len()), params.Quiet)
	defer pb.Finish()

	var (
		mu       sync.Mutex
		merr     error
		attempts atomic.Int64
	)

	var g errgroup.Group
	g.SetLimit(max(params.SetupConcurrency, 1))

	for i := 0; i < objects.Len() && ctx.Err() == nil; i++ {
		obj, _ := objects.At(i)
		g.Go(func() error {
			// a slot may free up only after the run was interrupted
			if ctx.Err() != nil {
				return nil
			}
			attempts.Add(1)

			if err := fn(ctx, obj); err != nil {
				mu.Lock()
				merr = multierr.Append(merr, err)
				mu.Unlock()
			}
			pb.Increment()
			return nil
		})
	}

	_ = g.Wait()

	if skipped := int64(objects.Len()) - attempts.Load(); skipped > 0 {
		pb.SetCaption(caption + " (interrupted)")
		merr = multierr.Append(merr, fmt.Errorf("%v of %v objects skipped: %w", skipped, objects.Len(), context.Cause(ctx)))
	}
	return merr
}
