package benchmark

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Teardown deletes every object of the set. Objects that are already gone are not an error, so
// running it more than once is safe.
func Teardown(ctx context.Context, objects *ObjectSet, client *ObjectClient, params BenchmarkParams, sugar *zap.SugaredLogger) error {
	sugar.Infow("Deleting objects", "runID", objects.RunID(), "objects", objects.Len())

	return forEachObject(ctx, objects, params, "Deleting", func(ctx context.Context, obj Object) error {
		if err := client.Delete(ctx, obj.URL); err != nil {
			return fmt.Errorf("delete object %v: %w", obj.Index, err)
		}
		return nil
	})
}
