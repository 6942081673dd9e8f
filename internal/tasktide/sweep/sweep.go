package sweep

import (
	"context"
	"time"

	"github.com/tasktide/tasktide/internal/core/logging"
	"github.com/tasktide/tasktide/internal/data/stores"
)

// Start periodically sweeps expired KV entries. It blocks until the
// context is cancelled.
func Start(ctx context.Context, kvStore *stores.KVStore, interval time.Duration) {
	logger := logging.Component("sweep")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := kvStore.SweepExpired(ctx); err != nil {
				logger.Debug().Err(err).Msg("kv sweep failed")
			}
		}
	}
}
