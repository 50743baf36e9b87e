package debug

// Periodic runtime logger, started only when config.Debug is true. Emits
// goroutine count, heap and stack usage plus any attributes supplied by the
// caller, e.g. tracker counters.

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"
)

// Attrs supplies extra attributes for each sample.
type Attrs func() []any

// StartRuntimeLogger logs one sample per interval until ctx is done.
func StartRuntimeLogger(ctx context.Context, interval time.Duration, logger *slog.Logger, extra Attrs) {
	if interval <= 0 {
		interval = time.Second
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				logger.Debug("runtime", Sample(extra)...)
			}
		}
	}()
}

// Sample reads the current runtime figures as slog key/value pairs.
func Sample(extra Attrs) []any {
	samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
	metrics.Read(samples)
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	args := []any{
		slog.Uint64("goroutines", samples[0].Value.Uint64()),
		slog.Uint64("heap_alloc", ms.HeapAlloc),
		slog.Uint64("stack_inuse", ms.StackInuse),
	}
	if extra != nil {
		args = append(args, extra()...)
	}
	return args
}
