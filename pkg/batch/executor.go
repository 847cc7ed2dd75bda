package batch

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/subshift/subshift/pkg/ratelimit"
)

// DefaultConcurrency is the number of requests issued per wave.
const DefaultConcurrency = 10

// Prometheus metrics for batch execution.
var (
	batchWavesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subshift_batch_waves_total",
		Help: "Total execution waves by operation kind",
	}, []string{"kind"})

	batchItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subshift_batch_items_total",
		Help: "Total items processed by operation kind and result",
	}, []string{"kind", "result"})
)

// Outcome aggregates the result of a batch run. Every input item is counted
// exactly once as success or failure.
type Outcome struct {
	SuccessCount int
	FailedCount  int
	FailedItems  []string
}

func (o *Outcome) merge(items []string, err error) {
	if err == nil {
		o.SuccessCount += len(items)
		return
	}
	o.FailedCount += len(items)
	o.FailedItems = append(o.FailedItems, items...)
}

// ChunkFunc applies one operation to a whole chunk of identifiers.
type ChunkFunc func(ctx context.Context, chunk []string) error

// ItemFunc applies one operation to a single identifier.
type ItemFunc func(ctx context.Context, item string) error

// Executor runs operations in bounded concurrent waves. All requests of a
// wave are awaited before the next wave starts, and the gate paces the
// waves so the upstream budget is never rushed.
type Executor struct {
	concurrency int
	gate        *ratelimit.Gate
	logger      zerolog.Logger
}

// NewExecutor creates an executor. A non-positive concurrency falls back to
// the default.
func NewExecutor(concurrency int, gate *ratelimit.Gate, logger zerolog.Logger) *Executor {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if gate == nil {
		gate = ratelimit.NewGate(0)
	}
	return &Executor{
		concurrency: concurrency,
		gate:        gate,
		logger:      logger.With().Str("component", "batch-executor").Logger(),
	}
}

// SubscriptionChunks applies fn to every chunk. A chunk either succeeds or
// fails as a whole. When the context is cancelled mid-run, the remaining
// chunks are reported as failed without being attempted.
func (e *Executor) SubscriptionChunks(ctx context.Context, chunks [][]string, fn ChunkFunc) Outcome {
	var outcome Outcome

	for wave := 0; wave < len(chunks); wave += e.concurrency {
		if err := e.gate.Wait(ctx); err != nil {
			for _, chunk := range chunks[wave:] {
				outcome.merge(chunk, err)
			}
			break
		}

		end := wave + e.concurrency
		if end > len(chunks) {
			end = len(chunks)
		}
		waveChunks := chunks[wave:end]
		errs := make([]error, len(waveChunks))

		var wg sync.WaitGroup
		for i, chunk := range waveChunks {
			wg.Add(1)
			go func(i int, chunk []string) {
				defer wg.Done()
				errs[i] = fn(ctx, chunk)
			}(i, chunk)
		}
		wg.Wait()

		batchWavesTotal.WithLabelValues("chunk").Inc()
		for i, chunk := range waveChunks {
			outcome.merge(chunk, errs[i])
			if errs[i] != nil {
				e.logger.Warn().
					Err(errs[i]).
					Int("chunk_size", len(chunk)).
					Msg("Chunk operation failed")
			}
		}
	}

	batchItemsTotal.WithLabelValues("chunk", "success").Add(float64(outcome.SuccessCount))
	batchItemsTotal.WithLabelValues("chunk", "failed").Add(float64(outcome.FailedCount))

	return outcome
}

// ItemOperations applies fn to every item individually, waving through the
// list with at most concurrency requests in flight. Failures are recorded
// per item and never abort the run.
func (e *Executor) ItemOperations(ctx context.Context, items []string, fn ItemFunc) Outcome {
	var outcome Outcome

	for wave := 0; wave < len(items); wave += e.concurrency {
		if err := e.gate.Wait(ctx); err != nil {
			for _, item := range items[wave:] {
				outcome.merge([]string{item}, err)
			}
			break
		}

		end := wave + e.concurrency
		if end > len(items) {
			end = len(items)
		}
		waveItems := items[wave:end]
		errs := make([]error, len(waveItems))

		var wg sync.WaitGroup
		for i, item := range waveItems {
			wg.Add(1)
			go func(i int, item string) {
				defer wg.Done()
				errs[i] = fn(ctx, item)
			}(i, item)
		}
		wg.Wait()

		batchWavesTotal.WithLabelValues("item").Inc()
		for i, item := range waveItems {
			outcome.merge([]string{item}, errs[i])
			if errs[i] != nil {
				e.logger.Warn().
					Err(errs[i]).
					Str("item", item).
					Msg("Item operation failed")
			}
		}
	}

	batchItemsTotal.WithLabelValues("item", "success").Add(float64(outcome.SuccessCount))
	batchItemsTotal.WithLabelValues("item", "failed").Add(float64(outcome.FailedCount))

	return outcome
}
