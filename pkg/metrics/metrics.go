// Package metrics provides the central Prometheus registry reference for
// the migration service. All metrics are defined in their respective
// packages (reddit, ratelimit, batch, migrate, cache) to maintain
// modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the service.
// All metrics are automatically registered via promauto in their
// respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - subshift_ratelimit_remaining (Gauge): Requests remaining in the Reddit rate limit window
//   - subshift_ratelimit_blocks_total (Counter): Requests blocked because the budget was critical
//   - subshift_ratelimit_throttles_total (Counter): Requests delayed because the budget was low
//
// Request Metrics (pkg/reddit):
//   - subshift_reddit_requests_total{endpoint, status} (Counter): Reddit API requests by endpoint and HTTP status
//   - subshift_reddit_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - subshift_reddit_errors_total{class} (Counter): Errors by class (auth, client, server, rate_limit, network)
//
// Batch Metrics (pkg/batch):
//   - subshift_batch_waves_total{kind} (Counter): Execution waves by operation kind (chunk, item)
//   - subshift_batch_items_total{kind, result} (Counter): Items processed by kind and result
//
// Migration Metrics (pkg/migrate):
//   - subshift_migrations_total{result} (Counter): Migration runs by result (completed, partial, auth_failed, invalid)
//   - subshift_migration_duration_seconds (Histogram): End-to-end migration duration
//
// Cache Metrics (pkg/cache):
//   - subshift_cache_hits_total (Counter): Listing cache hits
//   - subshift_cache_misses_total (Counter): Listing cache misses
//   - subshift_cache_errors_total{operation} (Counter): Cache operation errors (get, set, delete)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(subshift_cache_hits_total[5m])) /
//   (sum(rate(subshift_cache_hits_total[5m])) + sum(rate(subshift_cache_misses_total[5m])))
//
//   # Rate Limit Budget
//   subshift_ratelimit_remaining < 30
//
//   # Request Error Rate
//   rate(subshift_reddit_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(subshift_reddit_request_duration_seconds_bucket[5m]))
//
//   # Migration Failure Ratio
//   rate(subshift_migrations_total{result!="completed"}[1h])
