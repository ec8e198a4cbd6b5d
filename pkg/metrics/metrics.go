// Package metrics provides the centralized Prometheus metrics registry for
// the nexus proxy. All metrics are defined in their respective packages
// (cache, pacing, fetch, roblox, telemetry, policy) to maintain modularity
// and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the proxy.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - nexus_cache_hits_total{layer} (Counter): Cache hits by layer (memory, redis)
//   - nexus_cache_misses_total (Counter): Cache misses
//   - nexus_cache_errors_total{operation} (Counter): Cache operation errors
//   - nexus_cache_entries{layer} (Gauge): Current number of cached entries
//
// Pacing Metrics (pkg/pacing):
//   - nexus_pacing_waits_total (Counter): Acquisitions that had to wait for a slot
//   - nexus_pacing_wait_seconds (Histogram): Time spent waiting at the gate
//
// Upstream Request Metrics (pkg/fetch):
//   - nexus_upstream_requests_total{endpoint, status} (Counter): Outbound requests by endpoint and HTTP status
//   - nexus_upstream_request_duration_seconds{endpoint} (Histogram): Outbound request duration
//   - nexus_upstream_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//   - nexus_upstream_retries_total{error_class} (Counter): Retry attempts by error class
//   - nexus_upstream_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - nexus_upstream_retry_exhausted_total{error_class} (Counter): Requests that exhausted all attempts
//
// Aggregation Metrics (pkg/roblox):
//   - nexus_aggregation_runs_total (Counter): Full-collection aggregation runs
//   - nexus_aggregation_duration_seconds (Histogram): Aggregation wall-clock duration
//   - nexus_aggregation_category_failures_total{category} (Counter): Categories degraded to empty
//
// Usage Metrics (pkg/telemetry):
//   - nexus_requests_recorded_total{endpoint, status, platform} (Counter): Inbound requests recorded
//   - nexus_request_duration_seconds{endpoint} (Histogram): Inbound request duration
//   - nexus_usage_log_entries (Gauge): Current usage log size
//
// Policy Metrics (pkg/policy):
//   - nexus_api_enabled (Gauge): Whether aggregation requests are accepted
//   - nexus_blocked_entities (Gauge): Current number of blocked entities
//   - nexus_admin_actions_total{action} (Counter): Administrative actions performed
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(nexus_cache_hits_total[5m])) /
//   (sum(rate(nexus_cache_hits_total[5m])) + sum(rate(nexus_cache_misses_total[5m])))
//
//   # Upstream Error Rate
//   rate(nexus_upstream_errors_total[5m])
//
//   # P95 Aggregation Latency
//   histogram_quantile(0.95, rate(nexus_aggregation_duration_seconds_bucket[5m]))
//
//   # Degraded Category Rate
//   rate(nexus_aggregation_category_failures_total[5m]) / rate(nexus_aggregation_runs_total[5m])
