// Package metrics exposes Prometheus instrumentation for the marker engine.
//
// Metrics are registered eagerly via promauto at package init and are safe
// for concurrent use from any engine operation.
//
//	import "github.com/sceneindex/markerd/internal/metrics"
//
//	metrics.EngineOpDuration.WithLabelValues("add").Observe(elapsed.Seconds())
//	metrics.EngineOpErrors.WithLabelValues("add", "overlap").Inc()
package metrics
