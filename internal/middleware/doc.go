/*
Package middleware provides HTTP middleware for the dispatcher's thin
transport front door.

Key Components:

  - RequestID: UUID-based request tracking, integrated with internal/logging
    for correlation-ID propagation
  - Compression: gzip compression for responses, pooled writers

Usage Example - Compression:

	import "github.com/sceneindex/markerd/internal/middleware"

	http.HandleFunc("/api/v1/markers",
	    middleware.RequestID(middleware.Compression(handler)),
	)

Thread Safety:

All middleware components are thread-safe: compression uses a sync.Pool of
per-request gzip writers, request ID uses immutable context.Context values.
*/
package middleware
