// Package timeouts defines shared timeout constants used by the registry
// binaries.
package timeouts

import "time"

// HealthDial caps how long a client waits for a health endpoint to report
// SERVING.
const HealthDial = 3 * time.Second

// HealthCheck caps a single gRPC health check call.
const HealthCheck = time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 10 * time.Second

// Shutdown limits how long an HTTP server or telemetry exporter waits for
// in-flight work during graceful shutdown.
const Shutdown = 5 * time.Second
