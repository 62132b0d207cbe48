// Package timeouts defines shared timeout constants used across contactkeeper
// processes.
package timeouts

import "time"

// HealthDial caps the wait time when dialing the gRPC health endpoint.
const HealthDial = 2 * time.Second

// Request caps a single contacts API call made by the CLI client.
const Request = 5 * time.Second

// Introspection caps a token introspection round trip.
const Introspection = 3 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long a server waits for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second
