// Package timeouts defines shared timeout constants used across the service.
// Centralizing these values keeps the durations discoverable and prevents
// drift between the HTTP server and its callers.
package timeouts

import "time"

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// LedgerCall caps the time allowed for a single ledger adapter call made on
// behalf of one API request.
const LedgerCall = 2 * time.Second
