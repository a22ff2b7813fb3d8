// Package server exposes the live state of a slotwatch run over HTTP.
//
//   - REST API: JSON snapshot at "/api/status" (phase, winner, workers)
//   - Server-Sent Events: worker updates streamed at "/api/sse"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests. It is started by the
// orchestrator when a status port is configured.
package server
