// Package server provides the HTTP server for the DefconBoard dashboard and API.
//
// This package is internal and handles all HTTP concerns:
//
//   - Dashboard serving: the embedded HTML dashboard at "/"
//   - REST API: "/api/snapshot" and "POST /api/refresh"
//   - Server-Sent Events: snapshot updates at "/api/sse"
//   - Operations: "/healthz" and Prometheus "/metrics"
//
// Flashing is derived from each command's flash_until when a response is
// rendered, never stored. The server supports graceful shutdown via context
// cancellation, with a 5-second timeout for in-flight requests.
//
// The server is started automatically by [defconboard.Board.Start].
package server
