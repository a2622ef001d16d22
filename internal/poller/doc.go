// Package poller provides the fetching and scheduling primitives for DefconBoard.
//
// This package is internal to DefconBoard. It knows nothing about threat
// levels or commands; it only retrieves pages and runs work on a timer.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeout and size limit
//   - [FetchError]: Classified fetch failure (timeout, non-2xx status, network)
//   - [Scheduler]: Single-flight interval loop with on-demand triggers
//
// Users of the defconboard library should not need to interact with this
// package directly. Configuration is done through the main defconboard package.
package poller
