// Package store holds the latest board snapshot for the HTTP layer.
//
// This package is internal to DefconBoard. It keeps the most recently
// published snapshot together with refresh health (last attempt, last error)
// and fans updates out to subscribers such as Server-Sent Events clients.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [Snapshot], [CommandStatus], [Health]: JSON-ready storage types
//
// A failed refresh never replaces the stored snapshot; it only updates
// [Health], so dashboards keep showing the last successful update time.
package store
