// Package history records dispatched alerts so operators can inspect
// what fired recently. Two stores are provided: an in-memory ring
// buffer for ephemeral deployments and a SQLite store for persistence
// across restarts.
package history
