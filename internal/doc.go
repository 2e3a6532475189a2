// Package internal documents the EventDesk server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP routing, middleware, and page handlers
// - domain: users, venues, and events with their repository contracts
// - storage: request-scoped connections and the Postgres repositories
// - auth, audit, config, metrics, telemetry: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
