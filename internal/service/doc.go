// Package service implements business logic for the dialogue server.
//
// This package sits between the HTTP handlers and the repository layer,
// applying naming rules, linting graphs and publishing events.
//
// # Services
//
// GraphService stores, imports, exports, deletes and lints dialogue graphs
// through codec adapters and the repository.
//
// SessionService runs live dialogue sessions. Every session traverses its
// own copy of the graph loaded at start, so property changes stay local to
// one player. Sessions are capped in number and reaped when idle.
//
// # Event System
//
// Both services publish events via EventBus for real-time updates to
// connected clients over Server-Sent Events (SSE): graph_saved,
// graph_deleted, session_started, session_advanced, session_ended and
// property_changed.
package service
