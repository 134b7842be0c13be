// Package handler implements the HTTP API of the dialogue server.
//
// # Handlers
//
// GraphHandler stores, exports, validates and deletes dialogue graphs.
// SessionHandler starts play sessions, follows choices, changes session
// properties and serves the websocket play loop.
//
// # Routes
//
//	GET    /health
//	GET    /metrics
//	GET    /api/events
//	GET    /api/graphs
//	GET    /api/graphs/{name}?format=json|yaml
//	PUT    /api/graphs/{name}?format=json|yaml
//	DELETE /api/graphs/{name}
//	GET    /api/graphs/{name}/validate
//	PUT    /api/graphs/{name}/properties/{prop}
//	GET    /api/sessions
//	POST   /api/sessions
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	POST   /api/sessions/{id}/proceed
//	PUT    /api/sessions/{id}/properties/{prop}
//	GET    /api/sessions/{id}/ws
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes (200, 201,
// 204). Error responses return JSON with {error, details} structure. Unknown
// graphs and sessions map to 404, malformed documents and names to 400,
// refused choices to 422, steps on an ended session to 409 and a full
// session store to 429.
package handler
