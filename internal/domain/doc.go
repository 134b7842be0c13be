// Package domain defines the dialogue graph model shared by the engine, the
// codecs and the repository.
//
// # Core Types
//
// Node is one beat of a conversation: a dialogue line, a branch decision or
// an end marker.
//
// Link is a directed edge leaving a node through a port. Dialogue ports are
// player choices with a label and an optional condition; branch nodes use the
// fixed ports "true" and "false"; the synthetic entry node has a single
// "start" port.
//
// Property is an exposed, string-valued variable read by conditions and by
// [name] text substitution.
//
// CommentBlock is editor-only grouping metadata kept for lossless round trips.
//
// Container aggregates all of the above. It is the unit that is saved,
// loaded and traversed.
//
// # Integrity
//
// Validate reports dangling links, duplicate ids and ports, branch nodes
// missing an arm and a missing entry link as warnings. None of them stop a
// graph from loading.
//
// # Design Principles
//
// - Ordered slices everywhere; link order is choice order
// - No database or external dependencies beyond id generation
// - The engine only ever mutates property values
package domain
