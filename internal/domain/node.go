package domain

import (
	"fmt"
	"strings"
)

// NodeKind represents the role a node plays during traversal
type NodeKind string

const (
	NodeKindDialogue NodeKind = "dialogue" // Shows text and offers choices
	NodeKindBranch   NodeKind = "branch"   // Resolved automatically from its condition
	NodeKindEnd      NodeKind = "end"      // Terminates the session
)

// ParseNodeKind maps a persisted kind name to a NodeKind. Matching is
// case-insensitive; an empty name is a dialogue node.
func ParseNodeKind(s string) (NodeKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(NodeKindDialogue):
		return NodeKindDialogue, nil
	case string(NodeKindBranch):
		return NodeKindBranch, nil
	case string(NodeKindEnd):
		return NodeKindEnd, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidNodeKind, s)
}

// Valid reports whether k is one of the known kinds
func (k NodeKind) Valid() bool {
	switch k {
	case NodeKindDialogue, NodeKindBranch, NodeKindEnd:
		return true
	}
	return false
}

// Node is one vertex of a dialogue graph
type Node struct {
	ID   string   `json:"id"`
	Kind NodeKind `json:"kind"`

	// Text is the dialogue line or a localization key
	Text string `json:"text"`

	// Condition decides a branch node's outcome; empty means always true
	Condition string `json:"condition"`

	DebugLabel string   `json:"debug_label"`
	Position   Position `json:"position"`
}

// NewNode creates a node of the given kind
func NewNode(id string, kind NodeKind, text string) *Node {
	return &Node{
		ID:   id,
		Kind: kind,
		Text: text,
	}
}

// IsBranch reports whether the node is resolved without player input
func (n *Node) IsBranch() bool {
	return n.Kind == NodeKindBranch
}

// IsEnd reports whether reaching the node ends the session
func (n *Node) IsEnd() bool {
	return n.Kind == NodeKindEnd
}
