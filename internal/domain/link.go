package domain

import "strings"

// Reserved port ids
const (
	PortStart = "start" // The single outgoing link of the synthetic entry node
	PortTrue  = "true"  // Branch outcome when the condition holds
	PortFalse = "false" // Branch outcome otherwise
)

// Link is a directed edge from a node's output port to another node
type Link struct {
	SourceID string `json:"source_id"`

	// TargetID is empty when the port is not connected
	TargetID string `json:"target_id"`

	PortID string `json:"port_id"`

	// Label is the choice text or a localization key
	Label string `json:"label"`

	// Condition gates whether a dialogue choice is offered
	Condition string `json:"condition"`
}

// NewLink creates a link
func NewLink(sourceID, targetID, portID, label string) *Link {
	return &Link{
		SourceID: sourceID,
		TargetID: targetID,
		PortID:   portID,
		Label:    label,
	}
}

// Resolved reports whether the link points at a node id
func (l Link) Resolved() bool {
	return strings.TrimSpace(l.TargetID) != ""
}

// IsStart reports whether the link is tagged as the entry link
func (l Link) IsStart() bool {
	return strings.EqualFold(l.PortID, PortStart)
}

// IsBranchArm reports whether the link is the branch arm for outcome
func (l Link) IsBranchArm(outcome bool) bool {
	if outcome {
		return strings.EqualFold(l.PortID, PortTrue)
	}
	return strings.EqualFold(l.PortID, PortFalse)
}

// isBranchPort reports whether port is one of the two fixed branch ports
func isBranchPort(port string) bool {
	return strings.EqualFold(port, PortTrue) || strings.EqualFold(port, PortFalse)
}

// samePort compares port ids the way traversal does: branch and start ports
// are case-insensitive, choice ports are exact
func samePort(a, b string) bool {
	if isBranchPort(a) || strings.EqualFold(a, PortStart) {
		return strings.EqualFold(a, b)
	}
	return a == b
}
