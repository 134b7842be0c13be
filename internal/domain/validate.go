package domain

import "fmt"

// WarningCode classifies a load-time integrity problem
type WarningCode string

const (
	WarnDanglingTarget     WarningCode = "dangling_target"
	WarnUnknownTarget      WarningCode = "unknown_target"
	WarnDuplicateNode      WarningCode = "duplicate_node"
	WarnBranchMissingArm   WarningCode = "branch_missing_arm"
	WarnDuplicatePort      WarningCode = "duplicate_port"
	WarnDuplicateProperty  WarningCode = "duplicate_property"
	WarnMissingEntry       WarningCode = "missing_entry"
	WarnUnknownCommentNode WarningCode = "unknown_comment_node"
	WarnInvalidCondition   WarningCode = "invalid_condition"
	WarnUnknownProperty    WarningCode = "unknown_property"
)

// Warning is a non-fatal integrity finding. A graph with warnings still
// loads and plays; the affected paths end the session when reached.
type Warning struct {
	Code    WarningCode `json:"code"`
	NodeID  string      `json:"node_id,omitempty"`
	PortID  string      `json:"port_id,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Validate checks referential integrity and returns every problem found
func (c *Container) Validate() []Warning {
	var warnings []Warning
	warn := func(code WarningCode, nodeID, portID, format string, args ...any) {
		warnings = append(warnings, Warning{
			Code:    code,
			NodeID:  nodeID,
			PortID:  portID,
			Message: fmt.Sprintf(format, args...),
		})
	}

	nodeIDs := make(map[string]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		if nodeIDs[n.ID] {
			warn(WarnDuplicateNode, n.ID, "", "node id %q is used more than once", n.ID)
		}
		nodeIDs[n.ID] = true
	}

	type portKey struct{ source, port string }
	ports := make(map[portKey]bool, len(c.Links))
	for _, l := range c.Links {
		switch {
		case !l.Resolved():
			warn(WarnDanglingTarget, l.SourceID, l.PortID, "port %q of %q is not connected", l.PortID, l.SourceID)
		case !nodeIDs[l.TargetID]:
			warn(WarnUnknownTarget, l.SourceID, l.PortID, "port %q of %q points at missing node %q", l.PortID, l.SourceID, l.TargetID)
		}

		key := portKey{l.SourceID, l.PortID}
		if isBranchPort(l.PortID) || l.IsStart() {
			key.port = normalizeReserved(l.PortID)
		}
		if ports[key] {
			warn(WarnDuplicatePort, l.SourceID, l.PortID, "port %q of %q has more than one link", l.PortID, l.SourceID)
		}
		ports[key] = true
	}

	for _, n := range c.Nodes {
		if !n.IsBranch() {
			continue
		}
		for _, outcome := range []bool{true, false} {
			if _, ok := c.BranchArm(n.ID, outcome); !ok {
				warn(WarnBranchMissingArm, n.ID, fmt.Sprint(outcome), "branch %q has no %t link", n.ID, outcome)
			}
		}
	}

	if _, ok := c.EntryLink(); !ok {
		warn(WarnMissingEntry, "", "", "graph has no entry link")
	}

	names := make(map[string]bool, len(c.Properties))
	for _, p := range c.Properties {
		if names[p.Name] {
			warn(WarnDuplicateProperty, "", "", "property %q is declared more than once", p.Name)
		}
		names[p.Name] = true
	}

	for _, block := range c.Comments {
		for _, id := range block.NodeIDs {
			if !nodeIDs[id] {
				warn(WarnUnknownCommentNode, id, "", "comment block %q references missing node %q", block.Title, id)
			}
		}
	}

	return warnings
}

func normalizeReserved(port string) string {
	switch {
	case isBranchPort(port):
		if (Link{PortID: port}).IsBranchArm(true) {
			return PortTrue
		}
		return PortFalse
	default:
		return PortStart
	}
}
