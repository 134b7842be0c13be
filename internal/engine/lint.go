package engine

import (
	"fmt"

	"branchline/internal/domain"
	"branchline/internal/expr"
)

// Lint extends the graph's structural validation with condition checks:
// syntax errors and references to properties the graph does not declare.
// Conditions the engine ignores (on end nodes, dialogue nodes and branch
// arms) are not checked.
func Lint(c *domain.Container) []domain.Warning {
	warnings := c.Validate()

	check := func(nodeID, portID, condition string) {
		e, err := expr.Parse(condition)
		if err != nil {
			warnings = append(warnings, domain.Warning{
				Code:    domain.WarnInvalidCondition,
				NodeID:  nodeID,
				PortID:  portID,
				Message: fmt.Sprintf("condition %q: %v", condition, err),
			})
			return
		}
		for _, name := range e.Vars() {
			if _, ok := c.Properties.Lookup(name); !ok {
				warnings = append(warnings, domain.Warning{
					Code:    domain.WarnUnknownProperty,
					NodeID:  nodeID,
					PortID:  portID,
					Message: fmt.Sprintf("condition %q references undeclared property %q", condition, name),
				})
			}
		}
	}

	for _, n := range c.Nodes {
		if !n.IsBranch() {
			continue
		}
		check(n.ID, "", n.Condition)
	}

	for _, l := range c.Links {
		source, ok := c.FindNode(l.SourceID)
		if !ok || source.Kind != domain.NodeKindDialogue {
			continue
		}
		check(l.SourceID, l.PortID, l.Condition)
	}

	return warnings
}
