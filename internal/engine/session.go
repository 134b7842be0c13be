package engine

import (
	"fmt"
	"strings"

	"branchline/internal/domain"
	"branchline/internal/expr"

	"go.uber.org/zap"
)

// Session walks one dialogue graph from its entry link to an end state.
//
// A Session is not safe for concurrent use. It only ever mutates property
// values of the graph it was given; callers that run several sessions over
// one graph hand each its own Clone.
type Session struct {
	graph    *domain.Container
	state    State
	logger   *zap.Logger
	resolver TextResolver
	observer Observer
}

// New creates an idle session over graph
func New(graph *domain.Container, opts ...Option) *Session {
	s := &Session{
		graph:  graph,
		state:  State{Status: StatusIdle, Choices: []Choice{}},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot
func (s *Session) State() State {
	return s.state.clone()
}

// Properties returns a copy of the current property values
func (s *Session) Properties() domain.Properties {
	return s.graph.Properties.Clone()
}

// SetProperty changes a property value. The new value is seen by the next
// step; the current text and choices are not recomputed.
func (s *Session) SetProperty(name, value string) error {
	return s.graph.SetPropertyValue(name, value)
}

// Start resolves the entry link and advances to the first dialogue node.
// Calling Start again restarts the session from the entry.
func (s *Session) Start() (State, error) {
	s.state = State{Status: StatusIdle, Choices: []Choice{}}

	link, strategy, ok := s.graph.EntryLinkStrategy()
	if !ok || !link.Resolved() {
		s.report(SeverityError, DiagNoEntry, "", "graph %q has no resolved entry link", s.graph.Name)
		s.end(EndNoEntry, "", "")
		return s.State(), ErrNoEntry
	}
	if strategy != "tagged" {
		s.report(SeverityWarning, DiagLegacyEntry, link.SourceID,
			"entry link found by %s fallback; tag it with the %q port", strategy, domain.PortStart)
	}

	s.advance(link.TargetID)
	return s.State(), nil
}

// Proceed follows the choice leading to targetID. It fails without changing
// state when the session is not waiting at a dialogue node or targetID is
// not among the offered choices.
func (s *Session) Proceed(targetID string) (State, error) {
	switch s.state.Status {
	case StatusIdle:
		return s.State(), ErrNotStarted
	case StatusEnded:
		return s.State(), ErrSessionEnded
	}

	if !s.state.Offers(targetID) {
		s.report(SeverityWarning, DiagInvalidChoice, s.state.NodeID,
			"target %q is not offered at node %q", targetID, s.state.NodeID)
		return s.State(), fmt.Errorf("%w: %s", ErrInvalidChoice, targetID)
	}

	s.advance(targetID)
	return s.State(), nil
}

// advance moves to targetID, resolving branch nodes in place until it
// reaches a dialogue node or an end condition. Branch nodes are never
// exposed to the caller.
func (s *Session) advance(targetID string) {
	step := s.state.Step + 1

	// A branch-only cycle would otherwise loop forever. Visiting more nodes
	// than the graph holds without stopping at a dialogue proves one.
	budget := len(s.graph.Nodes) + 1

	for hops := 0; ; hops++ {
		if hops > budget {
			s.report(SeverityError, DiagBranchCycle, targetID, "branch nodes form a cycle through %q", targetID)
			s.end(EndBranchCycle, "", "")
			s.state.Step = step
			return
		}

		node, ok := s.graph.FindNode(targetID)
		if !ok {
			s.report(SeverityError, DiagMissingNode, targetID, "node %q does not exist", targetID)
			s.end(EndMissingNode, "", "")
			s.state.Step = step
			return
		}

		switch node.Kind {
		case domain.NodeKindBranch:
			outcome := s.evaluate(node.ID, node.Condition)
			arm, ok := s.graph.BranchArm(node.ID, outcome)
			if !ok || !arm.Resolved() {
				s.report(SeverityWarning, DiagMissingBranchArm, node.ID,
					"branch %q has no connected %t link", node.ID, outcome)
				s.end(EndMissingBranchArm, "", "")
				s.state.Step = step
				return
			}
			s.logger.Debug("branch resolved",
				zap.String("node_id", node.ID),
				zap.Bool("outcome", outcome),
				zap.String("target_id", arm.TargetID))
			targetID = arm.TargetID
			continue

		case domain.NodeKindEnd:
			s.end(EndNode, node.ID, "")
			s.state.Step = step
			return

		default:
			text := s.render(node.ID, node.Text)
			choices := s.offeredChoices(node.ID)
			if len(choices) == 0 {
				s.end(EndDeadEnd, node.ID, text)
				s.state.Step = step
				return
			}
			s.state = State{
				Status:  StatusDialogue,
				NodeID:  node.ID,
				Text:    text,
				Choices: choices,
				Step:    step,
			}
			return
		}
	}
}

// offeredChoices returns the links of a dialogue node that lead to an
// existing node and whose condition holds, in stored order
func (s *Session) offeredChoices(nodeID string) []Choice {
	choices := make([]Choice, 0)
	for _, link := range s.graph.LinksFrom(nodeID) {
		if !link.Resolved() {
			continue
		}
		if _, ok := s.graph.FindNode(link.TargetID); !ok {
			s.report(SeverityWarning, DiagUnknownTarget, nodeID,
				"choice %q points at missing node %q", link.PortID, link.TargetID)
			continue
		}
		if !s.evaluate(nodeID, link.Condition) {
			continue
		}
		choices = append(choices, Choice{
			TargetID: link.TargetID,
			PortID:   link.PortID,
			Label:    s.render(nodeID, link.Label),
		})
	}
	return choices
}

// evaluate runs a condition against the current property values. Malformed
// conditions are reported and count as false.
func (s *Session) evaluate(nodeID, condition string) bool {
	e, err := expr.Parse(condition)
	if err != nil {
		s.report(SeverityWarning, DiagInvalidCondition, nodeID, "condition %q: %v", condition, err)
		return false
	}
	return e.Eval(s.graph)
}

// render resolves a text key and substitutes properties into it
func (s *Session) render(nodeID, raw string) string {
	if raw == "" {
		return ""
	}
	text := raw
	if s.resolver != nil {
		key := strings.TrimSpace(raw)
		resolved, ok := s.resolver.Resolve(key)
		if !ok {
			s.report(SeverityWarning, DiagMissingText, nodeID, "no text for key %q", key)
		}
		text = resolved
	}
	return s.graph.Properties.Substitute(text)
}

// end moves to StatusEnded and clears the offered choices
func (s *Session) end(reason EndReason, nodeID, text string) {
	s.state = State{
		Status:    StatusEnded,
		NodeID:    nodeID,
		Text:      text,
		Choices:   []Choice{},
		EndReason: reason,
		Step:      s.state.Step,
	}
}

func (s *Session) report(severity Severity, code, nodeID, format string, args ...any) {
	d := Diagnostic{
		Severity: severity,
		Code:     code,
		NodeID:   nodeID,
		Message:  fmt.Sprintf(format, args...),
	}

	fields := []zap.Field{
		zap.String("graph", s.graph.Name),
		zap.String("code", code),
		zap.String("node_id", nodeID),
	}
	if severity == SeverityError {
		s.logger.Error(d.Message, fields...)
	} else {
		s.logger.Warn(d.Message, fields...)
	}

	if s.observer != nil {
		s.observer.Diagnostic(d)
	}
}
