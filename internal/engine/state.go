package engine

// Status is the externally visible phase of a session
type Status string

const (
	StatusIdle     Status = "idle"     // Created, not started
	StatusDialogue Status = "dialogue" // Waiting for the caller to pick a choice
	StatusEnded    Status = "ended"    // No further input possible
)

// EndReason says why a session reached StatusEnded
type EndReason string

const (
	EndNone             EndReason = ""
	EndNode             EndReason = "end_node"
	EndDeadEnd          EndReason = "dead_end"
	EndMissingBranchArm EndReason = "missing_branch_arm"
	EndMissingNode      EndReason = "missing_node"
	EndNoEntry          EndReason = "no_entry"
	EndBranchCycle      EndReason = "branch_cycle"
)

// Choice is one option offered to the player
type Choice struct {
	TargetID string `json:"target_id"`
	PortID   string `json:"port_id"`
	Label    string `json:"label"`
}

// State is a snapshot of a session after a step
type State struct {
	Status Status `json:"status"`

	// NodeID is the dialogue (or end) node the session stopped on; empty
	// when the session ended before reaching one
	NodeID string `json:"node_id,omitempty"`

	// Text is the substituted dialogue text. A dead-end dialogue keeps its
	// text in the ended state so it is shown exactly once.
	Text string `json:"text,omitempty"`

	Choices   []Choice  `json:"choices"`
	EndReason EndReason `json:"end_reason,omitempty"`

	// Step counts completed transitions since Start
	Step int `json:"step"`
}

// Ended reports whether the session can no longer proceed
func (s State) Ended() bool {
	return s.Status == StatusEnded
}

// Offers reports whether targetID is one of the current choices
func (s State) Offers(targetID string) bool {
	for _, c := range s.Choices {
		if c.TargetID == targetID {
			return true
		}
	}
	return false
}

// clone returns a copy whose choice slice is not shared
func (s State) clone() State {
	out := s
	out.Choices = append(make([]Choice, 0, len(s.Choices)), s.Choices...)
	return out
}
