package engine

import "go.uber.org/zap"

// TextResolver turns a node text or choice label into display text, for
// example by treating it as a localization key. It must answer
// synchronously; ok=false reports a missing entry, in which case the
// returned text is still displayed.
type TextResolver interface {
	Resolve(key string) (text string, ok bool)
}

// TextResolverFunc adapts a function to TextResolver
type TextResolverFunc func(key string) (string, bool)

// Resolve implements TextResolver
func (f TextResolverFunc) Resolve(key string) (string, bool) { return f(key) }

// Severity grades a diagnostic
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic code values
const (
	DiagNoEntry          = "no_entry"
	DiagLegacyEntry      = "legacy_entry"
	DiagMissingNode      = "missing_node"
	DiagMissingBranchArm = "missing_branch_arm"
	DiagBranchCycle      = "branch_cycle"
	DiagInvalidChoice    = "invalid_choice"
	DiagUnknownTarget    = "unknown_target"
	DiagMissingText      = "missing_text"
	DiagInvalidCondition = "invalid_condition"
)

// Diagnostic is a problem the engine recovered from
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	NodeID   string   `json:"node_id,omitempty"`
	Message  string   `json:"message"`
}

// Observer receives every diagnostic a session produces
type Observer interface {
	Diagnostic(d Diagnostic)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(d Diagnostic)

// Diagnostic implements Observer
func (f ObserverFunc) Diagnostic(d Diagnostic) { f(d) }

// Option configures a Session
type Option func(*Session)

// WithLogger sets the logger used for diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTextResolver routes node text and choice labels through r before
// property substitution
func WithTextResolver(r TextResolver) Option {
	return func(s *Session) {
		s.resolver = r
	}
}

// WithObserver registers an observer for diagnostics
func WithObserver(o Observer) Option {
	return func(s *Session) {
		s.observer = o
	}
}
