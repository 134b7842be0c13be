package expr

import (
	"fmt"
	"strings"
)

// Operator is a comparison operator
type Operator string

const (
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
)

// operators is the match order. Two-character operators come first so that
// ">=" is never read as ">" followed by "=...".
var operators = []Operator{OpGreaterEqual, OpLessEqual, OpEqual, OpNotEqual, OpGreater, OpLess}

// conjunction separates atoms. There is no disjunction and no grouping.
const conjunction = "&&"

// Resolver looks up the current value of a named property
type Resolver interface {
	Lookup(name string) (string, bool)
}

// MapResolver adapts a plain map to Resolver
type MapResolver map[string]string

// Lookup implements Resolver
func (m MapResolver) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// SyntaxError describes an atom that is neither a boolean literal nor a
// well-formed comparison
type SyntaxError struct {
	Atom   int
	Text   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("atom %d %q: %s", e.Atom, e.Text, e.Reason)
}

// Operand is one side of a comparison: a property reference or a literal
type Operand struct {
	Ref   string
	IsRef bool
	Value Value
}

func parseOperand(token string) Operand {
	if len(token) >= 2 && strings.HasPrefix(token, "[") && strings.HasSuffix(token, "]") {
		return Operand{Ref: token[1 : len(token)-1], IsRef: true}
	}
	return Operand{Value: ParseLiteral(token)}
}

func (o Operand) resolve(r Resolver) (Value, bool) {
	if !o.IsRef {
		return o.Value, true
	}
	if r == nil {
		return Value{}, false
	}
	raw, ok := r.Lookup(o.Ref)
	if !ok {
		return Value{}, false
	}
	return ParseLiteral(raw), true
}

// Atom is either a bare boolean literal or a comparison
type Atom struct {
	IsLiteral bool
	Literal   bool

	Left  Operand
	Op    Operator
	Right Operand
}

func (a Atom) eval(r Resolver) bool {
	if a.IsLiteral {
		return a.Literal
	}
	left, ok := a.Left.resolve(r)
	if !ok {
		return false
	}
	right, ok := a.Right.resolve(r)
	if !ok {
		return false
	}
	return Compare(left, a.Op, right)
}

// Expr is a parsed condition: the conjunction of its atoms. The zero Expr
// has no atoms and is always satisfied.
type Expr struct {
	Source string
	Atoms  []Atom
}

// Eval reports whether every atom holds against r
func (e Expr) Eval(r Resolver) bool {
	for _, a := range e.Atoms {
		if !a.eval(r) {
			return false
		}
	}
	return true
}

// Vars returns the property names referenced by the expression, in order of
// first appearance
func (e Expr) Vars() []string {
	var vars []string
	seen := make(map[string]bool)
	for _, a := range e.Atoms {
		for _, o := range []Operand{a.Left, a.Right} {
			if o.IsRef && !seen[o.Ref] {
				seen[o.Ref] = true
				vars = append(vars, o.Ref)
			}
		}
	}
	return vars
}

// Parse compiles a condition string. A blank string yields an empty Expr.
func Parse(source string) (Expr, error) {
	e := Expr{Source: source}
	if strings.TrimSpace(source) == "" {
		return e, nil
	}

	for i, part := range strings.Split(source, conjunction) {
		atom, err := parseAtom(i, strings.TrimSpace(part))
		if err != nil {
			return e, err
		}
		e.Atoms = append(e.Atoms, atom)
	}
	return e, nil
}

func parseAtom(index int, text string) (Atom, error) {
	if text == "" {
		return Atom{}, &SyntaxError{Atom: index, Text: text, Reason: "empty atom"}
	}
	if b, ok := parseBool(text); ok {
		return Atom{IsLiteral: true, Literal: b}, nil
	}

	for _, op := range operators {
		idx := strings.Index(text, string(op))
		if idx < 0 {
			continue
		}
		left := strings.TrimSpace(text[:idx])
		right := strings.TrimSpace(text[idx+len(op):])
		if left == "" || right == "" {
			return Atom{}, &SyntaxError{Atom: index, Text: text, Reason: "missing operand"}
		}
		return Atom{Left: parseOperand(left), Op: op, Right: parseOperand(right)}, nil
	}

	return Atom{}, &SyntaxError{Atom: index, Text: text, Reason: "no comparison operator"}
}

// Evaluate parses and evaluates source against r. It never fails: a blank
// expression is true, a malformed one is false, and an unresolved property
// makes its atom false.
func Evaluate(source string, r Resolver) bool {
	e, err := Parse(source)
	if err != nil {
		return false
	}
	return e.Eval(r)
}
