package expr

import (
	"strconv"
	"strings"
)

// Kind identifies which case of a Value is populated
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindString
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a resolved operand. Exactly one of the payload fields is
// meaningful, selected by Kind.
type Value struct {
	Kind Kind
	Int  int64
	Bool bool
	Str  string
}

// IntValue builds an integer value
func IntValue(v int64) Value { return Value{Kind: KindInt, Int: v} }

// BoolValue builds a boolean value
func BoolValue(v bool) Value { return Value{Kind: KindBool, Bool: v} }

// StringValue builds a string value
func StringValue(v string) Value { return Value{Kind: KindString, Str: v} }

// String renders the value for diagnostics
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return strconv.Quote(v.Str)
	}
}

// ParseLiteral types a bare token. It is tried as a signed integer, then a
// boolean literal, then a double-quoted string; anything else is kept as a
// raw string.
func ParseLiteral(token string) Value {
	token = strings.TrimSpace(token)

	if i, err := strconv.ParseInt(token, 10, 64); err == nil {
		return IntValue(i)
	}
	if b, ok := parseBool(token); ok {
		return BoolValue(b)
	}
	if len(token) >= 2 && strings.HasPrefix(token, `"`) && strings.HasSuffix(token, `"`) {
		return StringValue(token[1 : len(token)-1])
	}
	return StringValue(token)
}

func parseBool(token string) (bool, bool) {
	switch {
	case strings.EqualFold(token, "true"):
		return true, true
	case strings.EqualFold(token, "false"):
		return false, true
	}
	return false, false
}

// Compare applies op to a pair of values. It is total: pairings without a
// defined meaning compare unequal and fail every ordering.
func Compare(left Value, op Operator, right Value) bool {
	if left.Kind != right.Kind {
		return op == OpNotEqual
	}

	switch left.Kind {
	case KindInt:
		switch op {
		case OpGreaterEqual:
			return left.Int >= right.Int
		case OpLessEqual:
			return left.Int <= right.Int
		case OpEqual:
			return left.Int == right.Int
		case OpNotEqual:
			return left.Int != right.Int
		case OpGreater:
			return left.Int > right.Int
		case OpLess:
			return left.Int < right.Int
		}
	case KindBool:
		switch op {
		case OpEqual:
			return left.Bool == right.Bool
		case OpNotEqual:
			return left.Bool != right.Bool
		}
	case KindString:
		switch op {
		case OpEqual:
			return left.Str == right.Str
		case OpNotEqual:
			return left.Str != right.Str
		}
	}
	return false
}
