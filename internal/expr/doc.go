// Package expr implements the condition language used by branch nodes and
// choice links.
//
// A condition is a conjunction of atoms joined by "&&". An atom is a boolean
// literal or a comparison "<left> <op> <right>" with op one of >=, <=, ==,
// !=, > and <. Operands are property references written "[Name]" or bare
// literals typed as integer, boolean, quoted string or raw string.
//
// Evaluation is total: a blank condition is true, a malformed atom or an
// unknown property is false, and nothing panics.
package expr
