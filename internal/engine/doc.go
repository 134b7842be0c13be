// Package engine runs dialogue sessions over a domain.Container.
//
// A Session starts at the graph's entry link and stops at each dialogue
// node with its substituted text and the choices whose conditions hold.
// Branch nodes are resolved inside the same step and are never shown to the
// caller. Reaching an end node, a dialogue node with no live choices, or a
// broken part of the graph ends the session with an EndReason instead of an
// error; problems are reported as Diagnostics through the logger and an
// optional Observer.
package engine
