// Package repository defines the storage interface for dialogue graphs.
//
// A graph is stored and replaced as a whole: nodes, links, properties and
// comment blocks keep their order, which matters at runtime because link
// order is choice order and property order is substitution priority.
// Each stored graph carries a content checksum so that saving an unchanged
// graph does not rewrite it.
//
// The implementation lives in the sqlite subpackage.
package repository
