// Package graph provides the author-time node graph: nested networks of nodes
// as built by the editor, before compilation.
//
// Networks live in an arena owned by a Document and are addressed by
// NetworkID. A composite node stores the NetworkID of its body instead of
// owning a nested structure, which keeps ownership flat and lets the
// compiler inline bodies with an explicit stack.
//
// Node identifiers are unique only within their own network. The same
// NodeID may appear in sibling or nested networks with no relation implied;
// a Path disambiguates a node across nesting levels.
package graph
