// Package cstn: time-point nodes.
// This file defines Node, a named time-point with an optional own label for
// nested conditional scopes and role flags marking observation, contingent,
// and parameter time-points.
package cstn

import "strings"

// Node is a time-point of a temporal constraint graph.
//
// A node may observe a proposition: executing it reveals the proposition's
// truth value. A contingent node is the uncontrollable end of a contingent
// link. A parameter node is an extra distinguished time-point treated
// symmetrically to the reference node by the parameterized variant.
//
// Role flags and the observed proposition must be set before the node is
// added to a Graph: AddNode validates observer uniqueness at insertion.
type Node struct {
	name       string
	label      Label
	observed   rune
	contingent bool
	parameter  bool

	// id is the dense index assigned by the owning graph, -1 when detached.
	id int
}

// NewNode creates a detached node with the given name and an empty label.
func NewNode(name string) *Node {
	return &Node{name: name, id: -1}
}

// NewObserver creates a detached node observing the given proposition.
func NewObserver(name string, prop rune) *Node {
	n := NewNode(name)
	n.SetObserves(prop)
	return n
}

// Name returns the node's name. Renaming goes through Graph.RenameNode so
// the graph's indexes stay consistent.
func (n *Node) Name() string {
	return n.name
}

// Label returns the node's own label.
func (n *Node) Label() Label {
	return n.label
}

// SetLabel sets the node's own label.
func (n *Node) SetLabel(l Label) {
	n.label = l
}

// Observes returns the proposition this node observes, if any.
func (n *Node) Observes() (rune, bool) {
	return n.observed, n.observed != 0
}

// SetObserves marks the node as the observer of prop. Passing 0 clears the
// flag. Must be called before the node is added to a graph.
func (n *Node) SetObserves(prop rune) {
	n.observed = prop
}

// IsObserver reports whether the node observes a proposition.
func (n *Node) IsObserver() bool {
	return n.observed != 0
}

// IsContingent reports whether the node is the uncontrollable end of a
// contingent link.
func (n *Node) IsContingent() bool {
	return n.contingent
}

// SetContingent sets the contingent role flag.
func (n *Node) SetContingent(v bool) {
	n.contingent = v
}

// IsParameter reports whether the node is a parameter time-point.
func (n *Node) IsParameter() bool {
	return n.parameter
}

// SetParameter sets the parameter role flag.
func (n *Node) SetParameter(v bool) {
	n.parameter = v
}

// String renders the node as ❮name; label; roles❯.
func (n *Node) String() string {
	var b strings.Builder
	b.WriteString("❮")
	b.WriteString(n.name)
	if !n.label.IsEmpty() {
		b.WriteString("; ")
		b.WriteString(n.label.String())
	}
	if n.observed != 0 {
		b.WriteString("; obs ")
		b.WriteRune(n.observed)
	}
	if n.contingent {
		b.WriteString("; contingent")
	}
	if n.parameter {
		b.WriteString("; parameter")
	}
	b.WriteString("❯")
	return b.String()
}
