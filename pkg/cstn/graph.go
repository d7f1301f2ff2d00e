// Package cstn: the temporal constraint graph.
// This file defines Graph, the named collection of nodes and edges the
// checker propagates over. The backing store is a dense adjacency matrix
// indexed by integer node ids and grown geometrically, with bidirectional
// name indexes for O(1) lookup, per-node adjacency caches invalidated on
// structural mutation, and lazily computed observation caches.
package cstn

import "fmt"

// initialGraphCapacity is the starting side length of the adjacency matrix.
const initialGraphCapacity = 8

// graphGrowthFactor is the geometric growth applied when the matrix fills.
const graphGrowthFactor = 1.8

// Adjacent pairs an edge with its far endpoint, as returned by the per-node
// adjacency queries.
type Adjacent struct {
	Edge *Edge
	Node *Node
}

// EdgePair is an edge together with both endpoints.
type EdgePair struct {
	Edge *Edge
	Src  *Node
	Dst  *Node
}

// Graph is a named temporal constraint network: nodes indexed densely,
// at most one edge per ordered endpoint pair, an optional designated
// reference node Z, and a graph-owned alphabet interning contingent names.
//
// Not safe for concurrent use; a check owns its graph exclusively.
type Graph struct {
	name     string
	alphabet *Alphabet

	nodes     []*Node
	nodeIndex map[string]int

	matrix    [][]*Edge
	capacity  int
	edgeIndex map[string][2]int
	edgeCount int

	zID int

	// seq numbers derived-edge names; owned by the graph, never shared.
	seq int

	inCache  map[int][]Adjacent
	outCache map[int][]Adjacent

	obsByProp map[rune]*Node
	obsEdges  map[int][]Adjacent
	children  map[rune]Label
}

// NewGraph creates an empty graph with the given name.
func NewGraph(name string) *Graph {
	g := &Graph{
		name:      name,
		alphabet:  NewAlphabet(),
		nodeIndex: make(map[string]int),
		edgeIndex: make(map[string][2]int),
		zID:       -1,
	}
	g.grow(initialGraphCapacity)
	return g
}

// Name returns the graph's name.
func (g *Graph) Name() string {
	return g.name
}

// Alphabet returns the graph-owned contingent-name alphabet.
func (g *Graph) Alphabet() *Alphabet {
	return g.alphabet
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// grow reallocates the adjacency matrix to at least the requested side
// length, multiplying the current capacity by the growth factor until it
// fits.
func (g *Graph) grow(want int) {
	if want <= g.capacity {
		return
	}
	newCap := g.capacity
	if newCap == 0 {
		newCap = want
	}
	for newCap < want {
		newCap = int(float64(newCap)*graphGrowthFactor) + 1
	}
	matrix := make([][]*Edge, newCap)
	for i := range matrix {
		matrix[i] = make([]*Edge, newCap)
		if i < len(g.nodes) {
			copy(matrix[i], g.matrix[i])
		}
	}
	g.matrix = matrix
	g.capacity = newCap
}

// owns reports whether the node is attached to this graph.
func (g *Graph) owns(n *Node) bool {
	return n != nil && n.id >= 0 && n.id < len(g.nodes) && g.nodes[n.id] == n
}

// AddNode attaches a detached node to the graph. It fails when the name is
// empty or taken, the node is already attached, or the node observes a
// proposition already observed by another node.
func (g *Graph) AddNode(n *Node) error {
	if n == nil || n.name == "" {
		return configErrorf("Graph.AddNode", "node must be non-nil with a non-empty name")
	}
	if n.id != -1 {
		return configErrorf("Graph.AddNode", "node %q is already attached to a graph", n.name)
	}
	if _, exists := g.nodeIndex[n.name]; exists {
		return configErrorf("Graph.AddNode", "duplicate node name %q", n.name)
	}
	if prop, ok := n.Observes(); ok {
		if _, valid := propIndex(prop); !valid {
			return configErrorf("Graph.AddNode", "node %q observes %q, not a proposition", n.name, prop)
		}
		for _, other := range g.nodes {
			if p, o := other.Observes(); o && p == prop {
				return configErrorf("Graph.AddNode",
					"proposition %q already observed by node %q", prop, other.name)
			}
		}
	}

	g.grow(len(g.nodes) + 1)
	n.id = len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.nodeIndex[n.name] = n.id
	g.invalidateDerived()
	return nil
}

// Node returns the node with the given name, or nil.
func (g *Graph) Node(name string) *Node {
	id, ok := g.nodeIndex[name]
	if !ok {
		return nil
	}
	return g.nodes[id]
}

// Nodes returns a snapshot of all nodes in id order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// SetZ designates the named node as the reference time-point Z.
func (g *Graph) SetZ(name string) error {
	id, ok := g.nodeIndex[name]
	if !ok {
		return configErrorf("Graph.SetZ", "unknown node %q", name)
	}
	g.zID = id
	return nil
}

// Z returns the designated reference node, or nil when none is set.
func (g *Graph) Z() *Node {
	if g.zID < 0 {
		return nil
	}
	return g.nodes[g.zID]
}

// AddEdge attaches a detached edge between the named endpoints. It fails
// when an edge of that name exists, the endpoints are unknown, or the
// ordered pair is already occupied; callers merge into the existing edge
// instead of adding a parallel one.
func (g *Graph) AddEdge(e *Edge, src, dst string) error {
	if e == nil || e.name == "" {
		return configErrorf("Graph.AddEdge", "edge must be non-nil with a non-empty name")
	}
	if _, exists := g.edgeIndex[e.name]; exists {
		return configErrorf("Graph.AddEdge", "duplicate edge name %q", e.name)
	}
	si, ok := g.nodeIndex[src]
	if !ok {
		return configErrorf("Graph.AddEdge", "unknown source node %q for edge %q", src, e.name)
	}
	di, ok := g.nodeIndex[dst]
	if !ok {
		return configErrorf("Graph.AddEdge", "unknown destination node %q for edge %q", dst, e.name)
	}
	if g.matrix[si][di] != nil {
		return configErrorf("Graph.AddEdge",
			"pair (%s,%s) already holds edge %q; merge into it instead", src, dst, g.matrix[si][di].name)
	}

	g.matrix[si][di] = e
	g.edgeIndex[e.name] = [2]int{si, di}
	g.edgeCount++
	g.invalidateAdjacency(si, di)
	g.invalidateDerived()
	return nil
}

// NewDerivedEdge creates, names, and attaches a fresh ordinary edge between
// two attached nodes, using the graph's sequence counter for a unique name.
// The constraint type is supplied by the rule asking for the edge.
func (g *Graph) NewDerivedEdge(src, dst *Node, t ConstraintType) (*Edge, error) {
	if !g.owns(src) || !g.owns(dst) {
		return nil, configErrorf("Graph.NewDerivedEdge", "endpoints must be attached to this graph")
	}
	if g.matrix[src.id][dst.id] != nil {
		return nil, configErrorf("Graph.NewDerivedEdge",
			"pair (%s,%s) already holds edge %q", src.name, dst.name, g.matrix[src.id][dst.id].name)
	}
	e := NewEdge(g.nextDerivedName(), t)
	g.matrix[src.id][dst.id] = e
	g.edgeIndex[e.name] = [2]int{src.id, dst.id}
	g.edgeCount++
	g.invalidateAdjacency(src.id, dst.id)
	g.invalidateDerived()
	return e, nil
}

// nextDerivedName returns the next unused name from the graph's sequence.
func (g *Graph) nextDerivedName() string {
	for {
		g.seq++
		name := fmt.Sprintf("e%d", g.seq)
		if _, exists := g.edgeIndex[name]; !exists {
			return name
		}
	}
}

// FindEdge returns the edge on the ordered (src, dst) pair, or nil.
func (g *Graph) FindEdge(src, dst string) *Edge {
	si, ok := g.nodeIndex[src]
	if !ok {
		return nil
	}
	di, ok := g.nodeIndex[dst]
	if !ok {
		return nil
	}
	return g.matrix[si][di]
}

// EdgeBetween returns the edge on the ordered pair of attached nodes, or nil.
func (g *Graph) EdgeBetween(src, dst *Node) *Edge {
	if !g.owns(src) || !g.owns(dst) {
		return nil
	}
	return g.matrix[src.id][dst.id]
}

// EdgeNamed returns the edge with the given name, or nil.
func (g *Graph) EdgeNamed(name string) *Edge {
	pos, ok := g.edgeIndex[name]
	if !ok {
		return nil
	}
	return g.matrix[pos[0]][pos[1]]
}

// Endpoints recovers the endpoints of an attached edge.
func (g *Graph) Endpoints(e *Edge) (src, dst *Node, ok bool) {
	if e == nil {
		return nil, nil, false
	}
	pos, found := g.edgeIndex[e.name]
	if !found || g.matrix[pos[0]][pos[1]] != e {
		return nil, nil, false
	}
	return g.nodes[pos[0]], g.nodes[pos[1]], true
}

// RemoveEdge detaches the named edge and reports whether it existed.
func (g *Graph) RemoveEdge(name string) bool {
	pos, ok := g.edgeIndex[name]
	if !ok {
		return false
	}
	g.matrix[pos[0]][pos[1]] = nil
	delete(g.edgeIndex, name)
	g.edgeCount--
	g.invalidateAdjacency(pos[0], pos[1])
	g.invalidateDerived()
	return true
}

// RemoveNode detaches the named node and every edge touching it, compacting
// the dense indexing by moving the last node into the freed slot. Reports
// whether the node existed.
func (g *Graph) RemoveNode(name string) bool {
	id, ok := g.nodeIndex[name]
	if !ok {
		return false
	}
	last := len(g.nodes) - 1

	// Drop every edge touching the removed node.
	for o := 0; o <= last; o++ {
		if e := g.matrix[id][o]; e != nil {
			delete(g.edgeIndex, e.name)
			g.matrix[id][o] = nil
			g.edgeCount--
		}
		if e := g.matrix[o][id]; e != nil {
			delete(g.edgeIndex, e.name)
			g.matrix[o][id] = nil
			g.edgeCount--
		}
	}

	removed := g.nodes[id]
	if id != last {
		// Swap-with-last: relocate the last node into the freed slot.
		moved := g.nodes[last]
		g.nodes[id] = moved
		moved.id = id
		g.nodeIndex[moved.name] = id
		for c := 0; c <= last; c++ {
			g.matrix[id][c] = g.matrix[last][c]
			g.matrix[last][c] = nil
		}
		for r := 0; r <= last; r++ {
			g.matrix[r][id] = g.matrix[r][last]
			g.matrix[r][last] = nil
		}
		for c := 0; c < last; c++ {
			if e := g.matrix[id][c]; e != nil {
				g.edgeIndex[e.name] = [2]int{id, c}
			}
		}
		for r := 0; r < last; r++ {
			if e := g.matrix[r][id]; e != nil {
				g.edgeIndex[e.name] = [2]int{r, id}
			}
		}
		if e := g.matrix[id][id]; e != nil {
			g.edgeIndex[e.name] = [2]int{id, id}
		}
	} else {
		for c := 0; c <= last; c++ {
			g.matrix[last][c] = nil
			g.matrix[c][last] = nil
		}
	}

	g.nodes = g.nodes[:last]
	delete(g.nodeIndex, name)
	removed.id = -1

	switch g.zID {
	case id:
		g.zID = -1
	case last:
		g.zID = id
	}

	g.inCache = nil
	g.outCache = nil
	g.invalidateDerived()
	return true
}

// RenameNode atomically renames a node, updating every index structure in
// one call.
func (g *Graph) RenameNode(oldName, newName string) error {
	id, ok := g.nodeIndex[oldName]
	if !ok {
		return configErrorf("Graph.RenameNode", "unknown node %q", oldName)
	}
	if newName == "" {
		return configErrorf("Graph.RenameNode", "new name must be non-empty")
	}
	if _, taken := g.nodeIndex[newName]; taken {
		return configErrorf("Graph.RenameNode", "node name %q already in use", newName)
	}
	delete(g.nodeIndex, oldName)
	g.nodeIndex[newName] = id
	g.nodes[id].name = newName
	g.invalidateDerived()
	return nil
}

// RenameEdge atomically renames an edge, updating the edge index in one
// call.
func (g *Graph) RenameEdge(oldName, newName string) error {
	pos, ok := g.edgeIndex[oldName]
	if !ok {
		return configErrorf("Graph.RenameEdge", "unknown edge %q", oldName)
	}
	if newName == "" {
		return configErrorf("Graph.RenameEdge", "new name must be non-empty")
	}
	if _, taken := g.edgeIndex[newName]; taken {
		return configErrorf("Graph.RenameEdge", "edge name %q already in use", newName)
	}
	delete(g.edgeIndex, oldName)
	g.edgeIndex[newName] = pos
	g.matrix[pos[0]][pos[1]].name = newName
	g.invalidateDerived()
	return nil
}

// Transpose reverses every edge in place, swapping (i,j) with (j,i) and
// invalidating the adjacency caches.
func (g *Graph) Transpose() {
	order := len(g.nodes)
	for i := 0; i < order; i++ {
		for j := 0; j < i; j++ {
			g.matrix[i][j], g.matrix[j][i] = g.matrix[j][i], g.matrix[i][j]
		}
	}
	for name, pos := range g.edgeIndex {
		g.edgeIndex[name] = [2]int{pos[1], pos[0]}
	}
	g.inCache = nil
	g.outCache = nil
	g.invalidateDerived()
}

// InEdges returns the edges entering the node, each paired with its source.
// The slice is cached until a structural mutation touches the node; callers
// must not modify it.
func (g *Graph) InEdges(n *Node) []Adjacent {
	if !g.owns(n) {
		return nil
	}
	if g.inCache == nil {
		g.inCache = make(map[int][]Adjacent)
	} else if adj, ok := g.inCache[n.id]; ok {
		return adj
	}
	var adj []Adjacent
	for s := 0; s < len(g.nodes); s++ {
		if e := g.matrix[s][n.id]; e != nil {
			adj = append(adj, Adjacent{Edge: e, Node: g.nodes[s]})
		}
	}
	g.inCache[n.id] = adj
	return adj
}

// OutEdges returns the edges leaving the node, each paired with its
// destination. The slice is cached until a structural mutation touches the
// node; callers must not modify it.
func (g *Graph) OutEdges(n *Node) []Adjacent {
	if !g.owns(n) {
		return nil
	}
	if g.outCache == nil {
		g.outCache = make(map[int][]Adjacent)
	} else if adj, ok := g.outCache[n.id]; ok {
		return adj
	}
	var adj []Adjacent
	for d := 0; d < len(g.nodes); d++ {
		if e := g.matrix[n.id][d]; e != nil {
			adj = append(adj, Adjacent{Edge: e, Node: g.nodes[d]})
		}
	}
	g.outCache[n.id] = adj
	return adj
}

// Edges returns every edge with its endpoints, in row-major matrix order.
func (g *Graph) Edges() []EdgePair {
	out := make([]EdgePair, 0, g.edgeCount)
	for s := 0; s < len(g.nodes); s++ {
		for d := 0; d < len(g.nodes); d++ {
			if e := g.matrix[s][d]; e != nil {
				out = append(out, EdgePair{Edge: e, Src: g.nodes[s], Dst: g.nodes[d]})
			}
		}
	}
	return out
}

// Observer returns the node observing the proposition, or nil. The
// proposition-to-observer mapping is computed lazily and cached until the
// next structural mutation.
func (g *Graph) Observer(prop rune) *Node {
	if g.obsByProp == nil {
		g.obsByProp = make(map[rune]*Node)
		for _, n := range g.nodes {
			if p, ok := n.Observes(); ok {
				g.obsByProp[p] = n
			}
		}
	}
	return g.obsByProp[prop]
}

// Observers returns every observation node in id order.
func (g *Graph) Observers() []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.IsObserver() {
			out = append(out, n)
		}
	}
	return out
}

// ObservationEdgesTo returns, for each observation node with an edge to d,
// that edge paired with the observer. Cached lazily per destination until
// the next structural mutation.
func (g *Graph) ObservationEdgesTo(d *Node) []Adjacent {
	if !g.owns(d) {
		return nil
	}
	if g.obsEdges == nil {
		g.obsEdges = make(map[int][]Adjacent)
	} else if adj, ok := g.obsEdges[d.id]; ok {
		return adj
	}
	var adj []Adjacent
	for _, obs := range g.Observers() {
		if obs == d {
			continue
		}
		if e := g.matrix[obs.id][d.id]; e != nil {
			adj = append(adj, Adjacent{Edge: e, Node: obs})
		}
	}
	g.obsEdges[d.id] = adj
	return adj
}

// ChildrenOf returns the closure of "child" propositions of an observation
// node as a label of straight literals: q is a child of p when the observer
// of q carries p in its own label, and children of children are included.
// Cached lazily per proposition until the next structural mutation.
func (g *Graph) ChildrenOf(obs *Node) Label {
	prop, ok := obs.Observes()
	if !ok {
		return EmptyLabel
	}
	if g.children == nil {
		g.children = make(map[rune]Label)
	} else if l, cached := g.children[prop]; cached {
		return l
	}

	result := EmptyLabel
	seen := map[rune]bool{prop: true}
	frontier := []rune{prop}
	for len(frontier) > 0 {
		p := frontier[0]
		frontier = frontier[1:]
		for _, q := range g.Observers() {
			qProp, _ := q.Observes()
			if seen[qProp] || !q.Label().Has(p) {
				continue
			}
			seen[qProp] = true
			result = result.ConjunctionExtended(straightLabel(qProp))
			frontier = append(frontier, qProp)
		}
	}
	g.children[prop] = result
	return result
}

// straightLabel builds the single straight-literal label for a proposition.
func straightLabel(prop rune) Label {
	i, ok := propIndex(prop)
	if !ok {
		return EmptyLabel
	}
	return Label{b0: uint64(1) << i}
}

// invalidateAdjacency drops the cached adjacency slices of the endpoints of
// a mutated pair.
func (g *Graph) invalidateAdjacency(src, dst int) {
	if g.outCache != nil {
		delete(g.outCache, src)
	}
	if g.inCache != nil {
		delete(g.inCache, dst)
	}
}

// invalidateDerived drops every lazily computed observation cache. Called on
// any node or edge addition, removal, or rename.
func (g *Graph) invalidateDerived() {
	g.obsByProp = nil
	g.obsEdges = nil
	g.children = nil
}

// String renders the graph header with its node and edge counts.
func (g *Graph) String() string {
	return fmt.Sprintf("Graph %q: %d nodes, %d edges", g.name, len(g.nodes), g.edgeCount)
}
