// Package graph maintains the connected components (islands) of the constraint
// graph incrementally as edges come and go.
//
// Nodes are bodies and edges are constraints. Fixed nodes are delimiters: they
// belong to no component and never join two components, so a static floor
// under many piles keeps the piles in separate islands. A node without edges
// belongs to no component either.
//
// Adding an edge merges the smaller component into the larger. Removing an edge
// only searches for a split when both endpoints keep other edges and are no
// longer directly joined; the search runs from both endpoints in alternation
// and stops as soon as one side is exhausted or the two sides meet, so its cost
// is bounded by the smaller resulting component.
package graph

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph/simple"
)

var (
	ErrUnknownNode = errors.New("unknown node")
	ErrUnknownEdge = errors.New("unknown edge")
	ErrDuplicate   = errors.New("edge already present")
	ErrSelfEdge    = errors.New("edge joins a node to itself")
)

type node[N comparable, E comparable] struct {
	id        N
	fixed     bool
	adjacent  map[N]int // neighbor -> number of edges
	edges     orderedSet[E]
	component *Component[N, E]
}

type edge[N comparable] struct {
	a, b N
}

// Component is a connected set of non-fixed nodes and the edges touching them
type Component[N comparable, E comparable] struct {
	nodes orderedSet[N]
	edges orderedSet[E]
}

// Nodes returns the non-fixed nodes of the component
func (c *Component[N, E]) Nodes() []N {
	return append([]N(nil), c.nodes.items...)
}

// Edges returns every edge with at least one endpoint in the component
func (c *Component[N, E]) Edges() []E {
	return append([]E(nil), c.edges.items...)
}

func (c *Component[N, E]) Len() int {
	return c.nodes.len()
}

// Graph is an undirected multigraph with incremental components
type Graph[N comparable, E comparable] struct {
	nodes      map[N]*node[N, E]
	edges      map[E]edge[N]
	components orderedSet[*Component[N, E]]
}

func New[N comparable, E comparable]() *Graph[N, E] {
	return &Graph[N, E]{
		nodes:      make(map[N]*node[N, E]),
		edges:      make(map[E]edge[N]),
		components: newOrderedSet[*Component[N, E]](),
	}
}

// AddNode inserts n; adding a known node again is a no-op
func (g *Graph[N, E]) AddNode(n N, fixed bool) {
	if _, ok := g.nodes[n]; ok {
		return
	}

	g.nodes[n] = &node[N, E]{
		id:       n,
		fixed:    fixed,
		adjacent: make(map[N]int),
		edges:    newOrderedSet[E](),
	}
}

// RemoveNode removes n with all its edges and returns the removed edges
func (g *Graph[N, E]) RemoveNode(n N) ([]E, error) {
	nd, ok := g.nodes[n]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNode, "remove node %v", n)
	}

	removed := append([]E(nil), nd.edges.items...)
	for _, e := range removed {
		if err := g.RemoveEdge(e); err != nil {
			return removed, err
		}
	}
	delete(g.nodes, n)

	return removed, nil
}

func (g *Graph[N, E]) HasNode(n N) bool {
	_, ok := g.nodes[n]
	return ok
}

func (g *Graph[N, E]) HasEdge(e E) bool {
	_, ok := g.edges[e]
	return ok
}

// Endpoints returns the two nodes joined by e
func (g *Graph[N, E]) Endpoints(e E) (N, N, bool) {
	ed, ok := g.edges[e]
	return ed.a, ed.b, ok
}

// AddEdge joins a and b with e, merging their components
func (g *Graph[N, E]) AddEdge(a, b N, e E) error {
	if _, ok := g.edges[e]; ok {
		return errors.Wrapf(ErrDuplicate, "add edge %v", e)
	}
	if a == b {
		return errors.Wrapf(ErrSelfEdge, "add edge %v", e)
	}
	na, ok := g.nodes[a]
	if !ok {
		return errors.Wrapf(ErrUnknownNode, "add edge %v: node %v", e, a)
	}
	nb, ok := g.nodes[b]
	if !ok {
		return errors.Wrapf(ErrUnknownNode, "add edge %v: node %v", e, b)
	}

	g.edges[e] = edge[N]{a: a, b: b}
	na.adjacent[b]++
	nb.adjacent[a]++
	na.edges.add(e)
	nb.edges.add(e)

	switch {
	case na.fixed && nb.fixed:
		// two delimiters never form a component
	case na.fixed:
		g.componentOf(nb).edges.add(e)
	case nb.fixed:
		g.componentOf(na).edges.add(e)
	default:
		c := g.merge(g.componentOf(na), g.componentOf(nb))
		c.edges.add(e)
	}

	return nil
}

// RemoveEdge deletes e and splits its component when e was a bridge
func (g *Graph[N, E]) RemoveEdge(e E) error {
	ed, ok := g.edges[e]
	if !ok {
		return errors.Wrapf(ErrUnknownEdge, "remove edge %v", e)
	}
	delete(g.edges, e)

	na, nb := g.nodes[ed.a], g.nodes[ed.b]
	unlink(na, ed.b)
	unlink(nb, ed.a)
	na.edges.remove(e)
	nb.edges.remove(e)

	if na.fixed && nb.fixed {
		return nil
	}
	if na.fixed {
		na, nb = nb, na
	}

	c := na.component
	c.edges.remove(e)

	if nb.fixed {
		// an edge to a delimiter never held the component together
		g.detachIfIsolated(na)
		return nil
	}

	if na.adjacent[nb.id] > 0 {
		return nil
	}

	isolatedA := na.edges.len() == 0
	isolatedB := nb.edges.len() == 0
	if isolatedA || isolatedB {
		g.detachIfIsolated(na)
		g.detachIfIsolated(nb)
		return nil
	}

	if side, split := g.search(na, nb); split {
		g.split(c, side)
	}

	return nil
}

func unlink[N comparable, E comparable](n *node[N, E], neighbor N) {
	if n.adjacent[neighbor] <= 1 {
		delete(n.adjacent, neighbor)
		return
	}
	n.adjacent[neighbor]--
}

// Components returns the current components
func (g *Graph[N, E]) Components() []*Component[N, E] {
	return append([]*Component[N, E](nil), g.components.items...)
}

// Component returns the component of n, nil for fixed or isolated nodes
func (g *Graph[N, E]) Component(n N) *Component[N, E] {
	if nd, ok := g.nodes[n]; ok {
		return nd.component
	}

	return nil
}

// componentOf returns the component of a non-fixed node, creating a singleton when needed
func (g *Graph[N, E]) componentOf(n *node[N, E]) *Component[N, E] {
	if n.component == nil {
		c := &Component[N, E]{nodes: newOrderedSet[N](), edges: newOrderedSet[E]()}
		c.nodes.add(n.id)
		n.component = c
		g.components.add(c)
	}

	return n.component
}

// merge moves the smaller component into the larger and returns the survivor
func (g *Graph[N, E]) merge(x, y *Component[N, E]) *Component[N, E] {
	if x == y {
		return x
	}
	if x.nodes.len() < y.nodes.len() {
		x, y = y, x
	}

	for _, id := range y.nodes.items {
		g.nodes[id].component = x
		x.nodes.add(id)
	}
	for _, e := range y.edges.items {
		x.edges.add(e)
	}
	g.components.remove(y)

	return x
}

func (g *Graph[N, E]) detachIfIsolated(n *node[N, E]) {
	if n.fixed || n.component == nil || n.edges.len() > 0 {
		return
	}

	c := n.component
	c.nodes.remove(n.id)
	n.component = nil
	if c.nodes.len() == 0 {
		g.components.remove(c)
	}
}

// search walks from a and b in alternation through non-fixed nodes. When one
// walk runs out before meeting the other, its visited set is returned as the
// part that broke off.
func (g *Graph[N, E]) search(a, b *node[N, E]) ([]N, bool) {
	type walk struct {
		queue   []N
		visited map[N]struct{}
		order   []N
	}
	start := func(n N) *walk {
		return &walk{queue: []N{n}, visited: map[N]struct{}{n: {}}, order: []N{n}}
	}
	walks := [2]*walk{start(a.id), start(b.id)}

	for {
		for side, w := range walks {
			other := walks[1-side]

			if len(w.queue) == 0 {
				return w.order, true
			}
			current := w.queue[0]
			w.queue = w.queue[1:]

			// edges rather than the adjacency map, for a reproducible order
			for _, e := range g.nodes[current].edges.items {
				neighbor := g.edges[e].a
				if neighbor == current {
					neighbor = g.edges[e].b
				}
				if g.nodes[neighbor].fixed {
					continue
				}
				if _, met := other.visited[neighbor]; met {
					return nil, false
				}
				if _, seen := w.visited[neighbor]; seen {
					continue
				}
				w.visited[neighbor] = struct{}{}
				w.order = append(w.order, neighbor)
				w.queue = append(w.queue, neighbor)
			}
		}
	}
}

// split moves the nodes of side, with their edges, from c into a new component
func (g *Graph[N, E]) split(c *Component[N, E], side []N) {
	fresh := &Component[N, E]{nodes: newOrderedSet[N](), edges: newOrderedSet[E]()}
	for _, id := range side {
		n := g.nodes[id]
		c.nodes.remove(id)
		fresh.nodes.add(id)
		n.component = fresh
		for _, e := range n.edges.items {
			if c.edges.remove(e) {
				fresh.edges.add(e)
			}
		}
	}
	g.components.add(fresh)
}

// Snapshot exports the non-fixed nodes and the edges between them as a gonum graph.
// Parallel edges collapse into one.
func (g *Graph[N, E]) Snapshot(id func(N) int64) *simple.UndirectedGraph {
	snapshot := simple.NewUndirectedGraph()
	for n, nd := range g.nodes {
		if nd.fixed {
			continue
		}
		if snapshot.Node(id(n)) == nil {
			snapshot.AddNode(simple.Node(id(n)))
		}
	}
	for _, ed := range g.edges {
		if g.nodes[ed.a].fixed || g.nodes[ed.b].fixed {
			continue
		}
		snapshot.SetEdge(snapshot.NewEdge(simple.Node(id(ed.a)), simple.Node(id(ed.b))))
	}

	return snapshot
}
