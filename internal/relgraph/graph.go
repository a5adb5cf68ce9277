package relgraph

import (
	"sort"

	"github.com/tordrt/schemaq/internal/schema"
)

// Edge is a relationship in a built Graph, directed child -> parent. Node
// positions index into the graph's table arena.
type Edge struct {
	Child  int
	Parent int
	Kind   schema.Kind
	Pairs  []schema.ColumnPair
}

// Graph is the resolved table-relationship graph. Nodes live in an arena
// addressed by index; adjacency lists hold edge positions in ingestion
// order. A built Graph is immutable and safe for concurrent reads.
type Graph struct {
	names []string
	index map[string]int
	edges []Edge
	out   [][]int // per child node, edges leaving it
	in    [][]int // per parent node, edges arriving at it
}

func newGraph() *Graph {
	return &Graph{index: make(map[string]int)}
}

// node returns the arena position for a table name, adding it if new.
func (g *Graph) node(name string) int {
	if i, ok := g.index[name]; ok {
		return i
	}
	i := len(g.names)
	g.index[name] = i
	g.names = append(g.names, name)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return i
}

func (g *Graph) addEdge(child, parent string, kind schema.Kind, pairs []schema.ColumnPair) {
	c := g.node(child)
	p := g.node(parent)
	e := len(g.edges)
	g.edges = append(g.edges, Edge{Child: c, Parent: p, Kind: kind, Pairs: pairs})
	g.out[c] = append(g.out[c], e)
	g.in[p] = append(g.in[p], e)
}

// Len returns the number of tables in the graph.
func (g *Graph) Len() int { return len(g.names) }

// TableName returns the table name at arena position i.
func (g *Graph) TableName(i int) string { return g.names[i] }

// TableIndex returns the arena position of a table name.
func (g *Graph) TableIndex(name string) (int, bool) {
	i, ok := g.index[name]
	return i, ok
}

// Edges returns the edges in ingestion order.
func (g *Graph) Edges() []Edge { return g.edges }

// Edge returns the edge at position e.
func (g *Graph) Edge(e int) Edge { return g.edges[e] }

// OutEdges returns positions of edges leaving node i (i as child).
func (g *Graph) OutEdges(i int) []int { return g.out[i] }

// InEdges returns positions of edges arriving at node i (i as parent).
func (g *Graph) InEdges(i int) []int { return g.in[i] }

// Relationship converts the edge at position e back into a schema value.
func (g *Graph) Relationship(e int) schema.Relationship {
	edge := g.edges[e]
	return schema.Relationship{
		Child:  g.names[edge.Child],
		Parent: g.names[edge.Parent],
		Kind:   edge.Kind,
		Pairs:  edge.Pairs,
	}
}

// RootTables returns every table with no outgoing many-to-one edge, in
// ascending name order. When the many-to-one subgraph contains a cycle the
// affected tables cannot be unambiguously rooted and a GraphCycleError
// naming one edge on the cycle is returned instead.
func (g *Graph) RootTables() ([]string, error) {
	if err := g.checkManyToOneCycle(); err != nil {
		return nil, err
	}

	var roots []string
	for i := range g.names {
		rooted := true
		for _, e := range g.out[i] {
			if g.edges[e].Kind == schema.ManyToOne {
				rooted = false
				break
			}
		}
		if rooted {
			roots = append(roots, g.names[i])
		}
	}
	sort.Strings(roots)
	return roots, nil
}

const (
	colorWhite = iota // unvisited
	colorGray         // on the current DFS path
	colorBlack        // finished
)

// checkManyToOneCycle runs a DFS restricted to many-to-one edges. Nodes are
// visited in arena order and edges in ingestion order, so the reported edge
// is deterministic.
func (g *Graph) checkManyToOneCycle() error {
	color := make([]int, len(g.names))
	for start := range g.names {
		if color[start] != colorWhite {
			continue
		}
		if err := g.dfsManyToOne(start, color); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) dfsManyToOne(n int, color []int) error {
	color[n] = colorGray
	for _, e := range g.out[n] {
		edge := g.edges[e]
		if edge.Kind != schema.ManyToOne {
			continue
		}
		switch color[edge.Parent] {
		case colorGray:
			return &GraphCycleError{Child: g.names[edge.Child], Parent: g.names[edge.Parent]}
		case colorWhite:
			if err := g.dfsManyToOne(edge.Parent, color); err != nil {
				return err
			}
		}
	}
	color[n] = colorBlack
	return nil
}
