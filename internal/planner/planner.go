// Package planner computes join paths between a requested set of tables over
// a resolved relationship graph.
package planner

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/tordrt/schemaq/internal/relgraph"
	"github.com/tordrt/schemaq/internal/schema"
)

// UnreachableTableError reports a requested table that no join path connects
// to the rest of the requested set.
type UnreachableTableError struct {
	Table string
}

func (e *UnreachableTableError) Error() string {
	return fmt.Sprintf("no join path reaches table %s", e.Table)
}

// AmbiguousJoinNote records that more than one relationship connects a table
// pair. The plan falls back to the earliest-registered relationship; the note
// lets callers surface the ambiguity instead of silently guessing.
type AmbiguousJoinNote struct {
	TableA string
	TableB string
	Count  int
}

// Entry is one table in a join plan. The primary table has no relationship;
// every other entry joins through Rel, whose child and parent sides resolve
// to ChildAlias and ParentAlias within the plan.
type Entry struct {
	Table       string
	Alias       string
	Rel         *schema.Relationship
	ChildAlias  string
	ParentAlias string
}

// Plan is an ordered join plan. Entry order is alias order: the primary
// table first, then joined tables in discovery order.
type Plan struct {
	Entries []Entry
	Notes   []AmbiguousJoinNote

	aliases map[string]string
}

// Primary returns the plan's primary table entry.
func (p *Plan) Primary() Entry { return p.Entries[0] }

// Tables returns the plan's table names in alias order.
func (p *Plan) Tables() []string {
	names := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		names[i] = e.Table
	}
	return names
}

// Alias returns the alias assigned to a table in this plan.
func (p *Plan) Alias(table string) (string, bool) {
	a, ok := p.aliases[table]
	return a, ok
}

// New computes the minimal connected subgraph touching every target table
// and assigns aliases T1, T2, ... in breadth-first discovery order starting
// from the lexicographically smallest target. Neighbor order during the
// search is edge ingestion order, so the result is reproducible for a given
// fact set. A nil logger disables note logging.
func New(targets []string, g *relgraph.Graph, log *zap.Logger) (*Plan, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no target tables requested")
	}

	want := dedupeSorted(targets)
	start, ok := g.TableIndex(want[0])
	if !ok {
		return nil, &UnreachableTableError{Table: want[0]}
	}

	// Breadth-first search from the smallest target over the undirected view
	// of the graph, recording discovery order and tree edges.
	prevEdge := make([]int, g.Len())
	for i := range prevEdge {
		prevEdge[i] = -1
	}
	discovered := make([]bool, g.Len())
	discovered[start] = true
	order := []int{start}

	queue := []int{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, e := range mergeAscending(g.OutEdges(n), g.InEdges(n)) {
			edge := g.Edge(e)
			next := edge.Parent
			if next == n {
				next = edge.Child
			}
			if discovered[next] {
				continue
			}
			discovered[next] = true
			prevEdge[next] = e
			order = append(order, next)
			queue = append(queue, next)
		}
	}

	// Every target must have been reached.
	for _, name := range want {
		i, ok := g.TableIndex(name)
		if !ok || !discovered[i] {
			return nil, &UnreachableTableError{Table: name}
		}
	}

	// Union of the shortest paths from the start to each target.
	include := make([]bool, g.Len())
	for _, name := range want {
		i, _ := g.TableIndex(name)
		for i != start && !include[i] {
			include[i] = true
			edge := g.Edge(prevEdge[i])
			if edge.Child == i {
				i = edge.Parent
			} else {
				i = edge.Child
			}
		}
	}
	include[start] = true

	pairEdges := countPairEdges(g)

	plan := &Plan{aliases: make(map[string]string)}
	aliasOf := make(map[int]string)
	for _, n := range order {
		if !include[n] {
			continue
		}
		alias := fmt.Sprintf("T%d", len(plan.Entries)+1)
		aliasOf[n] = alias
		plan.aliases[g.TableName(n)] = alias

		entry := Entry{Table: g.TableName(n), Alias: alias}
		if n != start {
			e := prevEdge[n]
			edge := g.Edge(e)
			rel := g.Relationship(e)
			entry.Rel = &rel
			entry.ChildAlias = aliasOf[edge.Child]
			entry.ParentAlias = aliasOf[edge.Parent]

			if c := pairEdges[pairKey(edge.Child, edge.Parent)]; c > 1 {
				note := AmbiguousJoinNote{
					TableA: g.TableName(edge.Child),
					TableB: g.TableName(edge.Parent),
					Count:  c,
				}
				plan.Notes = append(plan.Notes, note)
				log.Warn("multiple relationships connect table pair, using earliest-registered",
					zap.String("child", note.TableA),
					zap.String("parent", note.TableB),
					zap.Int("relationships", c))
			}
		}
		plan.Entries = append(plan.Entries, entry)
	}

	return plan, nil
}

func dedupeSorted(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func countPairEdges(g *relgraph.Graph) map[[2]int]int {
	counts := make(map[[2]int]int)
	for _, e := range g.Edges() {
		counts[pairKey(e.Child, e.Parent)]++
	}
	return counts
}

// mergeAscending merges two ascending edge index lists. Adjacency lists are
// appended in ingestion order, so the merged list visits neighbors in the
// order their relationships were registered.
func mergeAscending(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] < b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
