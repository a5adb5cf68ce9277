// Package relgraph merges relationship facts from any number of sources into
// one consistent table-relationship graph.
package relgraph

import (
	"strings"

	"go.uber.org/zap"

	"github.com/tordrt/schemaq/internal/schema"
)

// Fact is one declared foreign-key-like linkage between two tables as
// supplied by a source. Column lists keep declaration order; positions pair
// up, so ParentColumns[i] matches ChildColumns[i].
type Fact struct {
	Child         string
	Parent        string
	Kind          schema.Kind
	ParentColumns []string
	ChildColumns  []string
}

// Source supplies relationship facts. Implementations perform all their I/O
// before Facts is handed to Ingest; the resolver itself never touches a file
// or a database.
type Source interface {
	// Name identifies the source in conflict logs.
	Name() string
	// Facts returns the facts in declaration order.
	Facts() []Fact
}

type state int

const (
	stateEmpty state = iota
	stateBuilding
	stateResolved
)

// Resolver accumulates relationship facts and converts them into a Graph.
// It is not safe for concurrent use; callers needing concurrent discovery
// must use independent Resolver instances.
type Resolver struct {
	log   *zap.Logger
	state state
	facts []Fact
	index map[string]int // structural identity -> position in facts
}

// NewResolver creates an empty resolver. A nil logger disables logging.
func NewResolver(log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		log:   log,
		index: make(map[string]int),
	}
}

// Ingest merges all facts from a source into the accumulated fact set.
// Ingesting an identical (child, parent, ordered column pairs) triple twice
// leaves one edge. When a source re-declares an existing triple with a
// different relationship kind, the most recent declaration wins and the
// conflict is logged rather than failing.
//
// A successful Ingest invalidates any previously built Graph; BuildGraph
// must be called again before planning.
func (r *Resolver) Ingest(src Source) error {
	for _, f := range src.Facts() {
		if err := r.ingestFact(src.Name(), f); err != nil {
			return err
		}
	}
	r.state = stateBuilding
	return nil
}

func (r *Resolver) ingestFact(source string, f Fact) error {
	switch {
	case f.Child == "":
		return &ValidationError{Child: f.Child, Parent: f.Parent, Reason: "missing child table"}
	case f.Parent == "":
		return &ValidationError{Child: f.Child, Parent: f.Parent, Reason: "missing parent table"}
	case !schema.ValidKind(f.Kind):
		return &ValidationError{Child: f.Child, Parent: f.Parent, Reason: "unknown relationship kind " + string(f.Kind)}
	case len(f.ParentColumns) == 0 && len(f.ChildColumns) == 0:
		return &ValidationError{Child: f.Child, Parent: f.Parent, Reason: "no column pairs"}
	}

	key := factKey(f)
	if pos, ok := r.index[key]; ok {
		if prev := r.facts[pos].Kind; prev != f.Kind {
			r.log.Warn("conflicting relationship kind, most recent source wins",
				zap.String("source", source),
				zap.String("child", f.Child),
				zap.String("parent", f.Parent),
				zap.String("previous", string(prev)),
				zap.String("declared", string(f.Kind)))
			r.facts[pos].Kind = f.Kind
		}
		return nil
	}

	r.index[key] = len(r.facts)
	r.facts = append(r.facts, f)
	return nil
}

// factKey is the structural identity used for deduplication: child, parent,
// and the ordered column pairs. The kind is deliberately excluded so a kind
// conflict updates the existing edge instead of adding a second one.
func factKey(f Fact) string {
	var b strings.Builder
	b.WriteString(f.Child)
	b.WriteByte('\x00')
	b.WriteString(f.Parent)
	for _, c := range f.ParentColumns {
		b.WriteByte('\x00')
		b.WriteString(c)
	}
	b.WriteByte('\x01')
	for _, c := range f.ChildColumns {
		b.WriteByte('\x00')
		b.WriteString(c)
	}
	return b.String()
}

// Facts returns the accumulated facts in ingestion order.
func (r *Resolver) Facts() []Fact {
	out := make([]Fact, len(r.facts))
	copy(out, r.facts)
	return out
}

// Resolved reports whether the accumulated fact set has been built into a
// Graph since the last Ingest.
func (r *Resolver) Resolved() bool {
	return r.state == stateResolved
}

// BuildGraph converts the accumulated fact set into a Graph. Extra table
// names may be seeded so tables without any relationship still appear as
// isolated nodes. Facts whose column lists differ in length fail with a
// ValidationError naming the offending relationship.
func (r *Resolver) BuildGraph(tables ...string) (*Graph, error) {
	g := newGraph()
	for _, name := range tables {
		g.node(name)
	}

	for _, f := range r.facts {
		if len(f.ParentColumns) != len(f.ChildColumns) {
			return nil, &ValidationError{
				Child:  f.Child,
				Parent: f.Parent,
				Reason: "composite key arity mismatch",
			}
		}
		pairs := make([]schema.ColumnPair, len(f.ParentColumns))
		for i := range f.ParentColumns {
			pairs[i] = schema.ColumnPair{Parent: f.ParentColumns[i], Child: f.ChildColumns[i]}
		}
		g.addEdge(f.Child, f.Parent, f.Kind, pairs)
	}

	r.state = stateResolved
	return g, nil
}
