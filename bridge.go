package schemaq

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/tordrt/schemaq/internal/advisor"
	"github.com/tordrt/schemaq/internal/db"
	"github.com/tordrt/schemaq/internal/planner"
	"github.com/tordrt/schemaq/internal/query"
	"github.com/tordrt/schemaq/internal/relgraph"
	"github.com/tordrt/schemaq/internal/schema"
	"github.com/tordrt/schemaq/internal/source"
)

// Bridge ties a schema to a relationship graph and answers planning
// questions against it. The lifecycle is explicit: add relationship sources,
// call Resolve, then plan and synthesize queries. Ingesting another source
// after Resolve requires resolving again.
//
// A Bridge is not safe for concurrent mutation; once Resolve has run,
// planning and query synthesis only read and may happen concurrently.
type Bridge struct {
	log      *zap.Logger
	schema   *schema.Schema
	resolver *relgraph.Resolver
	graph    *relgraph.Graph
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithLogger sets the logger used for relationship conflict and join
// ambiguity warnings. Without it, warnings are dropped.
func WithLogger(log *zap.Logger) BridgeOption {
	return func(b *Bridge) { b.log = log }
}

// NewBridge creates a Bridge over a schema.
func NewBridge(s *schema.Schema, opts ...BridgeOption) *Bridge {
	b := &Bridge{schema: s}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	b.resolver = relgraph.NewResolver(b.log)
	return b
}

// AddSource ingests relationship facts from a source. Re-declaring an
// existing relationship is a no-op; declaring it with a different kind keeps
// the most recent kind and logs the conflict.
func (b *Bridge) AddSource(src relgraph.Source) error {
	b.graph = nil
	return b.resolver.Ingest(src)
}

// AddFacts ingests programmatically built facts under the given source name.
func (b *Bridge) AddFacts(name string, facts []relgraph.Fact) error {
	return b.AddSource(source.NewFactSet(name, facts))
}

// UseSchemaRelationships ingests the schema's own foreign keys as
// relationship facts.
func (b *Bridge) UseSchemaRelationships() error {
	return b.AddSource(db.NewSchemaSource("schema", b.schema))
}

// Resolve builds the relationship graph from everything ingested so far.
// Every schema table appears in the graph, related or not.
func (b *Bridge) Resolve() error {
	g, err := b.resolver.BuildGraph(b.schema.TableNames()...)
	if err != nil {
		return err
	}
	b.graph = g
	return nil
}

// Resolved reports whether the graph is current with respect to the
// ingested sources.
func (b *Bridge) Resolved() bool {
	return b.graph != nil && b.resolver.Resolved()
}

func (b *Bridge) requireResolved() error {
	if !b.Resolved() {
		return fmt.Errorf("relationships not resolved: call Resolve after adding sources")
	}
	return nil
}

// RootTables returns the tables no many-to-one relationship leaves, in
// ascending name order. A cycle among many-to-one relationships is an error
// naming one relationship on the cycle.
func (b *Bridge) RootTables() ([]string, error) {
	if err := b.requireResolved(); err != nil {
		return nil, err
	}
	return b.graph.RootTables()
}

// Relationships returns the resolved relationships in ingestion order.
func (b *Bridge) Relationships() ([]schema.Relationship, error) {
	if err := b.requireResolved(); err != nil {
		return nil, err
	}
	edges := b.graph.Edges()
	rels := make([]schema.Relationship, len(edges))
	for i := range edges {
		rels[i] = b.graph.Relationship(i)
	}
	return rels, nil
}

// Plan computes the join plan connecting the target tables. Without
// explicit targets every schema table is a target. The plan starts from the
// lexicographically smallest target and assigns aliases T1, T2, ... in
// discovery order; the same graph and targets always produce the same plan.
func (b *Bridge) Plan(targets ...string) (*planner.Plan, error) {
	if err := b.requireResolved(); err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		targets = b.schema.TableNames()
	}
	return planner.New(targets, b.graph, b.log)
}

// Filter returns an empty filter spec to build predicates on.
func Filter() query.FilterSpec {
	return query.FilterSpec{}
}

// QueryResult is a synthesized query together with the advisory index
// recommendations for its filtered and joined columns.
type QueryResult struct {
	query.Result
	IndexRecommendations []advisor.Recommendation
}

// Query synthesizes a SELECT joining every table the filter spec touches.
// Without explicit targets, the filter spec's tables are the targets; an
// empty spec queries the whole schema. The result carries the parameterized
// SQL, its parameter slots in placeholder order, and missing-index
// recommendations for the filtered and joined columns.
func (b *Bridge) Query(spec query.FilterSpec, targets ...string) (*QueryResult, error) {
	if len(targets) == 0 {
		targets = spec.Tables()
	}
	plan, err := b.Plan(targets...)
	if err != nil {
		return nil, err
	}

	result, err := query.Synthesize(b.schema, plan, spec)
	if err != nil {
		return nil, err
	}

	var joins []schema.Relationship
	for _, e := range plan.Entries {
		if e.Rel != nil {
			joins = append(joins, *e.Rel)
		}
	}

	return &QueryResult{
		Result:               *result,
		IndexRecommendations: advisor.Recommend(b.schema, query.Usage(spec), joins),
	}, nil
}

// RenderPlan writes a human-readable join plan for the targets.
func (b *Bridge) RenderPlan(w io.Writer, targets ...string) error {
	plan, err := b.Plan(targets...)
	if err != nil {
		return err
	}
	return query.NewPlanRenderer(w).Render(plan)
}

// RelationshipsFromCSV loads a tabular relationship file for AddSource.
func RelationshipsFromCSV(path string) (relgraph.Source, error) {
	return source.FromCSV(path)
}

// RelationshipsFromXML loads a hierarchical relationship file for AddSource.
func RelationshipsFromXML(path string) (relgraph.Source, error) {
	return source.FromXML(path)
}
