// Package db extracts schema metadata and foreign-key facts from live
// databases.
package db

import (
	"context"

	"github.com/tordrt/schemaq/internal/relgraph"
	"github.com/tordrt/schemaq/internal/schema"
)

// Extractor extracts schema metadata from a database. Implementations read
// tables, columns, primary keys, indexes, and foreign keys; foreign keys are
// grouped per constraint so composite keys arrive as one relationship.
type Extractor interface {
	// ExtractSchema extracts the schema for the given tables, or every
	// table when the list is empty.
	ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error)
}

// SchemaSource adapts an extracted schema's foreign keys into relationship
// facts for the resolver. Foreign keys always read as many-to-one from the
// declaring table.
type SchemaSource struct {
	name string
	s    *schema.Schema
}

// NewSchemaSource wraps an extracted schema; name identifies the database in
// conflict logs.
func NewSchemaSource(name string, s *schema.Schema) *SchemaSource {
	return &SchemaSource{name: name, s: s}
}

// Name identifies the source in conflict logs.
func (src *SchemaSource) Name() string { return src.name }

// Facts converts the schema's relationships into resolver facts, in
// extraction order.
func (src *SchemaSource) Facts() []relgraph.Fact {
	facts := make([]relgraph.Fact, 0, len(src.s.Relationships))
	for _, rel := range src.s.Relationships {
		f := relgraph.Fact{Child: rel.Child, Parent: rel.Parent, Kind: rel.Kind}
		for _, p := range rel.Pairs {
			f.ParentColumns = append(f.ParentColumns, p.Parent)
			f.ChildColumns = append(f.ChildColumns, p.Child)
		}
		facts = append(facts, f)
	}
	return facts
}
