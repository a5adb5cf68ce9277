package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemaq/internal/schema"
)

// TextSerializer writes the schema in a compact text format for human
// inspection.
type TextSerializer struct{}

func (TextSerializer) Serialize(s *schema.Schema, w io.Writer) error {
	for i, table := range s.Tables {
		if i > 0 {
			_, _ = fmt.Fprintln(w) // Blank line between tables
		}
		formatTable(w, table, s.Relationships)
	}
	return nil
}

func formatTable(w io.Writer, table schema.Table, rels []schema.Relationship) {
	// Table header with primary key
	pkStr := ""
	if len(table.PrimaryKey) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(table.PrimaryKey, ", "))
	}
	_, _ = fmt.Fprintf(w, "TABLE %s%s\n", table.Name, pkStr)

	for _, col := range table.Columns {
		_, _ = fmt.Fprintf(w, "  %s\n", formatColumn(col))
	}

	var outgoing []schema.Relationship
	for _, rel := range rels {
		if rel.Child == table.Name {
			outgoing = append(outgoing, rel)
		}
	}
	if len(outgoing) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "  RELATIONS:")
		for _, rel := range outgoing {
			pairs := make([]string, len(rel.Pairs))
			for i, p := range rel.Pairs {
				pairs[i] = fmt.Sprintf("%s=%s.%s", p.Child, rel.Parent, p.Parent)
			}
			_, _ = fmt.Fprintf(w, "    -> %s (%s) on %s\n", rel.Parent, rel.Kind, strings.Join(pairs, ", "))
		}
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "  INDEXES:")
		for _, idx := range table.Indexes {
			unique := ""
			if idx.IsUnique {
				unique = " UNIQUE"
			}
			_, _ = fmt.Fprintf(w, "    %s (%s)%s\n", idx.Name, strings.Join(idx.Columns, ", "), unique)
		}
	}
}

func formatColumn(col schema.Column) string {
	parts := []string{col.Name + ":", columnType(col)}
	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}
	return strings.Join(parts, " ")
}

// columnType renders the type with its size metadata when present.
func columnType(col schema.Column) string {
	switch {
	case col.MaxLength != nil:
		return fmt.Sprintf("%s(%d)", col.Type, *col.MaxLength)
	case col.Precision != nil && col.Scale != nil:
		return fmt.Sprintf("%s(%d,%d)", col.Type, *col.Precision, *col.Scale)
	case col.Precision != nil:
		return fmt.Sprintf("%s(%d)", col.Type, *col.Precision)
	default:
		return col.Type
	}
}
