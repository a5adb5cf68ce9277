// Package advisor recommends missing indexes for filtered and joined
// columns. Recommendations are best-effort advisory text; nothing here ever
// executes DDL.
package advisor

import (
	"fmt"

	"github.com/tordrt/schemaq/internal/query"
	"github.com/tordrt/schemaq/internal/schema"
)

// Recommendation is one advisory missing-index record.
type Recommendation struct {
	Table     string
	Column    string
	Statement string
	Reason    string
}

// Recommend inspects the filtered columns and join relationships of a query
// against the schema's index metadata and returns advisory CREATE INDEX
// statements for columns no existing index covers. It never fails: tables
// without index metadata (nil Indexes) and tables the schema does not
// describe are skipped, and an empty result is valid.
func Recommend(s *schema.Schema, usage []query.TableUsage, joins []schema.Relationship) []Recommendation {
	if s == nil {
		return nil
	}

	var recs []Recommendation
	seen := make(map[string]bool)
	add := func(r Recommendation) {
		key := r.Table + "." + r.Column
		if !seen[key] {
			seen[key] = true
			recs = append(recs, r)
		}
	}

	// Filtered columns want an index with the column as a leading or second
	// key column.
	for _, u := range usage {
		t := s.Table(u.Table)
		if t == nil || t.Indexes == nil {
			continue
		}
		for _, col := range u.Columns {
			if coveredForFilter(t, col) {
				continue
			}
			add(Recommendation{
				Table:     u.Table,
				Column:    col,
				Statement: fmt.Sprintf("CREATE INDEX IX_%s_%s ON %s (%s)", u.Table, col, u.Table, col),
				Reason:    "filtered column has no covering index",
			})
		}
	}

	// Join child columns want an index with the column leading.
	for _, rel := range joins {
		t := s.Table(rel.Child)
		if t == nil || t.Indexes == nil {
			continue
		}
		for _, pair := range rel.Pairs {
			if coveredForJoin(t, pair.Child) {
				continue
			}
			add(Recommendation{
				Table:     rel.Child,
				Column:    pair.Child,
				Statement: fmt.Sprintf("CREATE INDEX IX_%s_%s_FK ON %s (%s)", rel.Child, pair.Child, rel.Child, pair.Child),
				Reason:    fmt.Sprintf("join column to %s has no leading-column index", rel.Parent),
			})
		}
	}

	return recs
}

// coveredForFilter reports whether the column appears as a leading or
// second key column of any index.
func coveredForFilter(t *schema.Table, column string) bool {
	for _, idx := range t.Indexes {
		for i, c := range idx.Columns {
			if i > 1 {
				break
			}
			if c == column {
				return true
			}
		}
	}
	return t.IsPrimaryKey(column) && len(t.PrimaryKey) > 0 && t.PrimaryKey[0] == column
}

// coveredForJoin reports whether the column leads any index or the primary
// key.
func coveredForJoin(t *schema.Table, column string) bool {
	for _, idx := range t.Indexes {
		if len(idx.Columns) > 0 && idx.Columns[0] == column {
			return true
		}
	}
	return len(t.PrimaryKey) > 0 && t.PrimaryKey[0] == column
}
