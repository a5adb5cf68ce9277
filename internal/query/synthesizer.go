// Package query synthesizes parameterized SQL text from a join plan and a
// filter specification.
package query

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemaq/internal/planner"
	"github.com/tordrt/schemaq/internal/schema"
)

// Parameter is one positional parameter slot in a synthesized query. Value
// is nil for params-form slots, which the caller binds at execution time.
type Parameter struct {
	Column string // "table.column"
	Value  any
}

// Result is the synthesized query payload.
type Result struct {
	Query      string
	Parameters []Parameter
	TablesUsed []string
}

// Synthesize combines a join plan and a filter spec into SQL text, a
// positional parameter list, and the list of tables used. It is a pure
// function of its inputs: predicates appear grouped per table, the primary
// table first and joined tables in the plan's alias order, and columns
// within a table keep the order they were listed in the spec. The parameter
// list matches the placeholder order exactly.
func Synthesize(s *schema.Schema, plan *planner.Plan, spec FilterSpec) (*Result, error) {
	preds, err := spec.validate()
	if err != nil {
		return nil, err
	}
	for _, p := range preds {
		if _, ok := plan.Alias(p.table); !ok {
			return nil, &InvalidFilterSpecError{
				Reason: fmt.Sprintf("table %s is not part of the join plan", p.table),
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT\n  ")
	sb.WriteString(strings.Join(selectList(s, plan), ",\n  "))

	primary := plan.Primary()
	fmt.Fprintf(&sb, "\nFROM %s %s", primary.Table, primary.Alias)

	for _, e := range plan.Entries[1:] {
		fmt.Fprintf(&sb, "\nLEFT JOIN %s %s ON %s", e.Table, e.Alias, joinPredicate(e))
	}

	where, parameters := whereClause(plan, preds)
	if where != "" {
		sb.WriteString("\nWHERE ")
		sb.WriteString(where)
	}

	return &Result{
		Query:      sb.String(),
		Parameters: parameters,
		TablesUsed: plan.Tables(),
	}, nil
}

// selectList emits alias.column AS alias_column for every column of every
// plan table, tables in alias order and columns in schema order. Tables the
// schema does not describe contribute no columns; they still join.
func selectList(s *schema.Schema, plan *planner.Plan) []string {
	var cols []string
	for _, e := range plan.Entries {
		t := s.Table(e.Table)
		if t == nil {
			continue
		}
		for _, c := range t.Columns {
			cols = append(cols, fmt.Sprintf("%s.%s AS %s_%s", e.Alias, c.Name, e.Alias, c.Name))
		}
	}
	if len(cols) == 0 {
		cols = []string{plan.Primary().Alias + ".*"}
	}
	return cols
}

// joinPredicate renders a relationship's column pairs as AND-combined
// equalities in declared order: child column on the left, parent column on
// the right.
func joinPredicate(e planner.Entry) string {
	parts := make([]string, len(e.Rel.Pairs))
	for i, pair := range e.Rel.Pairs {
		parts[i] = fmt.Sprintf("%s.%s = %s.%s", e.ChildAlias, pair.Child, e.ParentAlias, pair.Parent)
	}
	return strings.Join(parts, " AND ")
}

// whereClause orders predicates by the plan's alias order, grouping each
// table's columns together, and returns the matching parameter list.
func whereClause(plan *planner.Plan, preds []predicate) (string, []Parameter) {
	var clauses []string
	var parameters []Parameter
	for _, e := range plan.Entries {
		for _, p := range preds {
			if p.table != e.Table {
				continue
			}
			clauses = append(clauses, fmt.Sprintf("%s.%s = ?", e.Alias, p.column))
			param := Parameter{Column: p.table + "." + p.column}
			if p.bound {
				param.Value = p.value
			}
			parameters = append(parameters, param)
		}
	}
	return strings.Join(clauses, " AND "), parameters
}

// Usage returns the filtered columns grouped per table in predicate order,
// for index advisory purposes. Returns nil when the spec is malformed; the
// advisor is best-effort and never fails.
func Usage(spec FilterSpec) []TableUsage {
	preds, err := spec.validate()
	if err != nil {
		return nil
	}
	var usage []TableUsage
	pos := make(map[string]int)
	for _, p := range preds {
		i, ok := pos[p.table]
		if !ok {
			i = len(usage)
			pos[p.table] = i
			usage = append(usage, TableUsage{Table: p.table})
		}
		usage[i].Columns = append(usage[i].Columns, p.column)
	}
	return usage
}

// TableUsage lists the filtered columns of one table in listed order.
type TableUsage struct {
	Table   string
	Columns []string
}
