package query

import (
	"fmt"
	"strings"
)

// InvalidFilterSpecError reports a filter spec that mixes params and value
// forms or is otherwise malformed.
type InvalidFilterSpecError struct {
	Reason string
}

func (e *InvalidFilterSpecError) Error() string {
	return fmt.Sprintf("invalid filter spec: %s", e.Reason)
}

type filterEntry struct {
	table   string
	columns []string // params form
	column  string   // value form
	value   any
	isValue bool
}

// FilterSpec describes which columns or column/value pairs constrain a
// generated query. It is an explicit configuration value: each builder call
// returns an updated copy, and the listed order is preserved into the
// synthesized predicates and parameter list. The params form (Params) and
// the value form (Value) must not be mixed in one spec.
type FilterSpec struct {
	entries []filterEntry
}

// Params adds placeholder predicates for the listed columns of a table.
// Each column contributes one positional parameter slot.
func (f FilterSpec) Params(table string, columns ...string) FilterSpec {
	entries := append(append([]filterEntry(nil), f.entries...), filterEntry{
		table:   table,
		columns: append([]string(nil), columns...),
	})
	return FilterSpec{entries: entries}
}

// Value adds a single equality predicate for a "table.column" reference
// bound to a literal value.
func (f FilterSpec) Value(ref string, v any) FilterSpec {
	table, column, _ := strings.Cut(ref, ".")
	entries := append(append([]filterEntry(nil), f.entries...), filterEntry{
		table:   table,
		column:  column,
		value:   v,
		isValue: true,
	})
	return FilterSpec{entries: entries}
}

// Empty reports whether the spec holds no predicates.
func (f FilterSpec) Empty() bool { return len(f.entries) == 0 }

// Tables returns the tables the spec constrains, in listed order without
// duplicates.
func (f FilterSpec) Tables() []string {
	var out []string
	seen := make(map[string]bool)
	for _, e := range f.entries {
		if !seen[e.table] {
			seen[e.table] = true
			out = append(out, e.table)
		}
	}
	return out
}

// predicate is one validated column constraint.
type predicate struct {
	table  string
	column string
	value  any
	bound  bool
}

// validate checks form consistency and flattens the spec into per-column
// predicates in listed order.
func (f FilterSpec) validate() ([]predicate, error) {
	var preds []predicate
	params, values := false, false
	for _, e := range f.entries {
		if e.table == "" {
			return nil, &InvalidFilterSpecError{Reason: "missing table name"}
		}
		if e.isValue {
			values = true
			if e.column == "" {
				return nil, &InvalidFilterSpecError{
					Reason: fmt.Sprintf("value entry %q is not a table.column reference", e.table),
				}
			}
			preds = append(preds, predicate{table: e.table, column: e.column, value: e.value, bound: true})
			continue
		}
		params = true
		if len(e.columns) == 0 {
			return nil, &InvalidFilterSpecError{
				Reason: fmt.Sprintf("table %s lists no columns", e.table),
			}
		}
		for _, c := range e.columns {
			preds = append(preds, predicate{table: e.table, column: c})
		}
	}
	if params && values {
		return nil, &InvalidFilterSpecError{Reason: "params form and value form mixed in one spec"}
	}
	return preds, nil
}
