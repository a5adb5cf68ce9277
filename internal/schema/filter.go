package schema

import (
	"fmt"
	"regexp"
)

// FilterAction selects whether a filter keeps or drops matching tables.
type FilterAction int

const (
	Include FilterAction = iota
	Exclude
)

// Filter narrows a Schema to a subset of its tables. Exactly one of the
// target fields is set; Apply routes on whichever it finds.
type Filter struct {
	Action   FilterAction
	Tables   []string // match by table name
	Schemas  []string // match by database schema/owner name
	Patterns []string // match table names against regular expressions
}

// IncludeTables keeps only the named tables.
func IncludeTables(names ...string) Filter {
	return Filter{Action: Include, Tables: names}
}

// ExcludeTables drops the named tables.
func ExcludeTables(names ...string) Filter {
	return Filter{Action: Exclude, Tables: names}
}

// IncludeSchemas keeps only tables owned by the named database schemas.
func IncludeSchemas(names ...string) Filter {
	return Filter{Action: Include, Schemas: names}
}

// ExcludeSchemas drops tables owned by the named database schemas.
func ExcludeSchemas(names ...string) Filter {
	return Filter{Action: Exclude, Schemas: names}
}

// MatchingPattern keeps only tables whose names match one of the patterns.
func MatchingPattern(patterns ...string) Filter {
	return Filter{Action: Include, Patterns: patterns}
}

// ExcludingPattern drops tables whose names match one of the patterns.
func ExcludingPattern(patterns ...string) Filter {
	return Filter{Action: Exclude, Patterns: patterns}
}

// Apply returns a new Schema containing the tables that pass every filter.
// The receiver is never modified. Relationships touching a removed table are
// dropped from the copy.
func (s *Schema) Apply(filters ...Filter) (*Schema, error) {
	matchers := make([]func(Table) (bool, error), len(filters))
	for i, f := range filters {
		m, err := f.matcher()
		if err != nil {
			return nil, err
		}
		matchers[i] = m
	}

	out := &Schema{DatabaseName: s.DatabaseName}
	kept := make(map[string]bool, len(s.Tables))

	for _, t := range s.Tables {
		keep := true
		for i, m := range matchers {
			matched, err := m(t)
			if err != nil {
				return nil, err
			}
			if filters[i].Action == Include && !matched {
				keep = false
			}
			if filters[i].Action == Exclude && matched {
				keep = false
			}
		}
		if keep {
			out.Tables = append(out.Tables, t)
			kept[t.Name] = true
		}
	}

	for _, rel := range s.Relationships {
		if kept[rel.Child] && kept[rel.Parent] {
			out.Relationships = append(out.Relationships, rel)
		}
	}

	return out, nil
}

// matcher compiles the filter into a predicate over tables.
func (f Filter) matcher() (func(Table) (bool, error), error) {
	switch {
	case len(f.Tables) > 0:
		set := make(map[string]bool, len(f.Tables))
		for _, name := range f.Tables {
			set[name] = true
		}
		return func(t Table) (bool, error) { return set[t.Name], nil }, nil

	case len(f.Schemas) > 0:
		set := make(map[string]bool, len(f.Schemas))
		for _, name := range f.Schemas {
			set[name] = true
		}
		return func(t Table) (bool, error) { return set[t.SchemaName], nil }, nil

	case len(f.Patterns) > 0:
		res := make([]*regexp.Regexp, len(f.Patterns))
		for i, p := range f.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("invalid table pattern %q: %w", p, err)
			}
			res[i] = re
		}
		return func(t Table) (bool, error) {
			for _, re := range res {
				if re.MatchString(t.Name) {
					return true, nil
				}
			}
			return false, nil
		}, nil

	default:
		return nil, fmt.Errorf("filter has no tables, schemas, or patterns")
	}
}
