// Package source loads relationship facts from files. Loaders perform all
// their I/O up front and hand materialized fact sets to the resolver.
package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/tordrt/schemaq/internal/relgraph"
	"github.com/tordrt/schemaq/internal/schema"
)

// FactSet is a named, materialized set of relationship facts.
type FactSet struct {
	name  string
	facts []relgraph.Fact
}

// Name identifies the fact set in conflict logs.
func (s *FactSet) Name() string { return s.name }

// Facts returns the facts in declaration order.
func (s *FactSet) Facts() []relgraph.Fact { return s.facts }

// NewFactSet wraps already-built facts, for callers that assemble facts
// programmatically.
func NewFactSet(name string, facts []relgraph.Fact) *FactSet {
	return &FactSet{name: name, facts: facts}
}

// FromCSV loads tabular relationship facts from a CSV file. Expected header:
// table,parent,relation,parent_column,child_column with an optional ordinal
// column. Each row carries one column pair; consecutive rows sharing the
// same (table, parent, relation) compose into one multi-column fact, ordered
// by ordinal when present and by declaration order otherwise.
func FromCSV(path string) (*FactSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open relationships CSV: %w", err)
	}
	defer f.Close()
	return FromCSVReader(path, f)
}

// FromCSVReader is FromCSV over an arbitrary reader; name labels the source.
func FromCSVReader(name string, r io.Reader) (*FactSet, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, required := range []string{"table", "parent", "relation", "parent_column", "child_column"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("relationships CSV is missing column %q", required)
		}
	}

	type pair struct {
		parent  string
		child   string
		ordinal int
	}

	var facts []relgraph.Fact
	var pairs []pair
	var current relgraph.Fact
	open := false

	flush := func() {
		if !open {
			return
		}
		sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].ordinal < pairs[j].ordinal })
		for _, p := range pairs {
			current.ParentColumns = append(current.ParentColumns, p.parent)
			current.ChildColumns = append(current.ChildColumns, p.child)
		}
		facts = append(facts, current)
		pairs = nil
		open = false
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read relationships CSV: %w", err)
		}
		line++

		field := func(name string) string {
			i := col[name]
			if i >= len(record) {
				return ""
			}
			return record[i]
		}

		child := field("table")
		parent := field("parent")
		kind := schema.KindOf(field("relation"))
		if child == "" || parent == "" {
			return nil, &relgraph.ValidationError{
				Child:  child,
				Parent: parent,
				Reason: fmt.Sprintf("line %d has an empty table name", line),
			}
		}

		if !open || current.Child != child || current.Parent != parent || current.Kind != kind {
			flush()
			current = relgraph.Fact{Child: child, Parent: parent, Kind: kind}
			open = true
		}

		ordinal := len(pairs)
		if i, ok := col["ordinal"]; ok && i < len(record) && record[i] != "" {
			ordinal, err = strconv.Atoi(record[i])
			if err != nil {
				return nil, &relgraph.ValidationError{
					Child:  child,
					Parent: parent,
					Reason: fmt.Sprintf("line %d has a non-numeric ordinal %q", line, record[i]),
				}
			}
		}
		pairs = append(pairs, pair{parent: field("parent_column"), child: field("child_column"), ordinal: ordinal})
	}
	flush()

	return &FactSet{name: name, facts: facts}, nil
}
