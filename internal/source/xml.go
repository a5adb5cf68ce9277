package source

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/tordrt/schemaq/internal/relgraph"
	"github.com/tordrt/schemaq/internal/schema"
)

type xmlRelationships struct {
	XMLName       xml.Name          `xml:"relationships"`
	Relationships []xmlRelationship `xml:"relationship"`
}

type xmlRelationship struct {
	Table    string    `xml:"table,attr"`
	Parent   string    `xml:"parent,attr"`
	Relation string    `xml:"relation,attr"`
	Pairs    []xmlPair `xml:"pair"`
}

type xmlPair struct {
	ParentColumn string `xml:"parent_column,attr"`
	ChildColumn  string `xml:"child_column,attr"`
}

// FromXML loads hierarchical relationship facts from an XML file. Each
// <relationship> element carries its column pairs as nested <pair> elements
// in declaration order, so composite keys need no row grouping.
func FromXML(path string) (*FactSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open relationships XML: %w", err)
	}
	defer f.Close()
	return FromXMLReader(path, f)
}

// FromXMLReader is FromXML over an arbitrary reader; name labels the source.
func FromXMLReader(name string, r io.Reader) (*FactSet, error) {
	var doc xmlRelationships
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse relationships XML: %w", err)
	}

	facts := make([]relgraph.Fact, 0, len(doc.Relationships))
	for _, rel := range doc.Relationships {
		if rel.Table == "" || rel.Parent == "" {
			return nil, &relgraph.ValidationError{
				Child:  rel.Table,
				Parent: rel.Parent,
				Reason: "relationship element has an empty table name",
			}
		}
		fact := relgraph.Fact{
			Child:  rel.Table,
			Parent: rel.Parent,
			Kind:   schema.KindOf(rel.Relation),
		}
		for _, p := range rel.Pairs {
			fact.ParentColumns = append(fact.ParentColumns, p.ParentColumn)
			fact.ChildColumns = append(fact.ChildColumns, p.ChildColumn)
		}
		facts = append(facts, fact)
	}
	return &FactSet{name: name, facts: facts}, nil
}
